package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

const (
	robotsPath         = "/robots.txt"
	maxRobotsBodyBytes = 1 << 20
	defaultRobotsWait  = 10 * time.Second
)

// ExclusionConfig controls how the exclusion policy is loaded.
type ExclusionConfig struct {
	// Enforce disables the policy entirely when false.
	Enforce   bool
	UserAgent string
	Timeout   time.Duration
	// Client overrides the HTTP client used for robots.txt (tests).
	Client *http.Client
}

// robotsPolicy answers Allowed from a robots.txt parsed once per session.
type robotsPolicy struct {
	group     *robotstxt.Group
	userAgent string
	logger    *zap.Logger
}

// LoadExclusionPolicy fetches and parses siteRoot's robots.txt.
// It never fails: any fetch or parse problem yields an allow-all policy and a
// warning, so a missing or broken robots.txt cannot stall the crawl.
func LoadExclusionPolicy(ctx context.Context, siteRoot string, cfg ExclusionConfig, logger *zap.Logger) ExclusionPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enforce {
		logger.Debug("robots enforcement disabled")
		return allowAllPolicy{}
	}
	data, err := fetchRobots(ctx, siteRoot, cfg)
	if err != nil {
		logger.Warn("robots fetch failed; allowing access", zap.String("site", siteRoot), zap.Error(err))
		return allowAllPolicy{}
	}
	group := data.FindGroup(cfg.UserAgent)
	if group == nil {
		return allowAllPolicy{}
	}
	return &robotsPolicy{group: group, userAgent: cfg.UserAgent, logger: logger}
}

// Allowed implements ExclusionPolicy. Unparseable URLs are allowed.
func (p *robotsPolicy) Allowed(rawURL string) bool {
	if p == nil || p.group == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		p.logger.Warn("robots check on malformed url; allowing", zap.String("url", rawURL), zap.Error(err))
		return true
	}
	target := parsed.EscapedPath()
	if target == "" {
		target = "/"
	}
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	return p.group.Test(target)
}

func fetchRobots(ctx context.Context, siteRoot string, cfg ExclusionConfig) (*robotstxt.RobotsData, error) {
	robotsURL, err := robotsURLFor(siteRoot)
	if err != nil {
		return nil, err
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRobotsWait
		}
		client = &http.Client{Timeout: timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		metrics.ObservePage(string(PageKindRobots), "error", 0)
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	// robotstxt treats 5xx as disallow-all; a server error is a fetch failure here.
	if resp.StatusCode >= http.StatusInternalServerError {
		metrics.ObservePage(string(PageKindRobots), "error", 0)
		return nil, fmt.Errorf("fetch robots: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	metrics.ObservePage(string(PageKindRobots), "ok", len(body))
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}

func robotsURLFor(siteRoot string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(siteRoot))
	if err != nil {
		return "", fmt.Errorf("parse site root: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("site root %q is not absolute", siteRoot)
	}
	robots := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: robotsPath}
	return robots.String(), nil
}

type allowAllPolicy struct{}

func (allowAllPolicy) Allowed(string) bool { return true }
