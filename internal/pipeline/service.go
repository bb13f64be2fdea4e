// Package pipeline runs one crawl-and-ingest pass for an owner.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/ingest"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Scrape outcomes used for logging and metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeUpstream = "upstream_error"
	OutcomeStorage  = "storage_error"
	OutcomeCanceled = "canceled"
	OutcomeFailed   = "failed"
)

// Config bounds every scrape the service runs.
type Config struct {
	RootURL        string
	StartPath      string
	UserAgent      string
	MinInterval    time.Duration
	RequestTimeout time.Duration
	RespectRobots  bool
	MaxItems       int
	MaxPages       int
	// RobotsClient overrides the HTTP client used for robots.txt (tests).
	RobotsClient *http.Client
}

// Ingester persists a finished batch.
type Ingester interface {
	Ingest(ctx context.Context, records []crawler.CrawlRecord, ownerID string) (ingest.Result, error)
}

// Report summarizes one scrape.
type Report struct {
	Inserted     int `json:"inserted"`
	Offered      int `json:"offered"`
	Skipped      int `json:"skipped"`
	Invalid      int `json:"invalid"`
	Disallowed   int `json:"disallowed"`
	PagesVisited int `json:"pages_visited"`
}

// Service builds a fresh session (policy, gate, walker) per scrape and hands
// the collected batch to the ingester.
type Service struct {
	cfg       Config
	startURL  string
	fetcher   crawler.Fetcher
	parser    crawler.ListingParser
	extractor crawler.Extractor
	ingester  Ingester
	logger    *zap.Logger
}

// New validates cfg and wires a Service.
func New(
	cfg Config,
	fetcher crawler.Fetcher,
	parser crawler.ListingParser,
	extractor crawler.Extractor,
	ingester Ingester,
	logger *zap.Logger,
) (*Service, error) {
	if fetcher == nil || parser == nil || extractor == nil || ingester == nil {
		return nil, errors.New("pipeline: fetcher, parser, extractor, and ingester are required")
	}
	root, err := crawler.NormalizeURL(cfg.RootURL)
	if err != nil {
		return nil, fmt.Errorf("pipeline: root url: %w", err)
	}
	cfg.RootURL = root
	startURL, err := crawler.ResolveLink(root, cfg.StartPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: start path: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		startURL:  startURL,
		fetcher:   fetcher,
		parser:    parser,
		extractor: extractor,
		ingester:  ingester,
		logger:    logger,
	}, nil
}

// StartURL is the first listing page each scrape walks.
func (s *Service) StartURL() string {
	return s.startURL
}

// Scrape crawls the catalog and ingests the records for ownerID.
//
// When a listing page fails mid-walk, the records found so far are still
// ingested and the error (wrapping crawler.ErrUpstreamUnavailable) is
// returned together with the report. On cancellation nothing is ingested.
func (s *Service) Scrape(ctx context.Context, ownerID string) (Report, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Report{}, ingest.ErrOwnerRequired
	}
	logger := logging.FromContext(ctx, s.logger).With(zap.String("owner_id", ownerID))
	started := time.Now()

	policy := crawler.LoadExclusionPolicy(ctx, s.cfg.RootURL, crawler.ExclusionConfig{
		Enforce:   s.cfg.RespectRobots,
		UserAgent: s.cfg.UserAgent,
		Timeout:   s.cfg.RequestTimeout,
		Client:    s.cfg.RobotsClient,
	}, logger)
	session := crawler.NewSession(
		crawler.SessionConfig{StartURL: s.startURL, MaxItems: s.cfg.MaxItems, MaxPages: s.cfg.MaxPages},
		s.fetcher,
		s.parser,
		s.extractor,
		policy,
		crawler.NewRateGate(s.cfg.MinInterval),
		logger,
	)

	result, crawlErr := session.Run(ctx)
	report := Report{
		Skipped:      result.Stats.FetchesSkipped,
		Invalid:      result.Stats.InvalidRecords,
		Disallowed:   result.Stats.Disallowed,
		PagesVisited: result.Stats.PagesVisited,
	}

	if crawlErr != nil && !errors.Is(crawlErr, crawler.ErrUpstreamUnavailable) {
		outcome := OutcomeFailed
		if ctx.Err() != nil || errors.Is(crawlErr, context.Canceled) || errors.Is(crawlErr, context.DeadlineExceeded) {
			outcome = OutcomeCanceled
		}
		s.finish(logger, outcome, report, started, crawlErr)
		return report, crawlErr
	}

	ingested, err := s.ingester.Ingest(ctx, result.Records, ownerID)
	report.Offered = ingested.Offered
	report.Inserted = ingested.Inserted
	if err != nil {
		s.finish(logger, OutcomeStorage, report, started, err)
		return report, err
	}
	if crawlErr != nil {
		s.finish(logger, OutcomeUpstream, report, started, crawlErr)
		return report, crawlErr
	}
	s.finish(logger, OutcomeSuccess, report, started, nil)
	return report, nil
}

func (s *Service) finish(logger *zap.Logger, outcome string, report Report, started time.Time, err error) {
	metrics.ObserveScrape(outcome)
	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Int("inserted", report.Inserted),
		zap.Int("offered", report.Offered),
		zap.Int("skipped", report.Skipped),
		zap.Int("invalid", report.Invalid),
		zap.Int("pages_visited", report.PagesVisited),
		zap.Duration("elapsed", time.Since(started)),
	}
	if err != nil {
		logger.Warn("scrape failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("scrape finished", fields...)
}
