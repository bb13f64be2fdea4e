package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// SessionConfig bounds one crawl session.
type SessionConfig struct {
	// StartURL is the first listing page.
	StartURL string
	// MaxItems caps accepted records; <= 0 means no cap.
	MaxItems int
	// MaxPages caps listing pages; <= 0 means no cap.
	MaxPages int
}

// Session runs one sequential crawl: listing pages are walked, and every
// detail page passes the exclusion policy and the rate gate before it is
// fetched and extracted. A session owns its policy and gate.
type Session struct {
	cfg       SessionConfig
	fetcher   Fetcher
	parser    ListingParser
	extractor Extractor
	policy    ExclusionPolicy
	gate      Gate
	logger    *zap.Logger
}

// NewSession wires a Session. A nil policy allows everything and a nil gate
// does not pace.
func NewSession(
	cfg SessionConfig,
	fetcher Fetcher,
	parser ListingParser,
	extractor Extractor,
	policy ExclusionPolicy,
	gate Gate,
	logger *zap.Logger,
) *Session {
	if policy == nil {
		policy = allowAllPolicy{}
	}
	if gate == nil {
		gate = NewRateGate(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:       cfg,
		fetcher:   fetcher,
		parser:    parser,
		extractor: extractor,
		policy:    policy,
		gate:      gate,
		logger:    logger,
	}
}

// Run crawls until pagination ends, a cap is reached, the upstream fails, or
// ctx is done. The records extracted so far are always returned, also
// alongside a non-nil error. Failures confined to one detail page are
// logged and skipped.
func (s *Session) Run(ctx context.Context) (SessionResult, error) {
	var result SessionResult
	counting := &countingFetcher{next: s.fetcher, visits: &result.Stats.PagesVisited}
	walker := NewWalker(counting, s.parser, s.logger)

	var runErr error
	for detailURL, err := range walker.Walk(ctx, s.cfg.StartURL, s.cfg.MaxPages) {
		if err != nil {
			runErr = err
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("crawl canceled: %w", err)
			break
		}
		record, ok, err := s.visitDetail(ctx, detailURL, &result.Stats)
		if err != nil {
			runErr = fmt.Errorf("crawl interrupted: %w", err)
			break
		}
		if !ok {
			continue
		}
		result.Records = append(result.Records, record)
		result.Stats.RecordsAccepted++
		if s.cfg.MaxItems > 0 && len(result.Records) >= s.cfg.MaxItems {
			s.logger.Debug("item cap reached", zap.Int("max_items", s.cfg.MaxItems))
			break
		}
	}

	fields := []zap.Field{
		zap.Int("records", len(result.Records)),
		zap.Int("pages_visited", result.Stats.PagesVisited),
		zap.Int("disallowed", result.Stats.Disallowed),
		zap.Int("fetches_skipped", result.Stats.FetchesSkipped),
		zap.Int("invalid_records", result.Stats.InvalidRecords),
	}
	if runErr != nil {
		s.logger.Warn("crawl session ended early", append(fields, zap.Error(runErr))...)
		return result, runErr
	}
	s.logger.Info("crawl session finished", fields...)
	return result, nil
}

// visitDetail reports ok=false for a page that was skipped. A non-nil error
// means the session itself cannot continue.
func (s *Session) visitDetail(ctx context.Context, detailURL string, stats *SessionStats) (CrawlRecord, bool, error) {
	if !s.policy.Allowed(detailURL) {
		stats.Disallowed++
		metrics.ObserveSkip("disallowed")
		s.logger.Info("detail page skipped",
			zap.String("url", detailURL), zap.Error(ErrDetailFetchSkipped), zap.String("reason", "disallowed"))
		return CrawlRecord{}, false, nil
	}
	if err := s.gate.Wait(ctx); err != nil {
		return CrawlRecord{}, false, err
	}

	page, err := s.fetcher.Fetch(ctx, detailURL)
	stats.DetailsFetched++
	if err != nil {
		if ctx.Err() != nil {
			return CrawlRecord{}, false, ctx.Err()
		}
		stats.FetchesSkipped++
		metrics.ObservePage(string(PageKindDetail), "error", 0)
		metrics.ObserveSkip("fetch-failed")
		s.logger.Warn("detail page skipped",
			zap.String("url", detailURL), zap.Error(fmt.Errorf("%w: %w", ErrDetailFetchSkipped, err)))
		return CrawlRecord{}, false, nil
	}
	metrics.ObservePage(string(PageKindDetail), "ok", len(page.Body))

	record, err := s.extractor.Extract(page.Body, detailURL)
	if err != nil {
		stats.InvalidRecords++
		reason := "extract-failed"
		var invalid *InvalidRecordError
		if errors.As(err, &invalid) {
			reason = invalid.Reason
		}
		metrics.ObserveSkip(reason)
		s.logger.Warn("invalid record; skipping",
			zap.String("url", detailURL), zap.String("reason", reason), zap.Error(err))
		return CrawlRecord{}, false, nil
	}
	return record, true, nil
}

// countingFetcher counts listing fetches for the session stats.
type countingFetcher struct {
	next   Fetcher
	visits *int
}

func (c *countingFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	*c.visits++
	page, err := c.next.Fetch(ctx, url)
	if err != nil {
		return Page{}, fmt.Errorf("listing: %w", err)
	}
	return page, nil
}
