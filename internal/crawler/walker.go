package crawler

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Walker drives pagination across listing pages and yields detail URLs.
type Walker struct {
	fetcher Fetcher
	parser  ListingParser
	logger  *zap.Logger
}

// NewWalker builds a Walker.
func NewWalker(fetcher Fetcher, parser ListingParser, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{fetcher: fetcher, parser: parser, logger: logger}
}

// Walk lazily yields absolute detail URLs starting at startURL, following
// "next" links until none remains or pageLimit listing pages were visited
// (pageLimit <= 0 means no limit).
//
// The sequence ends with a non-nil error when a listing page cannot be
// fetched (wrapping ErrUpstreamUnavailable) or ctx is done. Listing pages are
// never revisited and detail URLs are yielded at most once per walk. Each
// call starts a new walk.
func (w *Walker) Walk(ctx context.Context, startURL string, pageLimit int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		visitedPages := make(map[string]struct{})
		emitted := make(map[string]struct{})

		pageURL, err := NormalizeURL(startURL)
		if err != nil {
			yield("", fmt.Errorf("start url: %w", err))
			return
		}

		for pages := 0; pageURL != ""; pages++ {
			if pageLimit > 0 && pages >= pageLimit {
				w.logger.Debug("listing page limit reached", zap.Int("pages", pages))
				return
			}
			if _, seen := visitedPages[pageURL]; seen {
				w.logger.Warn("pagination loop detected; stopping walk", zap.String("url", pageURL))
				return
			}
			visitedPages[pageURL] = struct{}{}

			if err := ctx.Err(); err != nil {
				yield("", fmt.Errorf("walk canceled: %w", err))
				return
			}

			listing, baseURL, err := w.fetchListing(ctx, pageURL)
			if err != nil {
				yield("", err)
				return
			}
			if baseURL != pageURL {
				visitedPages[baseURL] = struct{}{}
			}

			for _, href := range listing.DetailLinks {
				detailURL, err := ResolveLink(baseURL, href)
				if err != nil {
					w.logger.Debug("skipping unresolvable detail link",
						zap.String("page", pageURL), zap.String("href", href), zap.Error(err))
					continue
				}
				if _, dup := emitted[detailURL]; dup {
					continue
				}
				emitted[detailURL] = struct{}{}
				if !yield(detailURL, nil) {
					return
				}
			}

			pageURL = w.nextPage(baseURL, listing.NextLink)
		}
	}
}

// fetchListing returns the parsed listing and the URL its links resolve
// against: the final URL after redirects when the fetcher reports one.
func (w *Walker) fetchListing(ctx context.Context, pageURL string) (Listing, string, error) {
	page, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		metrics.ObservePage(string(PageKindListing), "error", 0)
		if ctx.Err() != nil {
			return Listing{}, "", fmt.Errorf("walk canceled: %w", ctx.Err())
		}
		w.logger.Error("listing page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return Listing{}, "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	metrics.ObservePage(string(PageKindListing), "ok", len(page.Body))

	baseURL := pageURL
	if page.URL != "" {
		if final, err := NormalizeURL(page.URL); err == nil {
			baseURL = final
		}
	}

	listing, err := w.parser.ParseListing(page.Body)
	if err != nil {
		w.logger.Error("listing page parse failed", zap.String("url", pageURL), zap.Error(err))
		return Listing{}, "", fmt.Errorf("%w: parse listing %s: %w", ErrUpstreamUnavailable, pageURL, err)
	}
	w.logger.Debug("listing page parsed",
		zap.String("url", pageURL),
		zap.Int("detail_links", len(listing.DetailLinks)),
		zap.Bool("has_next", listing.NextLink != ""),
	)
	return listing, baseURL, nil
}

func (w *Walker) nextPage(pageURL, href string) string {
	if href == "" {
		return ""
	}
	next, err := ResolveLink(pageURL, href)
	if err != nil {
		w.logger.Warn("unresolvable next link; stopping walk",
			zap.String("page", pageURL), zap.String("href", href), zap.Error(err))
		return ""
	}
	return next
}
