package crawler

import "time"

// CrawlRecord is a structured record extracted from one detail page.
// It only lives for the duration of a single scrape and is never persisted
// directly.
type CrawlRecord struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url"`
}

// Page is the raw result of a successful fetch.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// PageKind distinguishes listing pages from detail pages in logs and metrics.
type PageKind string

// Page kinds.
const (
	PageKindListing PageKind = "listing"
	PageKindDetail  PageKind = "detail"
	PageKindRobots  PageKind = "robots"
)

// Listing holds what a listing page links to.
// Links are raw href values exactly as they appear in the markup.
type Listing struct {
	DetailLinks []string
	NextLink    string
}

// SessionStats counts what happened during one crawl session.
type SessionStats struct {
	PagesVisited    int `json:"pages_visited"`
	DetailsFetched  int `json:"details_fetched"`
	Disallowed      int `json:"disallowed"`
	FetchesSkipped  int `json:"fetches_skipped"`
	InvalidRecords  int `json:"invalid_records"`
	RecordsAccepted int `json:"records_accepted"`
}

// SessionResult is returned by Session.Run.
type SessionResult struct {
	Records []CrawlRecord
	Stats   SessionStats
}
