package crawler

import "context"

// Fetcher retrieves a single URL. Implementations must return a *FetchError
// for transport failures and non-2xx responses and must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// ListingParser pulls detail and pagination links out of a listing page.
type ListingParser interface {
	ParseListing(body []byte) (Listing, error)
}

// Extractor turns a detail page into a CrawlRecord. A page that cannot
// yield a valid record returns an error matching ErrInvalidRecord.
type Extractor interface {
	Extract(body []byte, detailURL string) (CrawlRecord, error)
}

// ExclusionPolicy answers whether a URL may be fetched.
type ExclusionPolicy interface {
	Allowed(rawURL string) bool
}

// Gate paces outbound requests.
type Gate interface {
	Wait(ctx context.Context) error
}
