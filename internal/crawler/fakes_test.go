package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// stubFetcher serves canned bodies keyed by URL.
type stubFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	fail   map[string]error
	// final maps a requested URL to the URL reported after redirects.
	final  map[string]string
	calls  []string
	before func(url string)
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string]string{}, fail: map[string]error{}, final: map[string]string{}}
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	before := f.before
	f.mu.Unlock()
	if before != nil {
		before(url)
	}
	if err := ctx.Err(); err != nil {
		return Page{}, NewFetchError(url, 0, err)
	}
	if err, ok := f.fail[url]; ok {
		return Page{}, NewFetchError(url, 0, err)
	}
	served := url
	if final, ok := f.final[url]; ok {
		served = final
	}
	body, ok := f.pages[served]
	if !ok {
		return Page{}, NewFetchError(url, 404, errors.New("not found"))
	}
	return Page{URL: served, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *stubFetcher) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// lineParser understands bodies made of "detail <href>" and "next <href>" lines.
type lineParser struct{}

func (lineParser) ParseListing(body []byte) (Listing, error) {
	var listing Listing
	for _, line := range strings.Split(string(body), "\n") {
		kind, href, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		switch kind {
		case "detail":
			listing.DetailLinks = append(listing.DetailLinks, href)
		case "next":
			listing.NextLink = href
		}
	}
	return listing, nil
}

// titleExtractor reads "title <text>" and "desc <text>" lines.
type titleExtractor struct{}

func (titleExtractor) Extract(body []byte, detailURL string) (CrawlRecord, error) {
	record := CrawlRecord{SourceURL: detailURL}
	for _, line := range strings.Split(string(body), "\n") {
		kind, text, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch kind {
		case "title":
			record.Title = text
		case "desc":
			record.Description = text
		}
	}
	if record.Title == "" {
		return CrawlRecord{}, &InvalidRecordError{URL: detailURL, Reason: ReasonMissingTitle}
	}
	return record, nil
}

type denyPolicy struct {
	denied map[string]bool
}

func (p denyPolicy) Allowed(rawURL string) bool {
	return !p.denied[rawURL]
}

type countingGate struct {
	waits int
	err   error
}

func (g *countingGate) Wait(context.Context) error {
	g.waits++
	return g.err
}
