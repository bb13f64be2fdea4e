package catalog

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// Extractor builds a CrawlRecord from a product detail page.
type Extractor struct{}

// NewExtractor builds an Extractor.
func NewExtractor() Extractor {
	return Extractor{}
}

// Extract implements crawler.Extractor. The title is required; a missing
// description leaves the field empty. Malformed markup never panics, it
// simply finds nothing.
func (Extractor) Extract(body []byte, detailURL string) (crawler.CrawlRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawler.CrawlRecord{}, &crawler.InvalidRecordError{URL: detailURL, Reason: crawler.ReasonMissingTitle}
	}

	title := collapseSpace(doc.Find(titleSelector).First().Text())
	if title == "" {
		return crawler.CrawlRecord{}, &crawler.InvalidRecordError{URL: detailURL, Reason: crawler.ReasonMissingTitle}
	}

	return crawler.CrawlRecord{
		Title:       title,
		Description: collapseSpace(doc.Find(descriptionSelector).First().Text()),
		SourceURL:   detailURL,
	}, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
