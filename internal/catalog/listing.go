package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// ListingParser extracts product links and the next-page link from a
// catalogue listing page.
type ListingParser struct{}

// NewListingParser builds a ListingParser.
func NewListingParser() ListingParser {
	return ListingParser{}
}

// ParseListing implements crawler.ListingParser. Hrefs are returned as they
// appear in the markup; the walker resolves them against the listing URL.
func (ListingParser) ParseListing(body []byte) (crawler.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawler.Listing{}, fmt.Errorf("parse listing html: %w", err)
	}

	var listing crawler.Listing
	doc.Find(productLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if href = strings.TrimSpace(href); href != "" {
			listing.DetailLinks = append(listing.DetailLinks, href)
		}
	})
	if href, ok := doc.Find(nextLinkSelector).First().Attr("href"); ok {
		listing.NextLink = strings.TrimSpace(href)
	}
	return listing, nil
}
