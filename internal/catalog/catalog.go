// Package catalog holds the site-specific knowledge for the books catalog:
// where the crawl starts and which selectors locate links, titles, and
// descriptions.
package catalog

// Crawl target defaults.
const (
	DefaultRootURL   = "https://books.toscrape.com/"
	DefaultStartPath = "catalogue/page-1.html"
)

// Markup selectors.
const (
	productLinkSelector = "article.product_pod h3 a"
	nextLinkSelector    = "li.next > a"
	titleSelector       = "div.product_main h1"
	descriptionSelector = "#product_description ~ p"
)
