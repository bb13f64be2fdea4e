// Package crawler implements the polite catalog crawl: the exclusion policy,
// the rate gate, the pagination walker, and the session that ties them to a
// fetcher and a record extractor.
package crawler
