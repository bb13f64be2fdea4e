// Package api serves the owner-scoped item routes and the scrape trigger.
//
// Every /v1 route requires the X-Owner-ID header; items are only ever
// visible to the owner that ingested them.
package api
