// Package store defines the persistence contract for scraped items.
// Implementations live in internal/storage; this package must not import
// database drivers or concrete clients.
package store
