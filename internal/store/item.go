package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound signals that the requested item does not exist for the owner.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicateID signals an insert whose ID is already taken. Unlike an
	// (owner, url) conflict it is not absorbed, and the batch is rejected.
	ErrDuplicateID = errors.New("duplicate item id")
)

// Item is one persisted catalog record scoped to an owner.
type Item struct {
	// ID is a UUIDv7 assigned when the item is first presented for insert.
	ID string `json:"id"`
	// OwnerID partitions items; the same URL may exist once per owner.
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// URL is the normalized source URL and the natural key within an owner.
	URL string `json:"url"`
	// CreatedAt is assigned by the store on insert.
	CreatedAt time.Time `json:"created_at"`
}

// NewItem builds an Item for insertion. CreatedAt is left for the store.
func NewItem(id, ownerID, title, description, url string) Item {
	return Item{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		URL:         url,
	}
}

// ItemStore persists items with (OwnerID, URL) uniqueness.
type ItemStore interface {
	// InsertItems writes the batch in one conflict-skipping operation and
	// returns how many rows were actually inserted. Rows whose (owner, url)
	// already exists are skipped without error.
	InsertItems(ctx context.Context, items []Item) (int, error)
	// GetItem loads one item or returns ErrNotFound.
	GetItem(ctx context.Context, ownerID, id string) (Item, error)
	// ListItems returns the owner's items, newest first.
	ListItems(ctx context.Context, ownerID string) ([]Item, error)
	// DeleteItem removes one item or returns ErrNotFound.
	DeleteItem(ctx context.Context, ownerID, id string) error
	// Close releases underlying resources.
	Close()
}

// Migrator is implemented by stores that can bootstrap their schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Clock supplies creation timestamps to stores that assign them in Go.
type Clock interface {
	Now() time.Time
}
