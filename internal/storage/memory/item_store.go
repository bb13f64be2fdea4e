// Package memory provides an in-memory item store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JakeFAU/catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/catalog-crawler/internal/store"
)

type entry struct {
	item store.Item
	seq  uint64
}

// ItemStore keeps items per owner behind a single mutex, which makes each
// InsertItems call atomic with respect to the (owner, url) check.
type ItemStore struct {
	mu    sync.RWMutex
	clock store.Clock
	seq   uint64
	ids   map[string]struct{}
	byID  map[string]map[string]*entry
	byURL map[string]map[string]*entry
}

// NewItemStore constructs an ItemStore. A nil clock uses the system clock.
func NewItemStore(clock store.Clock) *ItemStore {
	if clock == nil {
		clock = system.New()
	}
	return &ItemStore{
		clock: clock,
		ids:   make(map[string]struct{}),
		byID:  make(map[string]map[string]*entry),
		byURL: make(map[string]map[string]*entry),
	}
}

// InsertItems stores every item whose (owner, url) is not yet present. An ID
// already in use, by any owner, fails the whole batch with
// store.ErrDuplicateID and nothing is written.
func (s *ItemStore) InsertItems(_ context.Context, items []store.Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ owner, url string }
	batchURLs := make(map[key]struct{}, len(items))
	batchIDs := make(map[string]struct{}, len(items))
	accepted := make([]store.Item, 0, len(items))
	for _, item := range items {
		k := key{item.OwnerID, item.URL}
		if _, exists := s.byURL[item.OwnerID][item.URL]; exists {
			continue
		}
		if _, dup := batchURLs[k]; dup {
			continue
		}
		_, taken := s.ids[item.ID]
		_, dupID := batchIDs[item.ID]
		if taken || dupID {
			return 0, fmt.Errorf("memory: insert item %s: %w", item.ID, store.ErrDuplicateID)
		}
		batchURLs[k] = struct{}{}
		batchIDs[item.ID] = struct{}{}
		accepted = append(accepted, item)
	}

	now := s.clock.Now()
	for _, item := range accepted {
		urls := s.byURL[item.OwnerID]
		if urls == nil {
			urls = make(map[string]*entry)
			s.byURL[item.OwnerID] = urls
			s.byID[item.OwnerID] = make(map[string]*entry)
		}
		s.seq++
		item.CreatedAt = now
		e := &entry{item: item, seq: s.seq}
		urls[item.URL] = e
		s.byID[item.OwnerID][item.ID] = e
		s.ids[item.ID] = struct{}{}
	}
	return len(accepted), nil
}

// GetItem fetches an item owned by ownerID.
func (s *ItemStore) GetItem(_ context.Context, ownerID, id string) (store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[ownerID][id]
	if !ok {
		return store.Item{}, store.ErrNotFound
	}
	return e.item, nil
}

// ListItems returns a copy of the owner's items, newest first.
func (s *ItemStore) ListItems(_ context.Context, ownerID string) ([]store.Item, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.byID[ownerID]))
	for _, e := range s.byID[ownerID] {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})
	out := make([]store.Item, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out, nil
}

// DeleteItem removes an item owned by ownerID.
func (s *ItemStore) DeleteItem(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[ownerID][id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.byID[ownerID], id)
	delete(s.byURL[ownerID], e.item.URL)
	delete(s.ids, id)
	return nil
}

// Close is a no-op.
func (s *ItemStore) Close() {}

// Migrate is a no-op; the store has no schema.
func (s *ItemStore) Migrate(context.Context) error {
	return nil
}
