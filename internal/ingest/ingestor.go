// Package ingest turns crawl records into owner-scoped items and writes them
// through a single conflict-skipping store operation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
	"github.com/JakeFAU/catalog-crawler/internal/store"
)

var (
	// ErrStorageUnavailable wraps any failure reported by the item store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrOwnerRequired is returned when the owner id is blank.
	ErrOwnerRequired = errors.New("owner id is required")
)

// IDGenerator mints item IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Result reports how many records were offered and how many became new items.
type Result struct {
	Offered  int `json:"offered"`
	Inserted int `json:"inserted"`
}

// Ingestor persists a batch of records for one owner.
type Ingestor struct {
	store  store.ItemStore
	ids    IDGenerator
	logger *zap.Logger
}

// New builds an Ingestor.
func New(itemStore store.ItemStore, ids IDGenerator, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{store: itemStore, ids: ids, logger: logger}
}

// Ingest writes records for ownerID. Records sharing a URL collapse to the
// first occurrence; rows that already exist for the owner are skipped by the
// store and not counted.
func (i *Ingestor) Ingest(ctx context.Context, records []crawler.CrawlRecord, ownerID string) (Result, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Result{}, ErrOwnerRequired
	}
	result := Result{Offered: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	items := make([]store.Item, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.SourceURL]; dup {
			continue
		}
		seen[rec.SourceURL] = struct{}{}
		id, err := i.ids.NewID()
		if err != nil {
			return result, fmt.Errorf("assign item id: %w", err)
		}
		items = append(items, store.NewItem(id, ownerID, rec.Title, rec.Description, rec.SourceURL))
	}

	inserted, err := i.store.InsertItems(ctx, items)
	if err != nil {
		i.logger.Error("insert items failed",
			zap.String("owner_id", ownerID),
			zap.Int("offered", result.Offered),
			zap.Error(err),
		)
		return result, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	result.Inserted = inserted
	metrics.ObserveIngest(result.Offered, result.Inserted)

	i.logger.Info("items ingested",
		zap.String("owner_id", ownerID),
		zap.Int("offered", result.Offered),
		zap.Int("inserted", result.Inserted),
	)
	return result, nil
}
