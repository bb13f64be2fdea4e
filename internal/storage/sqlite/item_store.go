// Package sqlite provides an embedded SQLite item store on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/catalog-crawler/internal/store"
)

// Fixed-width UTC layout so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const batchSize = 500

const migration = `
CREATE TABLE IF NOT EXISTS scraped_items (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (owner_id, url)
);

CREATE INDEX IF NOT EXISTS idx_scraped_items_owner_created ON scraped_items(owner_id, created_at);
`

// ItemStore persists items in a SQLite database file.
type ItemStore struct {
	db    *sql.DB
	clock store.Clock
}

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// NewItemStore opens the database at dsn in WAL mode. Writers take the lock
// at BEGIN and wait up to the busy timeout for it. A nil clock uses the
// system clock.
func NewItemStore(dsn string, clock store.Clock) (*ItemStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	if clock == nil {
		clock = system.New()
	}
	db, err := sql.Open("sqlite", connDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	return &ItemStore{db: db, clock: clock}, nil
}

// connDSN appends the connection pragmas and immediate transaction locking
// to dsn, keeping any query parameters already present.
func connDSN(dsn string) string {
	params := url.Values{}
	for _, pragma := range connPragmas {
		params.Add("_pragma", pragma)
	}
	params.Set("_txlock", "immediate")
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + params.Encode()
}

// Migrate creates the items table when missing.
func (s *ItemStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *ItemStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *ItemStore) Close() {
	_ = s.db.Close()
}

// InsertItems writes the batch with INSERT OR IGNORE inside one transaction
// and returns the number of rows inserted.
func (s *ItemStore) InsertItems(ctx context.Context, items []store.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	createdAt := s.clock.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for start := 0; start < len(items); start += batchSize {
		chunk := items[start:min(start+batchSize, len(items))]
		query, args := insertStatement(chunk, createdAt)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert items: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlite: rows affected: %w", err)
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

func insertStatement(items []store.Item, createdAt string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT OR IGNORE INTO scraped_items (id, owner_id, title, description, url, created_at) VALUES ")
	args := make([]any, 0, len(items)*6)
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, item.ID, item.OwnerID, item.Title, item.Description, item.URL, createdAt)
	}
	return b.String(), args
}

// GetItem loads one item owned by ownerID.
func (s *ItemStore) GetItem(ctx context.Context, ownerID, id string) (store.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, url, created_at FROM scraped_items WHERE owner_id = ? AND id = ?`,
		ownerID, id,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Item{}, store.ErrNotFound
		}
		return store.Item{}, fmt.Errorf("sqlite: get item %s: %w", id, err)
	}
	return item, nil
}

// ListItems returns the owner's items, newest first.
func (s *ItemStore) ListItems(ctx context.Context, ownerID string) ([]store.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description, url, created_at FROM scraped_items
		 WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list items: %w", err)
	}
	defer rows.Close()

	items := []store.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list items: %w", err)
	}
	return items, nil
}

// DeleteItem removes one item owned by ownerID.
func (s *ItemStore) DeleteItem(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scraped_items WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (store.Item, error) {
	var (
		item      store.Item
		createdAt string
	)
	if err := sc.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.URL, &createdAt); err != nil {
		return store.Item{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return store.Item{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	item.CreatedAt = t
	return item, nil
}
