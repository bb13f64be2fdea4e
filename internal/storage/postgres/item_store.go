// Package postgres provides the Postgres-backed item store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/catalog-crawler/internal/store"
)

const (
	defaultTable = "scraped_items"
	// Five parameters per row keeps a full batch well under the 65535 limit.
	defaultBatchSize = 1000
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for items.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of *pgxpool.Pool the store needs; pgxmock satisfies it.
type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
	Ping(context.Context) error
	Close()
}

// ItemStore persists items into a Postgres table with a UNIQUE (owner_id, url)
// constraint.
type ItemStore struct {
	pool      pool
	table     string
	batchSize int
}

// NewItemStore connects a pool using cfg.
func NewItemStore(ctx context.Context, cfg Config) (*ItemStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewItemStoreWithPool(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewItemStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewItemStoreWithPool(p pool, table string) (*ItemStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ItemStore{pool: p, table: table, batchSize: defaultBatchSize}, nil
}

// Close releases the underlying pool resources.
func (s *ItemStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks connectivity.
func (s *ItemStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Migrate creates the items table and its owner index when missing.
func (s *ItemStore) Migrate(ctx context.Context) error {
	ddl := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id UUID PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT %[1]s_owner_url_key UNIQUE (owner_id, url)
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_owner_created_idx ON %[1]s (owner_id, created_at DESC)`, s.table),
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

// InsertItems writes items with ON CONFLICT (owner_id, url) DO NOTHING and
// returns the number of rows actually inserted. Batches larger than one
// statement run inside a single transaction.
func (s *ItemStore) InsertItems(ctx context.Context, items []store.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if len(items) <= s.batchSize {
		tag, err := s.pool.Exec(ctx, s.insertSQL(len(items)), insertArgs(items)...)
		if err != nil {
			return 0, fmt.Errorf("insert items: %w", err)
		}
		return int(tag.RowsAffected()), nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert items: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for start := 0; start < len(items); start += s.batchSize {
		chunk := items[start:min(start+s.batchSize, len(items))]
		tag, err := tx.Exec(ctx, s.insertSQL(len(chunk)), insertArgs(chunk)...)
		if err != nil {
			return 0, fmt.Errorf("insert items: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("insert items: commit tx: %w", err)
	}
	return inserted, nil
}

func (s *ItemStore) insertSQL(rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (id, owner_id, title, description, url) VALUES ", s.table)
	for i := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
	}
	b.WriteString(" ON CONFLICT (owner_id, url) DO NOTHING")
	return b.String()
}

func insertArgs(items []store.Item) []any {
	args := make([]any, 0, len(items)*5)
	for _, item := range items {
		args = append(args, item.ID, item.OwnerID, item.Title, item.Description, item.URL)
	}
	return args
}

// GetItem loads one item owned by ownerID.
func (s *ItemStore) GetItem(ctx context.Context, ownerID, id string) (store.Item, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, title, description, url, created_at
FROM %s
WHERE owner_id = $1 AND id = $2`, s.table)

	var item store.Item
	err := s.pool.QueryRow(ctx, query, ownerID, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.URL, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Item{}, store.ErrNotFound
		}
		return store.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns the owner's items, newest first.
func (s *ItemStore) ListItems(ctx context.Context, ownerID string) ([]store.Item, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, title, description, url, created_at
FROM %s
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC`, s.table)

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []store.Item{}
	for rows.Next() {
		var item store.Item
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.URL, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// DeleteItem removes one item owned by ownerID.
func (s *ItemStore) DeleteItem(ctx context.Context, ownerID, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1 AND id = $2`, s.table)
	tag, err := s.pool.Exec(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
