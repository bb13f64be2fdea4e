package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-crawler/internal/store"
)

var itemColumns = []string{"id", "owner_id", "title", "description", "url", "created_at"}

func newMockStore(t *testing.T) (*ItemStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewItemStoreWithPool(mock, "")
	require.NoError(t, err)
	return s, mock
}

func TestNewItemStoreWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewItemStoreWithPool(mock, "items; DROP TABLE x")
	require.Error(t, err)
	_, err = NewItemStoreWithPool(nil, "items")
	require.Error(t, err)
}

func TestInsertItemsSkipsConflicts(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	items := []store.Item{
		store.NewItem("01", "alice", "A", "first", "https://b.example/a"),
		store.NewItem("02", "alice", "B", "", "https://b.example/b"),
	}

	mock.ExpectExec(`INSERT INTO scraped_items \(id, owner_id, title, description, url\) VALUES .+ ON CONFLICT \(owner_id, url\) DO NOTHING`).
		WithArgs("01", "alice", "A", "first", "https://b.example/a", "02", "alice", "B", "", "https://b.example/b").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := s.InsertItems(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItemsEmptyBatchSkipsDatabase(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	n, err := s.InsertItems(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItemsChunksInsideTransaction(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	s.batchSize = 2
	items := []store.Item{
		store.NewItem("01", "alice", "A", "", "https://b.example/a"),
		store.NewItem("02", "alice", "B", "", "https://b.example/b"),
		store.NewItem("03", "alice", "C", "", "https://b.example/c"),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scraped_items").
		WithArgs("01", "alice", "A", "", "https://b.example/a", "02", "alice", "B", "", "https://b.example/b").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec("INSERT INTO scraped_items").
		WithArgs("03", "alice", "C", "", "https://b.example/c").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	n, err := s.InsertItems(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItemsReportsFailure(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO scraped_items").WillReturnError(errors.New("connection reset"))

	_, err := s.InsertItems(context.Background(), []store.Item{store.NewItem("01", "alice", "A", "", "https://b.example/a")})
	require.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItem(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, owner_id, title, description, url, created_at").
		WithArgs("alice", "01").
		WillReturnRows(pgxmock.NewRows(itemColumns).AddRow("01", "alice", "A", "desc", "https://b.example/a", at))

	item, err := s.GetItem(context.Background(), "alice", "01")
	require.NoError(t, err)
	require.Equal(t, store.Item{
		ID: "01", OwnerID: "alice", Title: "A", Description: "desc", URL: "https://b.example/a", CreatedAt: at,
	}, item)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id").
		WithArgs("bob", "01").
		WillReturnRows(pgxmock.NewRows(itemColumns))

	_, err := s.GetItem(context.Background(), "bob", "01")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListItemsNewestFirst(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE owner_id = \$1\s+ORDER BY created_at DESC, id DESC`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(itemColumns).
			AddRow("02", "alice", "B", "", "https://b.example/b", at.Add(time.Minute)).
			AddRow("01", "alice", "A", "", "https://b.example/a", at))

	items, err := s.ListItems(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "02", items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListItemsEmptyIsNotNil(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id").WithArgs("nobody").WillReturnRows(pgxmock.NewRows(itemColumns))

	items, err := s.ListItems(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestDeleteItem(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM scraped_items").
		WithArgs("alice", "01").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM scraped_items").
		WithArgs("bob", "01").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteItem(context.Background(), "alice", "01"))
	require.ErrorIs(t, s.DeleteItem(context.Background(), "bob", "01"), store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateCreatesTableAndIndex(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scraped_items`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS scraped_items_owner_created_idx`).WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
