package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-crawler/internal/store"
)

type stepClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(time.Second)
	return c.at
}

func newTestStore(t *testing.T) (*ItemStore, *stepClock) {
	t.Helper()
	clock := &stepClock{at: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	s, err := NewItemStore(filepath.Join(t.TempDir(), "items.db"), clock)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(context.Background()))
	return s, clock
}

func item(id, owner, url string) store.Item {
	return store.NewItem(id, owner, "Title "+id, "about "+id, url)
}

func TestNewItemStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewItemStore("", nil)
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestPartialBatchWithDuplicate(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertItems(ctx, []store.Item{item("seed", "alice", "https://b.example/3")})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.InsertItems(ctx, []store.Item{
		item("1", "alice", "https://b.example/1"),
		item("2", "alice", "https://b.example/2"),
		item("3", "alice", "https://b.example/3"),
		item("4", "alice", "https://b.example/4"),
		item("5", "alice", "https://b.example/5"),
	})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	items, err := s.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 5)
}

func TestReinsertIsNoOp(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	batch := []store.Item{item("1", "alice", "https://b.example/1"), item("2", "alice", "https://b.example/2")}

	n, err := s.InsertItems(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	again := []store.Item{item("1b", "alice", "https://b.example/1"), item("2b", "alice", "https://b.example/2")}
	n, err = s.InsertItems(ctx, again)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = s.GetItem(ctx, "alice", "1b")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestOwnerIsolation(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertItems(ctx, []store.Item{
		item("a", "alice", "https://b.example/1"),
		item("b", "bob", "https://b.example/1"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.GetItem(ctx, "alice", "a")
	require.NoError(t, err)
	require.Equal(t, "alice", got.OwnerID)
	require.Equal(t, "about a", got.Description)

	_, err = s.GetItem(ctx, "alice", "b")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.DeleteItem(ctx, "alice", "b"), store.ErrNotFound)

	bobs, err := s.ListItems(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	require.Equal(t, "b", bobs[0].ID)
}

func TestListNewestFirstAndDelete(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(t)
	ctx := context.Background()
	for i := range 3 {
		_, err := s.InsertItems(ctx, []store.Item{item(fmt.Sprint(i), "alice", fmt.Sprintf("https://b.example/%d", i))})
		require.NoError(t, err)
	}

	items, err := s.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"2", "1", "0"}, []string{items[0].ID, items[1].ID, items[2].ID})
	require.True(t, items[0].CreatedAt.After(items[2].CreatedAt))
	require.False(t, items[0].CreatedAt.After(clock.at))

	require.NoError(t, s.DeleteItem(ctx, "alice", "1"))
	items, err = s.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)

	empty, err := s.ListItems(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestLargeBatchSpansStatements(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	items := make([]store.Item, batchSize+10)
	for i := range items {
		items[i] = item(fmt.Sprintf("id-%04d", i), "alice", fmt.Sprintf("https://b.example/%d", i))
	}
	n, err := s.InsertItems(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, len(items), n)
}

func TestConnDSNKeepsExistingQuery(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		"catalog.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29&_txlock=immediate",
		connDSN("catalog.db"))
	require.Contains(t, connDSN("file:catalog.db?mode=rwc"), "file:catalog.db?mode=rwc&_pragma=")
}

func TestConcurrentWritersWaitForLock(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	const (
		writers = 16
		rounds  = 5
		rows    = 200
	)
	var wg sync.WaitGroup
	errs := make(chan error, writers*rounds)
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner := fmt.Sprintf("owner-%d", w)
			for r := range rounds {
				batch := make([]store.Item, rows)
				for i := range batch {
					batch[i] = item(fmt.Sprintf("%s-%d-%d", owner, r, i), owner, fmt.Sprintf("https://b.example/%d/%d", r, i))
				}
				// Every writer also offers the shared URL for alice.
				batch = append(batch, item(fmt.Sprintf("%s-%d-shared", owner, r), "alice", "https://b.example/shared"))
				if _, err := s.InsertItems(ctx, batch); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for w := range writers {
		items, err := s.ListItems(ctx, fmt.Sprintf("owner-%d", w))
		require.NoError(t, err)
		require.Len(t, items, rounds*rows)
	}
	shared, err := s.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, shared, 1)
}
