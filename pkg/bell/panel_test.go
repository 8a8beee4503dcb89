package bell_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/bell"
	"github.com/herraise/hubclient/pkg/localstore"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeSource serves three pages of two records each, newest first.
type fakeSource struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func record(i int) notifications.Notification {
	return notifications.Notification{
		ID:        fmt.Sprintf("h%d", i),
		Type:      notifications.TypeForumComment,
		Title:     fmt.Sprintf("history %d", i),
		CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		Data:      notifications.Data{"postId": fmt.Sprintf("p%d", i)},
	}
}

func (s *fakeSource) ListNotifications(_ context.Context, page, limit int) (notifications.Page, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return notifications.Page{}, errors.New("backend down")
	}
	first := (page-1)*limit + 1
	out := notifications.Page{CurrentPage: page, TotalPages: 3}
	for i := first; i < first+limit; i++ {
		out.Notifications = append(out.Notifications, record(i))
	}
	return out, nil
}

type fakeSyncer struct {
	mu      sync.Mutex
	read    []string
	readAll int
}

func (s *fakeSyncer) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read = append(s.read, id)
	return nil
}

func (s *fakeSyncer) MarkAllRead(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readAll++
	return nil
}

func (s *fakeSyncer) marked() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.read...), s.readAll
}

type fixture struct {
	store    *notifications.Store
	manager  *notifications.Manager
	source   *fakeSource
	syncer   *fakeSyncer
	panel    *bell.Panel
	navigate chan string
}

func newFixture(t *testing.T, opts ...bell.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		source:   &fakeSource{},
		syncer:   &fakeSyncer{},
		navigate: make(chan string, 4),
	}
	f.store = notifications.NewStore(ctx, localstore.NewMemoryStore(),
		notifications.WithStoreLogger(logger.Discard()))
	f.manager = notifications.NewManager(f.store,
		notifications.WithSyncer(f.syncer),
		notifications.WithManagerLogger(logger.Discard()))

	panel, err := bell.New(f.manager, f.source, append([]bell.Option{
		bell.WithPageSize(2),
		bell.WithSyncer(f.syncer),
		bell.WithNavigator(func(target string) { f.navigate <- target }),
		bell.WithLogger(logger.Discard()),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(panel.Close)
	f.panel = panel
	return f
}

func ids(items []notifications.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestBadge(t *testing.T) {
	t.Parallel()
	tests := map[int]string{0: "", -1: "", 1: "1", 99: "99", 100: "99+", 1500: "99+"}
	for unread, want := range tests {
		assert.Equal(t, want, bell.Badge(unread), "unread=%d", unread)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()
	_, err := bell.New(nil, &fakeSource{})
	assert.ErrorIs(t, err, bell.ErrMissingDependency)
}

func TestPanel_OpenFetchesFirstPageOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.panel.Open(ctx))
	assert.True(t, f.panel.IsOpen())
	assert.Equal(t, []string{"h1", "h2"}, ids(f.panel.Items()))
	assert.Equal(t, 2, f.panel.UnreadCount())
	assert.Equal(t, "2", f.panel.Badge())

	f.panel.Hide()
	require.NoError(t, f.panel.Open(ctx))
	assert.EqualValues(t, 1, f.source.calls.Load(), "reopening re-displays cached results")
}

func TestPanel_LoadMoreAppendsOlderPages(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.panel.LoadMore(ctx), bell.ErrNotLoaded)
	assert.False(t, f.panel.HasMore())

	require.NoError(t, f.panel.Open(ctx))
	assert.True(t, f.panel.HasMore())

	require.NoError(t, f.panel.LoadMore(ctx))
	require.NoError(t, f.panel.LoadMore(ctx))
	assert.False(t, f.panel.HasMore())
	require.NoError(t, f.panel.LoadMore(ctx))

	assert.Equal(t, []string{"h1", "h2", "h3", "h4", "h5", "h6"}, ids(f.panel.Items()))
	assert.EqualValues(t, 3, f.source.calls.Load())
	assert.Equal(t, 2, f.store.Len(), "older pages stay out of the capped store")
}

func TestPanel_LoadMoreStopsAtPageCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		pages int
		want  []string
	}{
		{"one page", 1, []string{"h1", "h2"}},
		{"two pages", 2, []string{"h1", "h2", "h3", "h4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, bell.WithPageCache(tt.pages))

			require.NoError(t, f.panel.Open(ctx))
			for range 3 {
				require.NoError(t, f.panel.LoadMore(ctx))
			}

			assert.False(t, f.panel.HasMore())
			assert.Equal(t, tt.want, ids(f.panel.Items()), "loaded pages stay listed without gaps")
			assert.EqualValues(t, tt.pages, f.source.calls.Load())
		})
	}
}

func TestPanel_LiveRecordsComeFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.panel.Open(ctx))
	_, err := f.manager.Ingest(ctx, notifications.Notification{ID: "live", Title: "now", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	assert.Equal(t, []string{"live", "h1", "h2"}, ids(f.panel.Items()))
	assert.Equal(t, 3, f.panel.UnreadCount())
}

func TestPanel_OpenFailureIsRetried(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.source.fail.Store(true)
	err := f.panel.Open(ctx)
	require.ErrorIs(t, err, notifications.ErrHistoryUnavailable)
	assert.True(t, f.panel.IsOpen())
	assert.Empty(t, f.panel.Items())

	f.source.fail.Store(false)
	require.NoError(t, f.panel.Open(ctx))
	assert.Len(t, f.panel.Items(), 2)
}

func TestPanel_ClickMarksReadAndNavigates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.panel.Open(ctx))
	require.NoError(t, f.panel.LoadMore(ctx))

	item, err := f.panel.Click(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, item.Read)
	assert.Equal(t, "/forum/posts/p1", <-f.navigate)
	assert.Equal(t, 1, f.panel.UnreadCount())

	// An older record outside the store is marked in the panel and synced.
	_, err = f.panel.Click(ctx, "h3")
	require.NoError(t, err)
	assert.Equal(t, "/forum/posts/p3", <-f.navigate)
	for _, n := range f.panel.Items() {
		if n.ID == "h3" {
			assert.True(t, n.Read)
		}
	}
	require.Eventually(t, func() bool {
		read, _ := f.syncer.marked()
		return assert.ObjectsAreEqual([]string{"h1", "h3"}, read) ||
			assert.ObjectsAreEqual([]string{"h3", "h1"}, read)
	}, time.Second, 5*time.Millisecond)

	_, err = f.panel.Click(ctx, "missing")
	assert.ErrorIs(t, err, bell.ErrNotFound)
}

func TestPanel_MarkAllRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.panel.Open(ctx))
	require.NoError(t, f.panel.LoadMore(ctx))

	f.panel.MarkAllRead(ctx)

	assert.Zero(t, f.panel.UnreadCount())
	assert.Empty(t, f.panel.Badge())
	for _, n := range f.panel.Items() {
		assert.True(t, n.Read, n.ID)
	}
	require.Eventually(t, func() bool {
		_, all := f.syncer.marked()
		return all == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPanel_OnChangeAndClose(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var changes atomic.Int32
	unsubscribe := f.panel.OnChange(func() { changes.Add(1) })

	_, err := f.manager.Ingest(ctx, notifications.Notification{ID: "n1"})
	require.NoError(t, err)
	assert.Positive(t, changes.Load())

	unsubscribe()
	before := changes.Load()
	_, err = f.manager.Ingest(ctx, notifications.Notification{ID: "n2"})
	require.NoError(t, err)
	assert.Equal(t, before, changes.Load())

	subscribers := f.store.Subscribers()
	f.panel.Close()
	assert.Equal(t, subscribers-1, f.store.Subscribers())
	assert.False(t, f.panel.IsOpen())
}
