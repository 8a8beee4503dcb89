package osnotify_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/localstore"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
	"github.com/herraise/hubclient/pkg/osnotify"
)

type fakeHandle struct {
	clicked chan struct{}
	closed  atomic.Bool
}

func (h *fakeHandle) Clicked() <-chan struct{} { return h.clicked }

func (h *fakeHandle) Close() error {
	h.closed.Store(true)
	return nil
}

type fakeBackend struct {
	supported bool
	err       error

	mu      sync.Mutex
	popups  []osnotify.Popup
	handles []*fakeHandle
}

func (b *fakeBackend) Supported() bool { return b.supported }

func (b *fakeBackend) Show(_ context.Context, p osnotify.Popup) (osnotify.Handle, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := &fakeHandle{clicked: make(chan struct{})}
	b.popups = append(b.popups, p)
	b.handles = append(b.handles, h)
	return h, nil
}

func (b *fakeBackend) shown() []osnotify.Popup {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]osnotify.Popup(nil), b.popups...)
}

func (b *fakeBackend) handle(i int) *fakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handles[i]
}

func sample() notifications.Notification {
	return notifications.Notification{
		ID:      "n1",
		Type:    notifications.TypeForumLike,
		Title:   "Post Liked",
		Message: "Esi liked your post",
		Data:    notifications.Data{"postId": "p1"},
	}
}

func TestNotifier_UnsupportedIsDenied(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{supported: false}
	n := osnotify.New(backend, osnotify.WithLogger(logger.Discard()))

	assert.False(t, n.RequestPermission(context.Background()))
	assert.NoError(t, n.Deliver(context.Background(), sample()))
	assert.Empty(t, backend.shown())

	nilBackend := osnotify.New(nil)
	assert.False(t, nilBackend.RequestPermission(context.Background()))
	assert.NoError(t, nilBackend.Notify(context.Background(), sample()))
}

func TestNotifier_PromptsOncePerDevice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := localstore.NewMemoryStore()

	var prompts atomic.Int32
	prompter := func(context.Context) bool {
		prompts.Add(1)
		return false
	}

	first := osnotify.New(&fakeBackend{supported: true}, osnotify.WithStorage(storage), osnotify.WithPrompter(prompter))
	assert.False(t, first.RequestPermission(ctx))
	assert.False(t, first.RequestPermission(ctx))

	second := osnotify.New(&fakeBackend{supported: true}, osnotify.WithStorage(storage), osnotify.WithPrompter(prompter))
	_, decided := second.Permission()
	assert.False(t, decided)
	assert.False(t, second.RequestPermission(ctx))

	assert.EqualValues(t, 1, prompts.Load())

	_, err := storage.Get(ctx, localstore.KeyPermissionPrompted)
	assert.NoError(t, err)
}

func TestNotifier_DeniedSkipsPopup(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{supported: true}
	n := osnotify.New(backend, osnotify.WithPrompter(func(context.Context) bool { return false }))

	require.False(t, n.RequestPermission(context.Background()))
	assert.NoError(t, n.Deliver(context.Background(), sample()))
	assert.Empty(t, backend.shown())
}

func TestNotifier_ClickFocusesAndNavigates(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{supported: true}

	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, s)
	}

	n := osnotify.New(backend,
		osnotify.WithFocuser(osnotify.FocuserFunc(func() { record("focus") })),
		osnotify.WithNavigator(osnotify.NavigatorFunc(func(target string) { record("navigate " + target) })),
		osnotify.WithAutoClose(time.Hour),
	)
	require.True(t, n.RequestPermission(context.Background()))
	require.NoError(t, n.Notify(context.Background(), sample()))

	popups := backend.shown()
	require.Len(t, popups, 1)
	assert.Equal(t, osnotify.Popup{Title: "Post Liked", Body: "Esi liked your post", Tag: "n1"}, popups[0])

	h := backend.handle(0)
	close(h.clicked)

	require.Eventually(t, h.closed.Load, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"focus", "navigate /forum/posts/p1"}, calls)
	mu.Unlock()
	require.NoError(t, n.Close())
}

func TestNotifier_AutoCloses(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{supported: true}
	navigated := atomic.Bool{}
	n := osnotify.New(backend,
		osnotify.WithAutoClose(20*time.Millisecond),
		osnotify.WithNavigator(osnotify.NavigatorFunc(func(string) { navigated.Store(true) })),
	)
	require.True(t, n.RequestPermission(context.Background()))
	require.NoError(t, n.Deliver(context.Background(), sample()))

	h := backend.handle(0)
	require.Eventually(t, h.closed.Load, time.Second, 5*time.Millisecond)
	assert.False(t, navigated.Load())
}

func TestNotifier_CloseDismissesOpenPopups(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{supported: true}
	n := osnotify.New(backend, osnotify.WithAutoClose(time.Hour))
	require.True(t, n.RequestPermission(context.Background()))
	require.NoError(t, n.Deliver(context.Background(), sample()))

	require.NoError(t, n.Close())
	assert.True(t, backend.handle(0).closed.Load())
	require.NoError(t, n.Close())

	require.NoError(t, n.Deliver(context.Background(), sample()))
	assert.Len(t, backend.shown(), 1)
}

func TestNotifier_FailureNeverSuppressesInAppDelivery(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{supported: true, err: errors.New("dbus unavailable")}
	n := osnotify.New(backend, osnotify.WithLogger(logger.Discard()))
	require.True(t, n.RequestPermission(context.Background()))

	var inApp atomic.Int32
	multi := notifications.NewMultiDeliverer([]notifications.Deliverer{
		n,
		notifications.DelivererFunc(func(context.Context, notifications.Notification) error {
			inApp.Add(1)
			return nil
		}),
	}, notifications.WithMultiDelivererLogger(logger.Discard()))

	assert.Error(t, n.Deliver(context.Background(), sample()))
	assert.NoError(t, multi.Deliver(context.Background(), sample()))
	assert.EqualValues(t, 1, inApp.Load())
}
