package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/api"
	"github.com/herraise/hubclient/pkg/auth"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
	"github.com/herraise/hubclient/pkg/requestid"
)

type fakeBackend struct {
	mu       sync.Mutex
	auth     []string
	reqIDs   []string
	readIDs  []string
	readAll  int
	subs     []api.PushSubscription
	unsubbed int
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	b.reqIDs = append(b.reqIDs, r.Header.Get(requestid.Header))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.record(r)
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"notifications": []map[string]any{
					{"_id": "n2", "type": "forum_like", "title": "Like", "createdAt": "2026-01-02T00:00:00Z", "readStatus": false},
					{"_id": "n1", "type": "opportunity_new", "title": "New", "createdAt": 1767225600000, "readStatus": true},
				},
				"pagination": map[string]any{"currentPage": 1, "totalPages": 3},
			})
		})
		r.Get("/unread-count", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"count": 4})
		})
		r.Put("/{id}/read", func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.readIDs = append(b.readIDs, chi.URLParam(r, "id"))
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Put("/read-all", func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.readAll++
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Post("/subscribe", func(w http.ResponseWriter, r *http.Request) {
			var sub api.PushSubscription
			if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad body"})
				return
			}
			b.mu.Lock()
			b.subs = append(b.subs, sub)
			b.mu.Unlock()
			writeJSON(w, http.StatusCreated, map[string]any{"success": true})
		})
		r.Delete("/unsubscribe", func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.unsubbed++
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Post("/api/forum/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "42":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "liked": true, "likesCount": 11})
		case "expired":
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Token expired"})
		case "refused":
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Post is locked"})
		default:
			http.Error(w, "boom\ninternal", http.StatusInternalServerError)
		}
	})
	r.Post("/api/forum/comments/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	return r
}

func newTestClient(t *testing.T, opts ...api.Option) (*api.Client, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)

	opts = append([]api.Option{
		api.WithTokenSource(auth.StaticToken("tok-123")),
		api.WithLogger(logger.Discard()),
	}, opts...)
	client, err := api.New(srv.URL, opts...)
	require.NoError(t, err)
	return client, backend
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"ftp://example.com", "http://", "://bad"} {
		_, err := api.New(raw)
		assert.ErrorIs(t, err, api.ErrInvalidURL, raw)
	}
}

func TestClient_ListNotifications(t *testing.T) {
	t.Parallel()
	client, backend := newTestClient(t)

	page, err := client.ListNotifications(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, []string{"Bearer tok-123"}, backend.auth)
}

func TestClient_ListNotificationsDecodes(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": []map[string]any{
				{"_id": "n2", "type": "forum_like", "title": "Like", "createdAt": "2026-01-02T00:00:00Z", "readStatus": false},
				{"_id": "n1", "type": "opportunity_new", "title": "New", "createdAt": 1767225600000, "readStatus": true},
			},
			"pagination": map[string]any{"currentPage": 2, "totalPages": 3},
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL, api.WithLogger(logger.Discard()))
	require.NoError(t, err)

	page, err := client.ListNotifications(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, "n2", page.Notifications[0].ID)
	assert.Equal(t, notifications.TypeForumLike, page.Notifications[0].Type)
	assert.True(t, page.Notifications[1].Read)
	assert.Equal(t, 2, page.CurrentPage)
	assert.True(t, page.HasMore())
}

func TestClient_ReadState(t *testing.T) {
	t.Parallel()
	client, backend := newTestClient(t)
	ctx := context.Background()

	count, err := client.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, client.MarkRead(ctx, "abc"))
	require.NoError(t, client.MarkAllRead(ctx))
	assert.ErrorIs(t, client.MarkRead(ctx, ""), api.ErrMissingID)

	assert.Equal(t, []string{"abc"}, backend.readIDs)
	assert.Equal(t, 1, backend.readAll)
}

func TestClient_PushSubscription(t *testing.T) {
	t.Parallel()
	client, backend := newTestClient(t)
	ctx := context.Background()

	sub := api.PushSubscription{Endpoint: "https://push.example/1", Keys: api.PushKeys{P256dh: "p", Auth: "a"}}
	require.NoError(t, client.Subscribe(ctx, sub))
	require.NoError(t, client.Unsubscribe(ctx))

	assert.Equal(t, []api.PushSubscription{sub}, backend.subs)
	assert.Equal(t, 1, backend.unsubbed)
}

func TestClient_Likes(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)
	ctx := context.Background()

	t.Run("authoritative result", func(t *testing.T) {
		res, err := client.TogglePostLike(ctx, "42")
		require.NoError(t, err)
		require.True(t, res.Authoritative())
		assert.True(t, *res.Liked)
		assert.Equal(t, 11, *res.LikesCount)
	})

	t.Run("partial result", func(t *testing.T) {
		res, err := client.ToggleCommentLike(ctx, "7")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.False(t, res.Authoritative())
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := client.TogglePostLike(ctx, "expired")
		require.Error(t, err)
		assert.True(t, api.IsUnauthorized(err))
		assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))

		var apiErr *api.Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Token expired", apiErr.Message)
	})

	t.Run("success false", func(t *testing.T) {
		_, err := client.TogglePostLike(ctx, "refused")
		require.ErrorIs(t, err, api.ErrUnsuccessful)
		assert.Contains(t, err.Error(), "Post is locked")
		assert.False(t, api.IsUnauthorized(err))
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.TogglePostLike(ctx, "other")
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))
		assert.Contains(t, err.Error(), "boom internal")
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := client.TogglePostLike(ctx, "")
		assert.ErrorIs(t, err, api.ErrMissingID)
	})
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := api.New(srv.URL, api.WithTimeout(50*time.Millisecond), api.WithLogger(logger.Discard()))
	require.NoError(t, err)

	_, err = client.UnreadCount(context.Background())
	assert.ErrorIs(t, err, api.ErrTimeout)
}

func TestClient_SatisfiesPipelineInterfaces(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	var _ notifications.Syncer = client
	var _ notifications.HistorySource = client
	var _ notifications.UnreadCounter = client
}

func TestClient_RequestID(t *testing.T) {
	t.Parallel()
	client, backend := newTestClient(t)

	_, err := client.UnreadCount(context.Background())
	require.NoError(t, err)

	ctx := requestid.WithContext(context.Background(), "action-7")
	require.NoError(t, client.MarkRead(ctx, "n1"))
	require.NoError(t, client.MarkAllRead(ctx))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.reqIDs, 3)
	assert.True(t, requestid.Valid(backend.reqIDs[0]))
	assert.NotEqual(t, "action-7", backend.reqIDs[0])
	assert.Equal(t, []string{"action-7", "action-7"}, backend.reqIDs[1:])
}
