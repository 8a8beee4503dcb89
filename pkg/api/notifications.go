package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/herraise/hubclient/pkg/notifications"
)

type listResponse struct {
	Notifications []notifications.Notification `json:"notifications"`
	Pagination    struct {
		CurrentPage int `json:"currentPage"`
		TotalPages  int `json:"totalPages"`
	} `json:"pagination"`
}

// ListNotifications fetches one page of history. Pages are 1-based.
func (c *Client) ListNotifications(ctx context.Context, page, limit int) (notifications.Page, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/notifications", q, nil, &resp); err != nil {
		return notifications.Page{}, err
	}

	out := notifications.Page{
		Notifications: resp.Notifications,
		CurrentPage:   resp.Pagination.CurrentPage,
		TotalPages:    resp.Pagination.TotalPages,
	}
	if out.CurrentPage == 0 {
		out.CurrentPage = page
	}
	return out, nil
}

// UnreadCount returns the server's unread count. The client derives its own
// count from the local list; this value is only used for diagnostics.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkRead marks one notification read on the server.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodPut, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

// MarkAllRead marks every notification of the user read on the server.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil, nil)
}

// PushSubscription is a push endpoint registration.
type PushSubscription struct {
	Endpoint string   `json:"endpoint"`
	Keys     PushKeys `json:"keys"`
}

type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscribe registers a push endpoint for the current user.
func (c *Client) Subscribe(ctx context.Context, sub PushSubscription) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/subscribe", nil, sub, nil)
}

// Unsubscribe removes the current user's push registration.
func (c *Client) Unsubscribe(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/unsubscribe", nil, nil, nil)
}
