// Package api is the REST client for the hub backend.
//
// It covers the notification endpoints (history, unread count, read state,
// push subscription) and the forum like toggles. The client satisfies the
// notifications.Syncer, notifications.HistorySource and
// notifications.UnreadCounter interfaces as well as likes.Liker, so it can be
// handed directly to those packages.
//
//	client, err := api.New("http://localhost:5000",
//	    api.WithTokenSource(holder),
//	    api.WithTimeout(15*time.Second),
//	)
//	page, err := client.ListNotifications(ctx, 1, 20)
//
// Non-2xx responses are returned as *Error. errors.Is(err, ErrUnauthorized)
// matches 401 and 403, which callers turn into a "log in again" message.
// No request is retried automatically.
package api
