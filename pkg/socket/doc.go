// Package socket maintains the single live push connection of a signed-in
// session and turns server events into notifications.
//
// Frames are JSON text messages of the form
//
//	{"event": "forum:post_liked", "data": {"postId": "p1", "likerName": "Esi"}}
//
// Recognized kinds are decoded by Decode into notifications.Notification
// values with a kind-specific title and message and handed to an Ingester
// (normally *notifications.Manager). Unknown kinds and malformed frames are
// logged and skipped.
//
// Connect is idempotent: while a connection is live or being re-established
// it returns nil without dialing. After a drop the client retries with the
// configured Backoff a bounded number of times and then settles in
// StateDisconnected until Connect is called again.
//
//	client, err := socket.New("http://localhost:5000", "/ws", manager,
//	    socket.WithReconnectAttempts(5),
//	    socket.WithReconnectDelay(time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx, token); err != nil {
//	    log.Warn("live updates unavailable", "error", err)
//	}
//	defer client.Disconnect()
package socket
