// Package logger builds *slog.Logger instances for the hub client and keeps
// attribute naming consistent across packages.
//
// New creates a logger from functional options. The handler is either a text
// or a JSON slog handler, wrapped by a decorator that pulls attributes out of
// context.Context on every record:
//
//	log := logger.New(
//	    logger.WithEnvironment("development", "hubclient"),
//	    logger.WithContextValue("session_id", sessionKey{}),
//	)
//	log.InfoContext(ctx, "notification ingested",
//	    logger.NotificationID(n.ID),
//	    logger.EventKind("forum:new_answer"),
//	)
//
// Helpers such as Error and UserID return an empty slog.Attr for nil input,
// so they can be passed unconditionally.
package logger
