// Package requestid tags outgoing backend calls with a correlation id.
//
// The API client calls Ensure on every request: an id already in the context
// is reused (so one user action spanning several calls shares it), otherwise
// a new UUID is generated. The id is sent in the X-Request-ID header and,
// through LoggerExtractor, appears as request_id in every log record written
// with that context:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	ctx := requestid.WithContext(ctx, requestid.New())
//	_, err := client.MarkRead(ctx, id) // sends X-Request-ID, logs request_id
package requestid
