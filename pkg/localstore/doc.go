// Package localstore persists small pieces of client state between runs.
//
// Three Storage implementations are provided:
//
//   - FileStore keeps one file per key inside a directory and replaces files
//     atomically, which is the default for a desktop client.
//   - RedisStore keeps keys in Redis under a prefix, useful when several
//     client processes on one machine should share state.
//   - MemoryStore keeps values in process memory only. The notification store
//     falls back to it when durable storage is unavailable.
//
// GetJSON and SetJSON wrap any Storage with JSON encoding. A value that cannot
// be decoded is reported as ErrCorrupted so callers can discard it.
package localstore
