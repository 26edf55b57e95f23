// Package store provides local persistence for the session handshake.
//
// Every backend implements domain.KeyValueStore: a flat map of small strings
// holding the current session id, the last redirect origin and per-verifier
// recovery shares. All methods are safe for concurrent use.
//
// Backends:
//   - FileStore: one JSON file under the configured home directory, sealed
//     with scrypt and ChaCha20-Poly1305 when a passphrase is set
//   - SQLiteStore: a "kv" table in a SQLite database
//   - MemoryStore: process-local, for tests and one-shot tools
//
// FileStore writes go through a temp file and rename, so a crash never
// leaves a truncated map behind.
package store
