// Package repositories implements SQLite persistence for the resolved-track cache.
//
// The cache keeps one row per (source, source_id) pair ever resolved, so repeat
// lookups during queue population skip the backend round trip. Records support
// soft deletes via deleted_at timestamps and are excluded from queries once
// deleted.
//
// Key Implementations:
//   - [TrackRepository] : CRUD over cached tracks with source-scoped lookups
//   - [TrackCacheAdapter] : the thin read/write facade the resolver consumes
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs
// and creation timestamps. The [NextSequence] function atomically increments
// per-table sequence counters in dedicated sequence tables.
package repositories
