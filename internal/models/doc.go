// Package models defines domain entities and persistence interfaces for the segue playback engine.
//
// The package contains two categories of types:
//
// 1. Domain values passed between the resolver, ranker and queue:
//   - [Track] : A normalized, backend-tagged playable unit; immutable once constructed
//   - [Candidate] : A raw backend search hit prior to normalization; transient
//   - [Collection] : A reference to a track-bearing container (album, playlist, ...) on one backend
//   - [QueryKind], [PlayMode], [PlayState], [CollectionKind] : Enumerations with parse/String support
//
// 2. Persistent entities backing the local track cache:
//   - [PersistedTrack] : A cached resolved track keyed by (source, source_id)
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps,
// validation, and soft delete support. The [Repository] interface defines standard CRUD
// operations for database access.
package models
