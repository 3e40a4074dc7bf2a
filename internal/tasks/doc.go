// Package tasks orchestrates track resolution and queue population across
// media backends with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface, implemented by [SessionEngine], defines the
// intent-facing operations:
//
//  1. [SessionEngine.ResolveAndEnqueue] : Full voice-intent resolution
//     - Fans the query out to every enabled backend
//     - Ranks and deduplicates candidates against the spoken term
//     - Enqueues a small head slice synchronously, under the intent deadline
//     - Hands the remaining identifiers to a background populator
//
//  2. [SessionEngine.Search] : Ranked cross-backend lookup
//     - Returns the deduplicated candidate list with scores
//     - Distinguishes "nothing matched" from "every backend failed"
//
//  3. [SessionEngine.FinishCurrent] / [SessionEngine.SkipCurrent] /
//     [SessionEngine.StarCurrent] : Playback progression
//     - Scrobbles, advances, skips and stars through the originating backend
//
// # Background Population
//
// The [Supervisor] owns the single live [Job]. Replace cancels and fully
// joins any prior job before starting the next one, so no two jobs ever
// append to the queue concurrently. Cancellation is cooperative and checked
// between identifier resolutions.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default to
// prevent blocking.
//
// # Track Caching
//
// The optional [TrackCacher] interface enables resolved-track persistence so
// repeat populator runs skip the backend round trip. Cache write failures are
// logged and ignored; they never fail a resolution.
package tasks
