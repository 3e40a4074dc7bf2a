// Package queue implements the shared playback queue: an ordered sequence of
// resolved tracks with cursor based current-entry semantics, selectable
// advance policies and serialized access for concurrent writers.
package queue

import (
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
)

// DefaultRestartThresholdMS is how far into a track a rewind restarts it
// instead of moving to the previous entry.
const DefaultRestartThresholdMS = 5000

// Entry is a queued track plus its transient playback state. Entries are
// appended and never mutated in place, except for the active entry's offset
// and the failed flag.
type Entry struct {
	Track      models.Track `json:"track"`
	OffsetMS   int          `json:"offset_ms"`
	Failed     bool         `json:"failed"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
}

// Options configures a Queue. Zero values fall back to defaults.
type Options struct {
	RestartThresholdMS int
	SuppressDuplicates bool
	Rand               *rand.Rand
	Logger             *log.Logger
}

// Queue is the single shared mutable object between the foreground intent
// handler and the background populator. Every operation takes the lock; the
// cursor always satisfies 0 <= cursor <= len, where len means exhausted.
//
// order maps play positions onto entry indices. It is the identity except
// under shuffle, where positions after the cursor hold a materialized random
// permutation that stays fixed until the queue is mutated.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	order   []int
	cursor  int
	mode    models.PlayMode
	state   models.PlayState

	restartThresholdMS int
	suppressDuplicates bool
	rng                *rand.Rand
	logger             *log.Logger
}

// New constructs an empty queue in linear mode.
func New(opts Options) *Queue {
	if opts.RestartThresholdMS <= 0 {
		opts.RestartThresholdMS = DefaultRestartThresholdMS
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(os.Stderr)
	}

	return &Queue{
		mode:               models.ModeLinear,
		state:              models.StateStopped,
		restartThresholdMS: opts.RestartThresholdMS,
		suppressDuplicates: opts.SuppressDuplicates,
		rng:                opts.Rand,
		logger:             opts.Logger,
	}
}

// Enqueue appends tracks at the tail and reports how many were added.
// Duplicate suppression drops tracks whose normalized title/artist/album key
// already appears in the queue.
func (q *Queue) Enqueue(tracks ...models.Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.insert(len(q.entries), tracks)
}

// EnqueueAt inserts tracks before the given natural position, clamped to
// [0, len]. Inserting at the cursor's position makes the first inserted track
// current.
func (q *Queue) EnqueueAt(pos int, tracks ...models.Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if pos > len(q.entries) {
		pos = len(q.entries)
	}
	return q.insert(pos, tracks)
}

func (q *Queue) insert(pos int, tracks []models.Track) int {
	now := time.Now()
	incoming := make([]Entry, 0, len(tracks))
	for _, t := range tracks {
		if q.suppressDuplicates && q.containsTrack(t) {
			continue
		}
		incoming = append(incoming, Entry{Track: t, EnqueuedAt: now})
	}
	if len(incoming) == 0 {
		return 0
	}

	n := len(incoming)
	q.entries = slices.Insert(q.entries, pos, incoming...)

	if q.mode == models.ModeShuffle {
		// Keep played positions stable: remap shifted indices, park the new
		// ones at the tail, then re-permute only the not-yet-played tail.
		for i, v := range q.order {
			if v >= pos {
				q.order[i] = v + n
			}
		}
		for i := 0; i < n; i++ {
			q.order = append(q.order, pos+i)
		}
		q.reshuffleTail()
	} else {
		q.order = identityOrder(len(q.entries))
		if pos < q.cursor {
			q.cursor += n
		}
	}

	q.logger.Debug("enqueued tracks", "count", n, "position", pos, "queue_len", len(q.entries))
	return n
}

func (q *Queue) containsTrack(t models.Track) bool {
	key := shared.NormalizeTrackKey(t.Title, t.Artist, t.Album)
	for _, e := range q.entries {
		if shared.NormalizeTrackKey(e.Track.Title, e.Track.Artist, e.Track.Album) == key {
			return true
		}
	}
	return false
}

// reshuffleTail permutes play positions strictly after the cursor. The
// position at the cursor is pinned so the active entry never jumps.
func (q *Queue) reshuffleTail() {
	start := q.cursor + 1
	if start >= len(q.order) {
		return
	}
	tail := q.order[start:]
	q.rng.Shuffle(len(tail), func(i, j int) {
		tail[i], tail[j] = tail[j], tail[i]
	})
}

// Current returns the active entry, or ErrQueueEmpty when the queue is empty
// or exhausted.
func (q *Queue) Current() (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor >= len(q.order) {
		return Entry{}, shared.ErrQueueEmpty
	}
	return q.entries[q.order[q.cursor]], nil
}

// Advance moves to the next entry under the active mode and returns it.
// Repeat-one re-returns the current entry with its offset reset. Linear stops
// past-the-end; repeat-all wraps to the first position; shuffle follows the
// materialized permutation. Failed entries are skipped.
func (q *Queue) Advance() (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, shared.ErrQueueEmpty
	}

	if q.mode == models.ModeRepeatOne && q.cursor < len(q.order) {
		e := &q.entries[q.order[q.cursor]]
		if !e.Failed {
			e.OffsetMS = 0
			return *e, nil
		}
	}

	return q.moveForward()
}

// Skip moves to the next entry for an explicit "next" command. It behaves
// like Advance except repeat-one does not hold the cursor in place.
func (q *Queue) Skip() (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, shared.ErrQueueEmpty
	}
	return q.moveForward()
}

func (q *Queue) moveForward() (Entry, error) {
	for hops := 0; hops <= len(q.order); hops++ {
		if q.cursor < len(q.order) {
			q.cursor++
		}
		if q.cursor == len(q.order) {
			if q.mode != models.ModeRepeatAll {
				q.state = models.StateStopped
				return Entry{}, shared.ErrQueueEmpty
			}
			q.cursor = 0
		}

		e := &q.entries[q.order[q.cursor]]
		if e.Failed {
			continue
		}
		e.OffsetMS = 0
		return *e, nil
	}

	// Every entry is failed.
	q.state = models.StateStopped
	return Entry{}, shared.ErrQueueEmpty
}

// Rewind moves back one position, clamped at the first, and resets the offset.
// When the active entry is more than the restart threshold in, the first call
// restarts it instead of moving back.
func (q *Queue) Rewind() (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, shared.ErrQueueEmpty
	}

	if q.cursor < len(q.order) {
		e := &q.entries[q.order[q.cursor]]
		if e.OffsetMS > q.restartThresholdMS {
			e.OffsetMS = 0
			return *e, nil
		}
	}

	if q.cursor > 0 {
		q.cursor--
	}
	e := &q.entries[q.order[q.cursor]]
	e.OffsetMS = 0
	return *e, nil
}

// SetOffset records the resume offset of the active entry.
func (q *Queue) SetOffset(ms int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor >= len(q.order) {
		return shared.ErrQueueEmpty
	}
	if ms < 0 {
		ms = 0
	}
	q.entries[q.order[q.cursor]].OffsetMS = ms
	return nil
}

// MarkCurrentFailed flags the active entry so advance and peek pass over it.
func (q *Queue) MarkCurrentFailed() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor >= len(q.order) {
		return shared.ErrQueueEmpty
	}
	q.entries[q.order[q.cursor]].Failed = true
	return nil
}

// SetMode switches the advance policy. Entering shuffle materializes a random
// permutation of the not-yet-played positions; leaving it maps the cursor back
// onto natural order with the active entry kept current.
func (q *Queue) SetMode(mode models.PlayMode) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if mode == q.mode {
		return
	}

	prev := q.mode
	q.mode = mode

	switch {
	case mode == models.ModeShuffle:
		q.reshuffleTail()
	case prev == models.ModeShuffle:
		if q.cursor < len(q.order) {
			q.cursor = q.order[q.cursor]
		} else {
			q.cursor = len(q.entries)
		}
		q.order = identityOrder(len(q.entries))
	}

	q.logger.Debug("playback mode changed", "from", prev.String(), "to", mode.String())
}

// Mode returns the active advance policy.
func (q *Queue) Mode() models.PlayMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode
}

// SetState records the play/pause/stopped status.
func (q *Queue) SetState(state models.PlayState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state = state
}

// State returns the play/pause/stopped status.
func (q *Queue) State() models.PlayState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Clear empties the queue and resets mode and state.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
	q.order = nil
	q.cursor = 0
	q.mode = models.ModeLinear
	q.state = models.StateStopped
}

// PeekUpcoming returns copies of up to n playable entries after the cursor in
// play order.
func (q *Queue) PeekUpcoming(n int) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, 0, max(n, 0))
	for pos := q.cursor + 1; pos < len(q.order) && len(out) < n; pos++ {
		e := q.entries[q.order[pos]]
		if e.Failed {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Position returns the cursor in play order. Position == Len means exhausted.
func (q *Queue) Position() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}

// Snapshot returns a copy of the entries in natural order plus the natural
// index of the active entry (-1 when empty or exhausted).
func (q *Queue) Snapshot() ([]Entry, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]Entry, len(q.entries))
	copy(entries, q.entries)

	current := -1
	if q.cursor < len(q.order) {
		current = q.order[q.cursor]
	}
	return entries, current
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
