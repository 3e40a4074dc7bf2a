package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/shared"
)

// MatchStatus distinguishes resolution outcomes that are answers from ones
// that are faults. NotFound and AllSourcesUnreachable are values the caller
// renders, not errors it unwraps.
type MatchStatus int

const (
	StatusFound MatchStatus = iota
	StatusNotFound
	StatusAllSourcesUnreachable
)

func (s MatchStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusAllSourcesUnreachable:
		return "all_sources_unreachable"
	default:
		return "unknown"
	}
}

// PlayRequest is a parsed play intent.
type PlayRequest struct {
	Kind     models.QueryKind
	Query    string
	Mode     models.PlayMode
	Append   bool
	Progress chan<- ProgressUpdate
}

// LibraryRequest plays a library slice (random picks or starred tracks)
// with no search phase.
type LibraryRequest struct {
	Kind     models.CollectionKind
	Mode     models.PlayMode
	Count    int
	Progress chan<- ProgressUpdate
}

// PlayResult reports what a play intent did.
type PlayResult struct {
	Status    MatchStatus    `json:"status"`
	Match     *Match         `json:"match,omitempty"`
	Head      []models.Track `json:"head"`
	JobID     string         `json:"job_id,omitempty"`
	Remainder int            `json:"remainder"`
}

// SearchResult is the ranked-candidate surface for search intents.
type SearchResult struct {
	Status  MatchStatus `json:"status"`
	Matches []Match     `json:"matches"`
}

// Engine is the intent-level boundary between command surfaces and the
// resolution pipeline.
type Engine interface {
	ResolveAndEnqueue(ctx context.Context, req PlayRequest) (*PlayResult, error)
	EnqueueLibrary(ctx context.Context, req LibraryRequest) (*PlayResult, error)
	Search(ctx context.Context, kind models.QueryKind, term string) (*SearchResult, error)
	FinishCurrent(ctx context.Context) (queue.Entry, error)
	SkipCurrent(ctx context.Context) (queue.Entry, error)
	StarCurrent(ctx context.Context, starred bool) error
	Stop()
	Queue() *queue.Queue
}

// SessionEngine wires the resolver, ranker, queue and populator supervisor
// into the operations the command layer calls.
type SessionEngine struct {
	resolver   *Resolver
	ranker     *Ranker
	queue      *queue.Queue
	supervisor *Supervisor
	cfg        shared.PlaybackConfig
	logger     *log.Logger
}

var _ Engine = (*SessionEngine)(nil)

func NewSessionEngine(resolver *Resolver, ranker *Ranker, q *queue.Queue, supervisor *Supervisor, cfg shared.PlaybackConfig, logger *log.Logger) *SessionEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionEngine{
		resolver:   resolver,
		ranker:     ranker,
		queue:      q,
		supervisor: supervisor,
		cfg:        cfg,
		logger:     logger,
	}
}

// ResolveAndEnqueue turns a play intent into a playing session: search every
// backend, rank the candidates, enqueue a small head synchronously and hand
// the rest to the background populator so the call returns under the intent
// deadline.
func (e *SessionEngine) ResolveAndEnqueue(ctx context.Context, req PlayRequest) (*PlayResult, error) {
	e.supervisor.Stop()

	sendProgress(req.Progress, searchBackendsUpdate(req.Query))
	tracks, err := e.resolver.Search(ctx, req.Kind, req.Query)
	if err != nil {
		if errors.Is(err, shared.ErrAllSourcesUnreachable) {
			e.logger.Warn("every backend unreachable", "kind", req.Kind.String(), "query", req.Query)
			return &PlayResult{Status: StatusAllSourcesUnreachable, Head: []models.Track{}}, nil
		}
		return nil, err
	}

	ranked := e.ranker.Rank(req.Query, tracks)
	sendProgress(req.Progress, rankCandidatesUpdate(len(ranked)))
	if len(ranked) == 0 {
		e.logger.Info("no acceptable match", "kind", req.Kind.String(), "query", req.Query)
		return &PlayResult{Status: StatusNotFound, Head: []models.Track{}}, nil
	}

	best := ranked[0]
	ids, err := e.collectTrackIDs(ctx, req.Kind, ranked)
	if err != nil {
		return nil, err
	}

	spec := sessionSpec{
		source: best.Track.Source,
		mode:   req.Mode,
		append: req.Append,
		match:  &best,
		ids:    ids,
	}
	if req.Kind == models.QueryTrack {
		spec.seed = &best.Track
	}
	return e.startSession(ctx, req.Progress, spec), nil
}

// EnqueueLibrary fills the session from a library collection with no search
// term, asking each enabled backend in configured order until one serves it.
func (e *SessionEngine) EnqueueLibrary(ctx context.Context, req LibraryRequest) (*PlayResult, error) {
	if req.Kind != models.CollectionRandom && req.Kind != models.CollectionStarred {
		return nil, fmt.Errorf("%w: %s is not a library collection", shared.ErrInvalidArgument, req.Kind)
	}

	e.supervisor.Stop()

	count := req.Count
	if count <= 0 {
		count = e.cfg.MinTracks
	}

	backends := e.resolver.Backends()
	if len(backends) == 0 {
		return nil, shared.ErrNoBackends
	}

	failed := 0
	for _, name := range backends {
		ids, err := e.resolver.TrackIDs(ctx, name, models.Collection{Kind: req.Kind, Limit: count})
		if err != nil {
			failed++
			e.logger.Warn("library expansion failed", "source", name, "collection", req.Kind.String(), "error", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}
		return e.startSession(ctx, req.Progress, sessionSpec{source: name, mode: req.Mode, ids: ids}), nil
	}

	if failed == len(backends) {
		return &PlayResult{Status: StatusAllSourcesUnreachable, Head: []models.Track{}}, nil
	}
	return &PlayResult{Status: StatusNotFound, Head: []models.Track{}}, nil
}

// Search returns the full ranked candidate list without touching the queue.
func (e *SessionEngine) Search(ctx context.Context, kind models.QueryKind, term string) (*SearchResult, error) {
	tracks, err := e.resolver.Search(ctx, kind, term)
	if err != nil {
		if errors.Is(err, shared.ErrAllSourcesUnreachable) {
			return &SearchResult{Status: StatusAllSourcesUnreachable, Matches: []Match{}}, nil
		}
		return nil, err
	}

	matches := e.ranker.Rank(term, tracks)
	if len(matches) == 0 {
		return &SearchResult{Status: StatusNotFound, Matches: []Match{}}, nil
	}
	return &SearchResult{Status: StatusFound, Matches: matches}, nil
}

// FinishCurrent records the active entry as played on its backend and moves
// to the next one. Scrobble failures are logged and swallowed; playback
// bookkeeping never stalls the session.
func (e *SessionEngine) FinishCurrent(ctx context.Context) (queue.Entry, error) {
	entry, err := e.queue.Current()
	if err != nil {
		return queue.Entry{}, err
	}

	if svc, berr := e.resolver.Backend(entry.Track.Source); berr == nil {
		if serr := svc.Scrobble(ctx, entry.Track.ID); serr != nil {
			e.logger.Debug("scrobble failed", "source", entry.Track.Source, "track_id", entry.Track.ID, "error", serr)
		}
	}

	return e.queue.Advance()
}

// SkipCurrent moves past the active entry on user request, advancing even
// under repeat-one.
func (e *SessionEngine) SkipCurrent(ctx context.Context) (queue.Entry, error) {
	return e.queue.Skip()
}

// StarCurrent stars or unstars the active entry on its own backend.
func (e *SessionEngine) StarCurrent(ctx context.Context, starred bool) error {
	entry, err := e.queue.Current()
	if err != nil {
		return err
	}

	svc, err := e.resolver.Backend(entry.Track.Source)
	if err != nil {
		return err
	}
	return svc.SetStarred(ctx, entry.Track.ID, starred)
}

// Stop cancels background population and parks the queue.
func (e *SessionEngine) Stop() {
	e.supervisor.Stop()
	e.queue.SetState(models.StateStopped)
}

// Queue exposes the live queue for direct playback bookkeeping (rewind,
// offsets, failure marks, snapshots).
func (e *SessionEngine) Queue() *queue.Queue {
	return e.queue
}

// collectTrackIDs expands the winning match into the ordered identifier list
// for the session. Track queries reuse the ranked same-backend matches and
// optionally top up with random picks; collection queries expand on the
// winning backend.
func (e *SessionEngine) collectTrackIDs(ctx context.Context, kind models.QueryKind, ranked []Match) ([]string, error) {
	best := ranked[0]

	if kind == models.QueryTrack {
		ids := []string{best.Track.ID}
		for _, m := range ranked[1:] {
			if m.Track.Source != best.Track.Source || m.Track.ID == best.Track.ID {
				continue
			}
			ids = append(ids, m.Track.ID)
		}

		if e.cfg.FillRandom && len(ids) < e.cfg.MinTracks {
			col := models.Collection{Kind: models.CollectionRandom, Limit: e.cfg.MinTracks - len(ids)}
			random, err := e.resolver.TrackIDs(ctx, best.Track.Source, col)
			if err != nil {
				e.logger.Warn("random fill failed", "source", best.Track.Source, "error", err)
			} else {
				ids = append(ids, random...)
			}
		}
		return ids, nil
	}

	colKind, ok := models.CollectionFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: cannot expand %s queries", shared.ErrInvalidArgument, kind)
	}

	col := models.Collection{Kind: colKind, ID: best.Track.ID}
	if colKind == models.CollectionGenre {
		col.Limit = e.cfg.MinTracks
	}
	return e.resolver.TrackIDs(ctx, best.Track.Source, col)
}

type sessionSpec struct {
	source string
	mode   models.PlayMode
	append bool
	seed   *models.Track // pre-resolved winner reused when its own ID comes up
	match  *Match
	ids    []string
}

// startSession replaces (or extends) the queue contents: the head slice is
// resolved inline and the remainder handed to the supervisor.
func (e *SessionEngine) startSession(ctx context.Context, progress chan<- ProgressUpdate, spec sessionSpec) *PlayResult {
	if !spec.append {
		e.queue.Clear()
	}
	e.queue.SetMode(spec.mode)

	head, remainder := e.enqueueHead(ctx, progress, spec.source, spec.seed, spec.ids)
	if len(head) > 0 {
		e.queue.SetState(models.StatePlaying)
	}

	result := &PlayResult{Status: StatusFound, Match: spec.match, Head: head, Remainder: len(remainder)}
	if len(remainder) > 0 {
		job := e.supervisor.Replace(JobSpec{Source: spec.source, TrackIDs: remainder})
		result.JobID = job.ID()
	}

	e.logger.Info("session started",
		"source", spec.source,
		"mode", spec.mode.String(),
		"head", len(head),
		"remainder", len(remainder))
	return result
}

// enqueueHead resolves and enqueues the first tracks of the batch
// synchronously. Failures and suppressed duplicates shrink the head rather
// than block it.
func (e *SessionEngine) enqueueHead(ctx context.Context, progress chan<- ProgressUpdate, source string, seed *models.Track, ids []string) ([]models.Track, []string) {
	want := e.cfg.HeadSlice
	if want <= 0 {
		want = 2
	}

	head := make([]models.Track, 0, want)
	consumed := 0
	for _, id := range ids {
		if len(head) >= want {
			break
		}
		consumed++

		track := seed
		if track == nil || track.ID != id {
			resolved, err := e.resolver.ResolveByID(ctx, source, id)
			if err != nil {
				e.logger.Warn("head resolution failed", "source", source, "track_id", id, "error", err)
				continue
			}
			track = resolved
		}

		if e.queue.Enqueue(*track) > 0 {
			head = append(head, *track)
			sendProgress(progress, enqueueHeadUpdate(len(head), want, track))
		}
	}
	return head, ids[consumed:]
}
