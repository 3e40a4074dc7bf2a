package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/services"
	"github.com/desertthunder/segue/internal/shared"
	tu "github.com/desertthunder/segue/internal/testing"
)

func newTestEngine(cfg shared.PlaybackConfig, svcs ...services.Service) *SessionEngine {
	logger := testLogger()
	resolver := NewResolver(svcs, nil, logger)
	ranker := NewRanker(cfg.BackendPriority, cfg.PreferHighBitrate)
	q := queue.New(queue.Options{SuppressDuplicates: cfg.SuppressDuplicates, Logger: logger})
	populator := NewPopulator(resolver, q, cfg.ResolveRate, nil, logger)
	return NewSessionEngine(resolver, ranker, q, NewSupervisor(populator, logger), cfg, logger)
}

// drainPopulation blocks until the engine's background job, if any, finishes.
func drainPopulation(t *testing.T, e *SessionEngine) {
	t.Helper()
	if job := e.supervisor.Live(); job != nil {
		waitDone(t, job)
	}
}

func searchReturning(candidates ...models.Candidate) func(context.Context, models.QueryKind, string) ([]models.Candidate, error) {
	return func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
		return candidates, nil
	}
}

func TestSessionEnginePlay(t *testing.T) {
	ctx := context.Background()

	t.Run("starts a playing session from a track query", func(t *testing.T) {
		var resolved []string
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc: searchReturning(
				candidateFor("s1", "Bohemian Rhapsody", "Queen"),
				candidateFor("s2", "Bohemian Rhapsody (Live at Wembley)", "Queen"),
			),
			TrackByIDFunc: func(ctx context.Context, id string) (*models.Track, error) {
				resolved = append(resolved, id)
				return &models.Track{ID: id, Title: "Track " + id, Source: "subsonic"}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, svc)
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Bohemian Rhapsody"})
		if err != nil {
			t.Fatalf("ResolveAndEnqueue returned error: %v", err)
		}

		if result.Status != StatusFound {
			t.Fatalf("status = %s, want %s", result.Status, StatusFound)
		}
		if result.Match == nil || result.Match.Track.ID != "s1" {
			t.Fatalf("match = %+v, want the exact title s1", result.Match)
		}
		if len(result.Head) != 2 || result.Remainder != 0 || result.JobID != "" {
			t.Errorf("head/remainder/job = %d/%d/%q, want 2/0 with no job", len(result.Head), result.Remainder, result.JobID)
		}

		q := engine.Queue()
		if q.Len() != 2 {
			t.Errorf("queue length = %d, want 2", q.Len())
		}
		if q.State() != models.StatePlaying {
			t.Errorf("state = %s, want playing", q.State())
		}
		current, err := q.Current()
		if err != nil || current.Track.ID != "s1" {
			t.Errorf("current = %+v (%v), want s1", current.Track, err)
		}
		// The winner is enqueued from the search result, not re-fetched.
		if len(resolved) != 1 || resolved[0] != "s2" {
			t.Errorf("lookups = %v, want only s2", resolved)
		}
	})

	t.Run("hands the collection tail to the populator", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc:  searchReturning(models.Candidate{Kind: models.QueryAlbum, ID: "al1", Meta: map[string]any{"title": "Greatest Hits", "artist": "Queen"}}),
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				if col.Kind != models.CollectionAlbum || col.ID != "al1" {
					t.Errorf("expansion = %+v, want the winning album", col)
				}
				return []string{"t1", "t2", "t3", "t4", "t5"}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, svc)
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryAlbum, Query: "Greatest Hits"})
		if err != nil {
			t.Fatalf("ResolveAndEnqueue returned error: %v", err)
		}

		if len(result.Head) != 2 || result.Remainder != 3 {
			t.Errorf("head/remainder = %d/%d, want 2/3", len(result.Head), result.Remainder)
		}
		if result.JobID == "" {
			t.Error("expected a background job for the tail")
		}

		drainPopulation(t, engine)
		titles := queueTitles(engine.Queue())
		want := []string{"Track t1", "Track t2", "Track t3", "Track t4", "Track t5"}
		if len(titles) != len(want) {
			t.Fatalf("queue = %v, want all five album tracks", titles)
		}
		for i := range want {
			if titles[i] != want[i] {
				t.Errorf("entry %d = %s, want %s", i, titles[i], want[i])
			}
		}
	})

	t.Run("reports an unmatchable query as not found", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc:  searchReturning(candidateFor("s1", "Smoke on the Water", "Deep Purple")),
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, svc)
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Qeen"})
		if err != nil {
			t.Fatalf("a miss is a status, not an error: %v", err)
		}
		if result.Status != StatusNotFound {
			t.Errorf("status = %s, want %s", result.Status, StatusNotFound)
		}
		if engine.Queue().Len() != 0 {
			t.Errorf("queue length = %d, want untouched", engine.Queue().Len())
		}
	})

	t.Run("reports a full outage distinctly from a miss", func(t *testing.T) {
		fail := func(name string) *tu.MockService {
			return &tu.MockService{
				ServiceName: name,
				SearchFunc: func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
					return nil, fmt.Errorf("%w: connection refused", shared.ErrSourceUnreachable)
				},
			}
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, fail("subsonic"), fail("plex"))
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Queen"})
		if err != nil {
			t.Fatalf("an outage is a status, not an error: %v", err)
		}
		if result.Status != StatusAllSourcesUnreachable {
			t.Errorf("status = %s, want %s", result.Status, StatusAllSourcesUnreachable)
		}
	})

	t.Run("falls back to the healthy backend", func(t *testing.T) {
		down := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc: func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
				return nil, fmt.Errorf("%w: connection refused", shared.ErrSourceUnreachable)
			},
		}
		up := &tu.MockService{
			ServiceName: "plex",
			SearchFunc:  searchReturning(candidateFor("p1", "Queen", "Queen")),
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, down, up)
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Queen"})
		if err != nil {
			t.Fatalf("ResolveAndEnqueue returned error: %v", err)
		}
		if result.Status != StatusFound {
			t.Fatalf("status = %s, want %s", result.Status, StatusFound)
		}
		if result.Match.Track.Source != "plex" {
			t.Errorf("match source = %s, want the healthy plex", result.Match.Track.Source)
		}
	})

	t.Run("appends to the live queue when asked", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc:  searchReturning(candidateFor("s1", "Bohemian Rhapsody", "Queen")),
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, svc)
		engine.Queue().Enqueue(models.Track{ID: "keep", Title: "Keeper", Artist: "A", Source: "subsonic"})

		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Bohemian Rhapsody", Append: true})
		if err != nil {
			t.Fatalf("ResolveAndEnqueue returned error: %v", err)
		}
		if result.Status != StatusFound {
			t.Fatalf("status = %s, want %s", result.Status, StatusFound)
		}

		q := engine.Queue()
		if q.Len() != 2 {
			t.Fatalf("queue length = %d, want the old entry kept", q.Len())
		}
		current, err := q.Current()
		if err != nil || current.Track.ID != "keep" {
			t.Errorf("current = %+v (%v), want the pre-existing entry", current.Track, err)
		}
	})

	t.Run("replaces the queue by default", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc: func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
				if term == "First" {
					return []models.Candidate{candidateFor("f1", "First", "A")}, nil
				}
				return []models.Candidate{candidateFor("g1", "Second", "B")}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2}, svc)
		if _, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "First"}); err != nil {
			t.Fatalf("first session: %v", err)
		}
		if _, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Second"}); err != nil {
			t.Fatalf("second session: %v", err)
		}

		titles := queueTitles(engine.Queue())
		if len(titles) != 1 || titles[0] != "Second" {
			t.Fatalf("queue = %v, want only the second session", titles)
		}
	})

	t.Run("tops up a short track session with random picks", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc:  searchReturning(candidateFor("s1", "Bohemian Rhapsody", "Queen")),
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				if col.Kind != models.CollectionRandom || col.Limit != 4 {
					t.Errorf("fill request = %+v, want 4 random picks", col)
				}
				return []string{"r1", "r2", "r3", "r4"}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2, MinTracks: 5, FillRandom: true}, svc)
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryTrack, Query: "Bohemian Rhapsody"})
		if err != nil {
			t.Fatalf("ResolveAndEnqueue returned error: %v", err)
		}
		if len(result.Head) != 2 || result.Remainder != 3 {
			t.Errorf("head/remainder = %d/%d, want 2/3", len(result.Head), result.Remainder)
		}

		drainPopulation(t, engine)
		if got := engine.Queue().Len(); got != 5 {
			t.Errorf("queue length = %d, want the session minimum", got)
		}
	})

	t.Run("caps genre expansion at the session minimum", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc:  searchReturning(models.Candidate{Kind: models.QueryGenre, ID: "Rock", Meta: map[string]any{"title": "Rock"}}),
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				if col.Kind != models.CollectionGenre || col.ID != "Rock" || col.Limit != 3 {
					t.Errorf("expansion = %+v, want the genre capped at 3", col)
				}
				return []string{"g1", "g2", "g3"}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2, MinTracks: 3}, svc)
		result, err := engine.ResolveAndEnqueue(ctx, PlayRequest{Kind: models.QueryGenre, Query: "Rock"})
		if err != nil {
			t.Fatalf("ResolveAndEnqueue returned error: %v", err)
		}
		if result.Status != StatusFound {
			t.Fatalf("status = %s, want %s", result.Status, StatusFound)
		}

		drainPopulation(t, engine)
		if got := engine.Queue().Len(); got != 3 {
			t.Errorf("queue length = %d, want 3", got)
		}
	})
}

func TestSessionEngineLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("plays random picks without a search phase", func(t *testing.T) {
		searched := false
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc: func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
				searched = true
				return nil, nil
			},
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				if col.Kind != models.CollectionRandom || col.Limit != 3 {
					t.Errorf("collection = %+v, want 3 random picks", col)
				}
				return []string{"r1", "r2", "r3"}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2, MinTracks: 3}, svc)
		result, err := engine.EnqueueLibrary(ctx, LibraryRequest{Kind: models.CollectionRandom})
		if err != nil {
			t.Fatalf("EnqueueLibrary returned error: %v", err)
		}
		if result.Status != StatusFound || result.Match != nil {
			t.Errorf("result = %+v, want found with no match record", result)
		}
		if searched {
			t.Error("library playback ran a text search")
		}

		drainPopulation(t, engine)
		if got := engine.Queue().Len(); got != 3 {
			t.Errorf("queue length = %d, want 3", got)
		}
	})

	t.Run("falls through to a backend that supports the collection", func(t *testing.T) {
		unsupported := &tu.MockService{
			ServiceName: "plex",
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				return nil, fmt.Errorf("%w: starred listing", shared.ErrNotSupported)
			},
		}
		supported := &tu.MockService{
			ServiceName: "subsonic",
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				return []string{"f1"}, nil
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{HeadSlice: 2, MinTracks: 3}, unsupported, supported)
		result, err := engine.EnqueueLibrary(ctx, LibraryRequest{Kind: models.CollectionStarred})
		if err != nil {
			t.Fatalf("EnqueueLibrary returned error: %v", err)
		}
		if result.Status != StatusFound {
			t.Fatalf("status = %s, want %s", result.Status, StatusFound)
		}
		if len(result.Head) != 1 || result.Head[0].Source != "subsonic" {
			t.Errorf("head = %+v, want the subsonic fallback", result.Head)
		}
	})

	t.Run("rejects non-library collections", func(t *testing.T) {
		engine := newTestEngine(shared.PlaybackConfig{}, &tu.MockService{ServiceName: "subsonic"})
		_, err := engine.EnqueueLibrary(ctx, LibraryRequest{Kind: models.CollectionAlbum})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("distinguishes empty libraries from outages", func(t *testing.T) {
		broken := &tu.MockService{
			ServiceName: "subsonic",
			TrackIDsFunc: func(ctx context.Context, col models.Collection) ([]string, error) {
				return nil, fmt.Errorf("%w: 500", shared.ErrSourceUnreachable)
			},
		}
		engine := newTestEngine(shared.PlaybackConfig{MinTracks: 3}, broken)
		result, err := engine.EnqueueLibrary(ctx, LibraryRequest{Kind: models.CollectionRandom})
		if err != nil {
			t.Fatalf("EnqueueLibrary returned error: %v", err)
		}
		if result.Status != StatusAllSourcesUnreachable {
			t.Errorf("status = %s, want %s", result.Status, StatusAllSourcesUnreachable)
		}

		empty := &tu.MockService{ServiceName: "subsonic"}
		engine = newTestEngine(shared.PlaybackConfig{MinTracks: 3}, empty)
		result, err = engine.EnqueueLibrary(ctx, LibraryRequest{Kind: models.CollectionRandom})
		if err != nil {
			t.Fatalf("EnqueueLibrary returned error: %v", err)
		}
		if result.Status != StatusNotFound {
			t.Errorf("status = %s, want %s", result.Status, StatusNotFound)
		}
	})

	t.Run("requires at least one backend", func(t *testing.T) {
		engine := newTestEngine(shared.PlaybackConfig{})
		_, err := engine.EnqueueLibrary(ctx, LibraryRequest{Kind: models.CollectionRandom})
		if !errors.Is(err, shared.ErrNoBackends) {
			t.Errorf("expected ErrNoBackends, got %v", err)
		}
	})
}

func TestSessionEngineSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks without touching the queue", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc: searchReturning(
				candidateFor("s2", "Queen of Hearts", "Juice Newton"),
				candidateFor("s1", "Queen", "Queen"),
			),
		}

		engine := newTestEngine(shared.PlaybackConfig{}, svc)
		result, err := engine.Search(ctx, models.QueryTrack, "Queen")
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if result.Status != StatusFound {
			t.Fatalf("status = %s, want %s", result.Status, StatusFound)
		}
		if len(result.Matches) != 2 || result.Matches[0].Track.ID != "s1" {
			t.Errorf("matches = %+v, want the exact title ranked first", result.Matches)
		}
		if engine.Queue().Len() != 0 {
			t.Errorf("queue length = %d, want untouched", engine.Queue().Len())
		}
	})

	t.Run("maps outages to a status", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SearchFunc: func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
				return nil, fmt.Errorf("%w: refused", shared.ErrSourceUnreachable)
			},
		}

		engine := newTestEngine(shared.PlaybackConfig{}, svc)
		result, err := engine.Search(ctx, models.QueryTrack, "Queen")
		if err != nil {
			t.Fatalf("an outage is a status, not an error: %v", err)
		}
		if result.Status != StatusAllSourcesUnreachable || len(result.Matches) != 0 {
			t.Errorf("result = %+v, want unreachable with no matches", result)
		}
	})
}

func TestSessionEnginePlayback(t *testing.T) {
	ctx := context.Background()

	seed := func(svc *tu.MockService) *SessionEngine {
		engine := newTestEngine(shared.PlaybackConfig{}, svc)
		engine.Queue().Enqueue(
			models.Track{ID: "a1", Title: "Opening", Artist: "A", Source: "subsonic"},
			models.Track{ID: "a2", Title: "Closing", Artist: "A", Source: "subsonic"},
		)
		return engine
	}

	t.Run("finish scrobbles and advances", func(t *testing.T) {
		var scrobbled []string
		svc := &tu.MockService{
			ServiceName: "subsonic",
			ScrobbleFunc: func(ctx context.Context, id string) error {
				scrobbled = append(scrobbled, id)
				return nil
			},
		}

		engine := seed(svc)
		next, err := engine.FinishCurrent(ctx)
		if err != nil {
			t.Fatalf("FinishCurrent returned error: %v", err)
		}
		if next.Track.ID != "a2" {
			t.Errorf("advanced to %s, want a2", next.Track.ID)
		}
		if len(scrobbled) != 1 || scrobbled[0] != "a1" {
			t.Errorf("scrobbled = %v, want the finished a1", scrobbled)
		}
	})

	t.Run("finish tolerates a scrobble failure", func(t *testing.T) {
		svc := &tu.MockService{
			ServiceName: "subsonic",
			ScrobbleFunc: func(ctx context.Context, id string) error {
				return fmt.Errorf("%w: 503", shared.ErrSourceUnreachable)
			},
		}

		engine := seed(svc)
		next, err := engine.FinishCurrent(ctx)
		if err != nil {
			t.Fatalf("a failed scrobble must not stall playback: %v", err)
		}
		if next.Track.ID != "a2" {
			t.Errorf("advanced to %s, want a2", next.Track.ID)
		}
	})

	t.Run("finish on an empty queue returns the sentinel", func(t *testing.T) {
		engine := newTestEngine(shared.PlaybackConfig{}, &tu.MockService{ServiceName: "subsonic"})
		_, err := engine.FinishCurrent(ctx)
		if !errors.Is(err, shared.ErrQueueEmpty) {
			t.Errorf("expected ErrQueueEmpty, got %v", err)
		}
	})

	t.Run("skip overrides repeat-one", func(t *testing.T) {
		engine := seed(&tu.MockService{ServiceName: "subsonic"})
		engine.Queue().SetMode(models.ModeRepeatOne)

		looped, err := engine.FinishCurrent(ctx)
		if err != nil || looped.Track.ID != "a1" {
			t.Fatalf("finish under repeat-one = %s (%v), want a1 again", looped.Track.ID, err)
		}

		next, err := engine.SkipCurrent(ctx)
		if err != nil {
			t.Fatalf("SkipCurrent returned error: %v", err)
		}
		if next.Track.ID != "a2" {
			t.Errorf("skipped to %s, want a2", next.Track.ID)
		}
	})

	t.Run("star hits the entry's own backend", func(t *testing.T) {
		type starCall struct {
			id      string
			starred bool
		}
		var calls []starCall
		svc := &tu.MockService{
			ServiceName: "subsonic",
			SetStarredFunc: func(ctx context.Context, id string, starred bool) error {
				calls = append(calls, starCall{id, starred})
				return nil
			},
		}

		engine := seed(svc)
		if err := engine.StarCurrent(ctx, true); err != nil {
			t.Fatalf("StarCurrent returned error: %v", err)
		}
		if err := engine.StarCurrent(ctx, false); err != nil {
			t.Fatalf("StarCurrent returned error: %v", err)
		}

		want := []starCall{{"a1", true}, {"a1", false}}
		if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
			t.Errorf("star calls = %v, want %v", calls, want)
		}
	})

	t.Run("stop parks the queue", func(t *testing.T) {
		engine := seed(&tu.MockService{ServiceName: "subsonic"})
		engine.Queue().SetState(models.StatePlaying)

		engine.Stop()
		if got := engine.Queue().State(); got != models.StateStopped {
			t.Errorf("state = %s, want stopped", got)
		}
	})
}

func TestMatchStatusString(t *testing.T) {
	tests := map[MatchStatus]string{
		StatusFound:                 "found",
		StatusNotFound:              "not_found",
		StatusAllSourcesUnreachable: "all_sources_unreachable",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("MatchStatus(%d).String() = %q, want %q", status, got, want)
		}
	}
}
