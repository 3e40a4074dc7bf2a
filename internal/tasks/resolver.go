package tasks

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/services"
	"github.com/desertthunder/segue/internal/shared"
)

// TrackCacher persists resolved tracks keyed by backend name and backend
// track ID. Implementations must tolerate concurrent use.
type TrackCacher interface {
	CacheTrack(source, id string, track models.Track) error
	CachedTrack(source, id string) (*models.Track, bool)
}

// Resolver fans queries out to every enabled backend, normalizes the raw
// candidates into tracks and aggregates partial results. A single failing
// backend never aborts the others; only a full wipeout surfaces as an error.
type Resolver struct {
	services []services.Service
	cache    TrackCacher
	logger   *log.Logger
}

// NewResolver builds a resolver over the enabled backends in configured
// order. cache may be nil to disable resolved-track caching.
func NewResolver(svcs []services.Service, cache TrackCacher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Resolver{services: svcs, cache: cache, logger: logger}
}

type backendResult struct {
	tracks []models.Track
	err    error
}

// Search queries every backend concurrently and returns the normalized tracks
// in configured backend order. If every backend fails the error wraps
// ErrAllSourcesUnreachable; an empty result with no error means the backends
// answered but nothing matched.
func (r *Resolver) Search(ctx context.Context, kind models.QueryKind, term string) ([]models.Track, error) {
	if len(r.services) == 0 {
		return nil, fmt.Errorf("%w: no backends enabled", shared.ErrNoBackends)
	}

	results := make([]backendResult, len(r.services))
	var wg sync.WaitGroup
	for i, svc := range r.services {
		wg.Add(1)
		go func(i int, svc services.Service) {
			defer wg.Done()
			results[i] = r.searchBackend(ctx, svc, kind, term)
		}(i, svc)
	}
	wg.Wait()

	var tracks []models.Track
	failures := 0
	for i, res := range results {
		if res.err != nil {
			failures++
			r.logger.Warn("backend search failed", "backend", r.services[i].Name(), "error", res.err)
			continue
		}
		tracks = append(tracks, res.tracks...)
	}

	if failures == len(r.services) {
		return nil, fmt.Errorf("%w: all %d backends failed", shared.ErrAllSourcesUnreachable, failures)
	}
	return tracks, nil
}

func (r *Resolver) searchBackend(ctx context.Context, svc services.Service, kind models.QueryKind, term string) backendResult {
	candidates, err := svc.Search(ctx, kind, term)
	if err != nil {
		return backendResult{err: err}
	}

	tracks := make([]models.Track, 0, len(candidates))
	for _, c := range candidates {
		track, ok := svc.Normalize(c)
		if !ok {
			continue
		}
		tracks = append(tracks, track)
	}
	return backendResult{tracks: tracks}
}

// ResolveByID fetches a full track record, consulting the cache first and
// storing fresh lookups. Cache write failures are logged, never propagated.
func (r *Resolver) ResolveByID(ctx context.Context, source, id string) (*models.Track, error) {
	if r.cache != nil {
		if track, ok := r.cache.CachedTrack(source, id); ok {
			return track, nil
		}
	}

	svc, err := r.Backend(source)
	if err != nil {
		return nil, err
	}

	track, err := svc.TrackByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.CacheTrack(source, id, *track); err != nil {
			r.logger.Debug("track cache write failed", "source", source, "id", id, "error", err)
		}
	}
	return track, nil
}

// TrackIDs expands a collection on its originating backend.
func (r *Resolver) TrackIDs(ctx context.Context, source string, col models.Collection) ([]string, error) {
	svc, err := r.Backend(source)
	if err != nil {
		return nil, err
	}
	return svc.TrackIDs(ctx, col)
}

// StreamURL returns the playable URL for a track, resolving it through the
// originating backend when the track carries none.
func (r *Resolver) StreamURL(ctx context.Context, track models.Track) (string, error) {
	if track.StreamURL != "" {
		return track.StreamURL, nil
	}

	svc, err := r.Backend(track.Source)
	if err != nil {
		return "", err
	}
	return svc.StreamURL(ctx, track.ID)
}

// Backend returns the enabled service with the given name.
func (r *Resolver) Backend(name string) (services.Service, error) {
	for _, svc := range r.services {
		if svc.Name() == name {
			return svc, nil
		}
	}
	return nil, fmt.Errorf("%w: backend %q not configured", shared.ErrInvalidArgument, name)
}

// Backends lists the enabled backend names in configured order.
func (r *Resolver) Backends() []string {
	names := make([]string, len(r.services))
	for i, svc := range r.services {
		names[i] = svc.Name()
	}
	return names
}

// Ping checks every backend concurrently, keyed by backend name.
func (r *Resolver) Ping(ctx context.Context) map[string]error {
	out := make(map[string]error, len(r.services))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, svc := range r.services {
		wg.Add(1)
		go func(svc services.Service) {
			defer wg.Done()
			err := svc.Ping(ctx)
			mu.Lock()
			out[svc.Name()] = err
			mu.Unlock()
		}(svc)
	}
	wg.Wait()
	return out
}
