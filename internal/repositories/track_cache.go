package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/segue/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCacher using TrackRepository.
//
// Writes deduplicate on the (source, source_id) UNIQUE constraint; a row that
// already exists is a success, not an error. Reads never fail loudly: a miss,
// a closed database or a scan error all report a plain cache miss so the
// resolver falls through to the backend.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack stores a resolved track under its backend identifier.
// Returns nil if the pair is already cached.
func (a *TrackCacheAdapter) CacheTrack(source, sourceID string, track models.Track) error {
	existing, err := a.repo.GetBySourceID(source, sourceID)
	if err == nil && existing != nil {
		return nil
	}

	persisted := models.NewPersistedTrack(0, source, sourceID, track)

	if err := a.repo.Create(persisted); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// CachedTrack looks a resolved track up by its backend identifier.
func (a *TrackCacheAdapter) CachedTrack(source, sourceID string) (*models.Track, bool) {
	persisted, err := a.repo.GetBySourceID(source, sourceID)
	if err != nil || persisted == nil {
		return nil, false
	}

	track := persisted.Track()
	return &track, true
}
