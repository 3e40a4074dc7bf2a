// package services defines interface Service for interacting with media backend HTTP APIs
package services

import (
	"context"

	"github.com/desertthunder/segue/internal/models"
)

// Service is the capability contract one configured backend fulfills.
//
// Implementations: [SubsonicService], [PlexService].
type Service interface {
	// Name returns the backend tag used in configuration, candidates and tracks.
	Name() string
	// Ping verifies the backend is reachable with the configured credentials.
	Ping(ctx context.Context) error
	// Search runs a free-text query of the given kind and returns raw candidates.
	Search(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error)
	// Normalize converts a raw candidate into a Track, reporting whether the
	// candidate carried enough fields to be usable.
	Normalize(c models.Candidate) (models.Track, bool)
	// TrackIDs lists the ordered track identifiers inside a collection.
	TrackIDs(ctx context.Context, col models.Collection) ([]string, error)
	// TrackByID resolves a single identifier into a full Track.
	TrackByID(ctx context.Context, id string) (*models.Track, error)
	// StreamURL yields a playable locator for a track identifier.
	StreamURL(ctx context.Context, id string) (string, error)
	// Scrobble records a completed playback.
	Scrobble(ctx context.Context, id string) error
	// SetStarred stars or unstars a track.
	SetStarred(ctx context.Context, id string, starred bool) error
}
