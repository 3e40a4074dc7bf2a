// Plex Media Server implementation of [Service]
//
// Uses the unversioned HTTP API with token auth. The token rides in the query
// string so the same builder covers API calls and media URLs handed to players.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
)

const (
	plexSourceName = "plex"
	plexIdentifier = "com.plexapp.plugins.library"

	// plexTrackType is the numeric metadata type for tracks in library filters.
	plexTrackType = "10"
)

// plexFieldPaths maps raw Plex payloads onto tracks. originalTitle carries the
// track artist when it differs from the album artist (grandparentTitle).
// Durations arrive in milliseconds.
var plexFieldPaths = FieldPaths{
	Title:         []string{"title"},
	Artist:        []string{"originalTitle", "grandparentTitle"},
	Album:         []string{"parentTitle"},
	Genre:         []string{"Genre.0.tag"},
	Duration:      []string{"duration"},
	Bitrate:       []string{"Media.0.bitrate"},
	CoverArt:      []string{"thumb", "parentThumb", "grandparentThumb"},
	StreamPath:    []string{"Media.0.Part.0.key"},
	DurationScale: 1,
}

// plexHubTypes maps query kinds onto hub search result types.
var plexHubTypes = map[models.QueryKind]string{
	models.QueryTrack:    "track",
	models.QueryAlbum:    "album",
	models.QueryArtist:   "artist",
	models.QueryPlaylist: "playlist",
}

type plexEnvelope struct {
	MediaContainer plexContainer `json:"MediaContainer"`
}

type plexContainer struct {
	Size      int              `json:"size"`
	Hub       []plexHub        `json:"Hub"`
	Metadata  []map[string]any `json:"Metadata"`
	Directory []map[string]any `json:"Directory"`
}

type plexHub struct {
	Type     string           `json:"type"`
	Title    string           `json:"title"`
	Metadata []map[string]any `json:"Metadata"`
}

// PlexService implements the Service interface against a Plex Media Server.
// section is the music library section ID, required for genre and random
// browsing.
type PlexService struct {
	client  *apiClient
	section string
}

// NewPlexService builds a service from backend configuration.
func NewPlexService(cfg shared.PlexConfig) (*PlexService, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: plex requires url and token", shared.ErrMissingCredentials)
	}

	client := newAPIClient(strings.TrimRight(cfg.URL, "/"), nil)
	client.query.Set("X-Plex-Token", cfg.Token)
	client.header.Set("Accept", "application/json")

	return &PlexService{client: client, section: cfg.Section}, nil
}

func (s *PlexService) Name() string {
	return plexSourceName
}

// Ping verifies connectivity and the token.
func (s *PlexService) Ping(ctx context.Context) error {
	return s.client.getJSON(ctx, "/identity", nil, nil)
}

// Search queries hub search for candidates of the given kind. Genres are not
// hub searchable, so those are enumerated from the library section and left to
// the caller to rank against the term.
func (s *PlexService) Search(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
	if kind == models.QueryGenre {
		return s.genreCandidates(ctx)
	}

	hubType, ok := plexHubTypes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: query kind %s", shared.ErrInvalidArgument, kind)
	}

	var env plexEnvelope
	query := url.Values{"query": {term}, "limit": {"25"}}
	if err := s.client.getJSON(ctx, "/hubs/search", query, &env); err != nil {
		return nil, err
	}

	var out []models.Candidate
	for _, hub := range env.MediaContainer.Hub {
		if hub.Type != hubType {
			continue
		}
		out = append(out, plexCandidates(kind, hub.Metadata, "ratingKey")...)
	}
	return out, nil
}

// genreCandidates lists every track genre in the section. The candidate ID is
// the directory fastKey, a ready-made path that filters the section down to
// the genre's tracks.
func (s *PlexService) genreCandidates(ctx context.Context) ([]models.Candidate, error) {
	if s.section == "" {
		return nil, fmt.Errorf("%w: plex section required for genre browsing", shared.ErrMissingConfig)
	}

	var env plexEnvelope
	path := "/library/sections/" + s.section + "/genre"
	if err := s.client.getJSON(ctx, path, url.Values{"type": {plexTrackType}}, &env); err != nil {
		return nil, err
	}
	return plexCandidates(models.QueryGenre, env.MediaContainer.Directory, "fastKey"), nil
}

func plexCandidates(kind models.QueryKind, items []map[string]any, idField string) []models.Candidate {
	out := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		id, _ := item[idField].(string)
		if id == "" {
			continue
		}
		out = append(out, models.Candidate{Source: plexSourceName, Kind: kind, ID: id, Meta: item})
	}
	return out
}

// Normalize maps a raw candidate onto a Track, rewriting server relative media
// paths into absolute tokenized URLs.
func (s *PlexService) Normalize(c models.Candidate) (models.Track, bool) {
	track, ok := normalizeCandidate(c, plexFieldPaths)
	if !ok {
		return models.Track{}, false
	}

	track.StreamURL = s.resourceURL(track.StreamURL)
	track.CoverArtURL = s.resourceURL(track.CoverArtURL)
	return track, true
}

func (s *PlexService) resourceURL(path string) string {
	if path == "" {
		return ""
	}
	return s.client.requestURL(path, nil)
}

// TrackIDs expands a collection into its track IDs in server order.
func (s *PlexService) TrackIDs(ctx context.Context, col models.Collection) ([]string, error) {
	switch col.Kind {
	case models.CollectionAlbum:
		return s.metadataIDs(ctx, "/library/metadata/"+col.ID+"/children", nil)

	case models.CollectionArtist:
		return s.metadataIDs(ctx, "/library/metadata/"+col.ID+"/allLeaves", nil)

	case models.CollectionPlaylist:
		return s.metadataIDs(ctx, "/playlists/"+col.ID+"/items", nil)

	case models.CollectionGenre:
		// The collection ID is a fastKey and may carry its own query string.
		path, query := splitPathQuery(col.ID)
		return s.metadataIDs(ctx, path, query)

	case models.CollectionRandom:
		if s.section == "" {
			return nil, fmt.Errorf("%w: plex section required for random browsing", shared.ErrMissingConfig)
		}
		query := url.Values{
			"type":                  {plexTrackType},
			"sort":                  {"random"},
			"X-Plex-Container-Size": {strconv.Itoa(collectionLimit(col, 50))},
		}
		return s.metadataIDs(ctx, "/library/sections/"+s.section+"/all", query)

	case models.CollectionStarred:
		return nil, fmt.Errorf("%w: plex does not expose starred tracks", shared.ErrNotSupported)

	default:
		return nil, fmt.Errorf("%w: collection kind %s", shared.ErrInvalidArgument, col.Kind)
	}
}

func (s *PlexService) metadataIDs(ctx context.Context, path string, query url.Values) ([]string, error) {
	var env plexEnvelope
	if err := s.client.getJSON(ctx, path, query, &env); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(env.MediaContainer.Metadata))
	for _, item := range env.MediaContainer.Metadata {
		if id, ok := item["ratingKey"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func splitPathQuery(raw string) (string, url.Values) {
	path, rawQuery, found := strings.Cut(raw, "?")
	if !found {
		return raw, nil
	}
	vals, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path, nil
	}
	return path, vals
}

// TrackByID fetches and normalizes a single track.
func (s *PlexService) TrackByID(ctx context.Context, id string) (*models.Track, error) {
	var env plexEnvelope
	if err := s.client.getJSON(ctx, "/library/metadata/"+id, nil, &env); err != nil {
		return nil, err
	}
	if len(env.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: metadata %s", shared.ErrTrackNotFound, id)
	}

	candidate := models.Candidate{Source: plexSourceName, Kind: models.QueryTrack, ID: id, Meta: env.MediaContainer.Metadata[0]}
	track, ok := s.Normalize(candidate)
	if !ok {
		return nil, fmt.Errorf("%w: metadata %s is unusable", shared.ErrTrackNotFound, id)
	}
	return &track, nil
}

// StreamURL resolves the playback URL from the track's first media part.
// Plex does not derive stream paths from track IDs, so this fetches metadata.
func (s *PlexService) StreamURL(ctx context.Context, id string) (string, error) {
	track, err := s.TrackByID(ctx, id)
	if err != nil {
		return "", err
	}
	if track.StreamURL == "" {
		return "", fmt.Errorf("%w: track %s has no media part", shared.ErrTrackNotFound, id)
	}
	return track.StreamURL, nil
}

// Scrobble marks the track played.
func (s *PlexService) Scrobble(ctx context.Context, id string) error {
	query := url.Values{"key": {id}, "identifier": {plexIdentifier}}
	return s.client.getJSON(ctx, "/:/scrobble", query, nil)
}

// SetStarred rates the track ten stars or clears the rating. Plex has no
// native star flag for tracks, so the rating stands in for it.
func (s *PlexService) SetStarred(ctx context.Context, id string, starred bool) error {
	rating := "10"
	if !starred {
		rating = "0"
	}
	query := url.Values{"key": {id}, "identifier": {plexIdentifier}, "rating": {rating}}
	return s.client.getJSON(ctx, "/:/rate", query, nil)
}
