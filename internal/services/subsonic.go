// Subsonic API implementation of [Service]
//
// Speaks the REST protocol documented at https://www.subsonic.org/pages/api.jsp,
// which Navidrome, Airsonic and Gonic also serve.
package services

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
)

const (
	subsonicSourceName = "subsonic"
	subsonicAPIVersion = "1.16.1"
	subsonicClientName = "segue"
)

// subsonicFieldPaths maps raw Subsonic payloads onto tracks. "name" covers
// artist and album entries, "value" covers genre entries. Durations arrive in
// seconds.
var subsonicFieldPaths = FieldPaths{
	Title:         []string{"title", "name", "value"},
	Artist:        []string{"artist", "displayArtist", "albumArtist"},
	Album:         []string{"album"},
	Genre:         []string{"genre"},
	Duration:      []string{"duration"},
	Bitrate:       []string{"bitRate", "transcodedBitRate"},
	CoverArt:      []string{"coverArt"},
	DurationScale: 1000,
}

type subsonicEnvelope struct {
	Response subsonicResponse `json:"subsonic-response"`
}

type subsonicError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type subsonicSearchResult struct {
	Artist []map[string]any `json:"artist"`
	Album  []map[string]any `json:"album"`
	Song   []map[string]any `json:"song"`
}

type subsonicSongList struct {
	Song []map[string]any `json:"song"`
}

type subsonicAlbumDetail struct {
	Song []map[string]any `json:"song"`
}

type subsonicArtistDetail struct {
	Album []map[string]any `json:"album"`
}

type subsonicPlaylistDetail struct {
	Entry []map[string]any `json:"entry"`
}

type subsonicPlaylistList struct {
	Playlist []map[string]any `json:"playlist"`
}

type subsonicGenreList struct {
	Genre []map[string]any `json:"genre"`
}

type subsonicResponse struct {
	Status        string                  `json:"status"`
	Error         *subsonicError          `json:"error"`
	SearchResult3 *subsonicSearchResult   `json:"searchResult3"`
	Song          map[string]any          `json:"song"`
	Album         *subsonicAlbumDetail    `json:"album"`
	Artist        *subsonicArtistDetail   `json:"artist"`
	Playlist      *subsonicPlaylistDetail `json:"playlist"`
	Playlists     *subsonicPlaylistList   `json:"playlists"`
	Genres        *subsonicGenreList      `json:"genres"`
	SongsByGenre  *subsonicSongList       `json:"songsByGenre"`
	RandomSongs   *subsonicSongList       `json:"randomSongs"`
	Starred2      *subsonicSongList       `json:"starred2"`
}

// SubsonicService implements the Service interface against a Subsonic
// compatible server. Authentication uses the salted token scheme, computed
// once and attached to every request.
type SubsonicService struct {
	client *apiClient
}

// NewSubsonicService builds a service from backend configuration.
func NewSubsonicService(cfg shared.SubsonicConfig) (*SubsonicService, error) {
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: subsonic requires url, user and password", shared.ErrMissingCredentials)
	}

	salt := randomSalt()
	token := md5.Sum([]byte(cfg.Password + salt))

	client := newAPIClient(strings.TrimRight(cfg.URL, "/"), nil)
	client.query.Set("u", cfg.User)
	client.query.Set("t", hex.EncodeToString(token[:]))
	client.query.Set("s", salt)
	client.query.Set("v", subsonicAPIVersion)
	client.query.Set("c", subsonicClientName)
	client.query.Set("f", "json")

	return &SubsonicService{client: client}, nil
}

func randomSalt() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (s *SubsonicService) Name() string {
	return subsonicSourceName
}

// call performs a Subsonic REST request and unwraps the response envelope.
func (s *SubsonicService) call(ctx context.Context, path string, query url.Values) (*subsonicResponse, error) {
	var envelope subsonicEnvelope
	if err := s.client.getJSON(ctx, path, query, &envelope); err != nil {
		return nil, err
	}

	resp := &envelope.Response
	if resp.Status != "ok" {
		return nil, subsonicResponseError(resp.Error)
	}
	return resp, nil
}

// subsonicResponseError maps protocol error codes onto the shared taxonomy.
// Code 70 means the requested data does not exist; everything else (bad
// credentials, unauthorized, server trouble) makes the source unusable.
func subsonicResponseError(e *subsonicError) error {
	if e == nil {
		return fmt.Errorf("%w: server reported failure without detail", shared.ErrSourceUnreachable)
	}
	if e.Code == 70 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, e.Message)
	}
	return fmt.Errorf("%w: %s (code %d)", shared.ErrSourceUnreachable, e.Message, e.Code)
}

// Ping verifies connectivity and credentials.
func (s *SubsonicService) Ping(ctx context.Context) error {
	_, err := s.call(ctx, "/rest/ping", nil)
	return err
}

// Search queries the server for candidates of the given kind. Track, album and
// artist lookups go through search3; genres and playlists are enumerated in
// full and left to the caller to rank against the term.
func (s *SubsonicService) Search(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
	switch kind {
	case models.QueryTrack, models.QueryAlbum, models.QueryArtist:
		return s.search3(ctx, kind, term)
	case models.QueryGenre:
		resp, err := s.call(ctx, "/rest/getGenres", nil)
		if err != nil {
			return nil, err
		}
		if resp.Genres == nil {
			return nil, nil
		}
		return subsonicCandidates(kind, resp.Genres.Genre, "value"), nil
	case models.QueryPlaylist:
		resp, err := s.call(ctx, "/rest/getPlaylists", nil)
		if err != nil {
			return nil, err
		}
		if resp.Playlists == nil {
			return nil, nil
		}
		return subsonicCandidates(kind, resp.Playlists.Playlist, "id"), nil
	default:
		return nil, fmt.Errorf("%w: query kind %s", shared.ErrInvalidArgument, kind)
	}
}

func (s *SubsonicService) search3(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
	query := url.Values{"query": {term}}
	query.Set("songCount", "0")
	query.Set("albumCount", "0")
	query.Set("artistCount", "0")

	switch kind {
	case models.QueryTrack:
		query.Set("songCount", "25")
	case models.QueryAlbum:
		query.Set("albumCount", "15")
	case models.QueryArtist:
		query.Set("artistCount", "15")
	}

	resp, err := s.call(ctx, "/rest/search3", query)
	if err != nil {
		return nil, err
	}
	if resp.SearchResult3 == nil {
		return nil, nil
	}

	switch kind {
	case models.QueryTrack:
		return subsonicCandidates(kind, resp.SearchResult3.Song, "id"), nil
	case models.QueryAlbum:
		return subsonicCandidates(kind, resp.SearchResult3.Album, "id"), nil
	default:
		return subsonicCandidates(kind, resp.SearchResult3.Artist, "id"), nil
	}
}

func subsonicCandidates(kind models.QueryKind, items []map[string]any, idField string) []models.Candidate {
	out := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		id, _ := item[idField].(string)
		if id == "" {
			continue
		}
		out = append(out, models.Candidate{Source: subsonicSourceName, Kind: kind, ID: id, Meta: item})
	}
	return out
}

// Normalize maps a raw candidate onto a Track. Stream and cover art URLs are
// built locally since the Subsonic scheme derives them from the track ID.
func (s *SubsonicService) Normalize(c models.Candidate) (models.Track, bool) {
	track, ok := normalizeCandidate(c, subsonicFieldPaths)
	if !ok {
		return models.Track{}, false
	}

	if c.Kind == models.QueryTrack {
		track.StreamURL = s.streamURL(track.ID)
		if cover := firstString(c.Meta, subsonicFieldPaths.CoverArt); cover != "" {
			track.CoverArtURL = s.coverArtURL(cover)
		}
	}
	return track, true
}

func (s *SubsonicService) streamURL(id string) string {
	return s.client.requestURL("/rest/stream", url.Values{"id": {id}})
}

func (s *SubsonicService) coverArtURL(id string) string {
	return s.client.requestURL("/rest/getCoverArt", url.Values{"id": {id}})
}

// TrackIDs expands a collection into its track IDs in server order.
func (s *SubsonicService) TrackIDs(ctx context.Context, col models.Collection) ([]string, error) {
	switch col.Kind {
	case models.CollectionAlbum:
		resp, err := s.call(ctx, "/rest/getAlbum", url.Values{"id": {col.ID}})
		if err != nil {
			return nil, err
		}
		if resp.Album == nil {
			return nil, nil
		}
		return subsonicSongIDs(resp.Album.Song), nil

	case models.CollectionArtist:
		return s.artistTrackIDs(ctx, col.ID)

	case models.CollectionPlaylist:
		resp, err := s.call(ctx, "/rest/getPlaylist", url.Values{"id": {col.ID}})
		if err != nil {
			return nil, err
		}
		if resp.Playlist == nil {
			return nil, nil
		}
		return subsonicSongIDs(resp.Playlist.Entry), nil

	case models.CollectionGenre:
		query := url.Values{"genre": {col.ID}, "count": {strconv.Itoa(collectionLimit(col, 500))}}
		resp, err := s.call(ctx, "/rest/getSongsByGenre", query)
		if err != nil {
			return nil, err
		}
		if resp.SongsByGenre == nil {
			return nil, nil
		}
		return subsonicSongIDs(resp.SongsByGenre.Song), nil

	case models.CollectionRandom:
		query := url.Values{"size": {strconv.Itoa(collectionLimit(col, 50))}}
		resp, err := s.call(ctx, "/rest/getRandomSongs", query)
		if err != nil {
			return nil, err
		}
		if resp.RandomSongs == nil {
			return nil, nil
		}
		return subsonicSongIDs(resp.RandomSongs.Song), nil

	case models.CollectionStarred:
		resp, err := s.call(ctx, "/rest/getStarred2", nil)
		if err != nil {
			return nil, err
		}
		if resp.Starred2 == nil {
			return nil, nil
		}
		return subsonicSongIDs(resp.Starred2.Song), nil

	default:
		return nil, fmt.Errorf("%w: collection kind %s", shared.ErrInvalidArgument, col.Kind)
	}
}

// artistTrackIDs walks every album under the artist. Album order follows the
// server; track order follows each album.
func (s *SubsonicService) artistTrackIDs(ctx context.Context, id string) ([]string, error) {
	resp, err := s.call(ctx, "/rest/getArtist", url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	if resp.Artist == nil {
		return nil, nil
	}

	var ids []string
	for _, album := range resp.Artist.Album {
		albumID, _ := album["id"].(string)
		if albumID == "" {
			continue
		}
		albumResp, err := s.call(ctx, "/rest/getAlbum", url.Values{"id": {albumID}})
		if err != nil {
			return nil, err
		}
		if albumResp.Album != nil {
			ids = append(ids, subsonicSongIDs(albumResp.Album.Song)...)
		}
	}
	return ids, nil
}

func subsonicSongIDs(items []map[string]any) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func collectionLimit(col models.Collection, fallback int) int {
	if col.Limit > 0 {
		return col.Limit
	}
	return fallback
}

// TrackByID fetches and normalizes a single track.
func (s *SubsonicService) TrackByID(ctx context.Context, id string) (*models.Track, error) {
	resp, err := s.call(ctx, "/rest/getSong", url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	if resp.Song == nil {
		return nil, fmt.Errorf("%w: song %s", shared.ErrTrackNotFound, id)
	}

	candidate := models.Candidate{Source: subsonicSourceName, Kind: models.QueryTrack, ID: id, Meta: resp.Song}
	track, ok := s.Normalize(candidate)
	if !ok {
		return nil, fmt.Errorf("%w: song %s has unusable metadata", shared.ErrTrackNotFound, id)
	}
	return &track, nil
}

// StreamURL builds the playback URL. No round trip is needed because the
// Subsonic stream endpoint takes the track ID directly.
func (s *SubsonicService) StreamURL(_ context.Context, id string) (string, error) {
	return s.streamURL(id), nil
}

// Scrobble submits a play record for the track.
func (s *SubsonicService) Scrobble(ctx context.Context, id string) error {
	query := url.Values{"id": {id}, "submission": {"true"}}
	_, err := s.call(ctx, "/rest/scrobble", query)
	return err
}

// SetStarred stars or unstars the track.
func (s *SubsonicService) SetStarred(ctx context.Context, id string, starred bool) error {
	path := "/rest/star"
	if !starred {
		path = "/rest/unstar"
	}
	_, err := s.call(ctx, path, url.Values{"id": {id}})
	return err
}
