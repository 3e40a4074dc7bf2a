package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
)

// TrackRepository implements models.Repository[*models.PersistedTrack] for the
// resolved-track cache.
//
// Rows are keyed by (source, source_id) so the same backend identifier is never
// cached twice. Soft deletes keep history without serving stale records.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.PersistedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.PersistedTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, source, source_id, title, artist, album, genre, duration_ms, bitrate, stream_url, cover_art_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	dto := track.Track()
	_, err = r.db.Exec(query,
		id,
		sequence,
		track.Source(),
		track.SourceID(),
		dto.Title,
		dto.Artist,
		dto.Album,
		dto.Genre,
		dto.DurationMS,
		dto.Bitrate,
		dto.StreamURL,
		dto.CoverArtURL,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a cached track by ID, excluding soft-deleted rows
func (r *TrackRepository) Get(id string) (*models.PersistedTrack, error) {
	query := `
		SELECT id, sequence, source, source_id, title, artist, album, genre, duration_ms, bitrate, stream_url, cover_art_url, created_at, updated_at, deleted_at
		FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySourceID retrieves a cached track by its backend and backend identifier
func (r *TrackRepository) GetBySourceID(source, sourceID string) (*models.PersistedTrack, error) {
	query := `
		SELECT id, sequence, source, source_id, title, artist, album, genre, duration_ms, bitrate, stream_url, cover_art_url, created_at, updated_at, deleted_at
		FROM tracks
		WHERE source = ? AND source_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, source, sourceID))
}

// Update modifies an existing cached track in the database
func (r *TrackRepository) Update(track *models.PersistedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, genre = ?, duration_ms = ?, bitrate = ?, stream_url = ?, cover_art_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	dto := track.Track()
	result, err := r.db.Exec(query,
		dto.Title,
		dto.Artist,
		dto.Album,
		dto.Genre,
		dto.DurationMS,
		dto.Bitrate,
		dto.StreamURL,
		dto.CoverArtURL,
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a cached track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves all cached tracks matching the given criteria, excluding soft-deleted rows
func (r *TrackRepository) List(criteria map[string]any) ([]*models.PersistedTrack, error) {
	query := `
		SELECT id, sequence, source, source_id, title, artist, album, genre, duration_ms, bitrate, stream_url, cover_art_url, created_at, updated_at, deleted_at
		FROM tracks
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PersistedTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

type trackScanner interface {
	Scan(dest ...any) error
}

// scanOne scans a single [sql.Row] into a [models.PersistedTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.PersistedTrack, error) {
	track, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: track", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return track, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedTrack]
func (r *TrackRepository) scanRow(rows *sql.Rows) (*models.PersistedTrack, error) {
	track, err := scanTrack(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return track, nil
}

func scanTrack(s trackScanner) (*models.PersistedTrack, error) {
	var (
		id          string
		sequence    int
		source      string
		sourceID    string
		title       string
		artist      string
		album       string
		genre       string
		durationMS  int
		bitrate     int
		streamURL   string
		coverArtURL string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := s.Scan(&id, &sequence, &source, &sourceID, &title, &artist, &album, &genre, &durationMS, &bitrate, &streamURL, &coverArtURL, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	dto := models.Track{
		ID:          sourceID,
		Title:       title,
		Artist:      artist,
		Album:       album,
		Genre:       genre,
		DurationMS:  durationMS,
		Bitrate:     bitrate,
		StreamURL:   streamURL,
		CoverArtURL: coverArtURL,
		Source:      source,
	}

	track := models.NewPersistedTrack(sequence, source, sourceID, dto)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}
