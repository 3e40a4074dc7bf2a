package models

import (
	"fmt"
	"time"
)

// PersistedTrack is a database-backed cached track keyed by (source, source_id).
//
// The cache lets the resolver and populator skip repeat backend lookups for
// identifiers already resolved in an earlier session.
type PersistedTrack struct {
	id        string
	sequence  int
	source    string
	sourceID  string
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

var _ Model = (*PersistedTrack)(nil)

// NewPersistedTrack wraps a resolved Track for persistence under the given source tag.
func NewPersistedTrack(sequence int, source, sourceID string, track Track) *PersistedTrack {
	now := time.Now()
	return &PersistedTrack{
		sequence:  sequence,
		source:    source,
		sourceID:  sourceID,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *PersistedTrack) ID() string           { return t.id }
func (t *PersistedTrack) SetID(id string)      { t.id = id }
func (t *PersistedTrack) Sequence() int        { return t.sequence }
func (t *PersistedTrack) Source() string       { return t.source }
func (t *PersistedTrack) SourceID() string     { return t.sourceID }
func (t *PersistedTrack) Track() Track         { return t.track }
func (t *PersistedTrack) CreatedAt() time.Time { return t.createdAt }
func (t *PersistedTrack) UpdatedAt() time.Time { return t.updatedAt }

func (t *PersistedTrack) SetCreatedAt(at time.Time)  { t.createdAt = at }
func (t *PersistedTrack) SetUpdatedAt(at time.Time)  { t.updatedAt = at }
func (t *PersistedTrack) DeletedAt() *time.Time      { return t.deletedAt }
func (t *PersistedTrack) SetDeletedAt(at *time.Time) { t.deletedAt = at }

// Validate checks that the cached track carries the fields the cache is keyed
// and queried by.
func (t *PersistedTrack) Validate() error {
	if t.source == "" {
		return fmt.Errorf("persisted track requires a source tag")
	}
	if t.sourceID == "" {
		return fmt.Errorf("persisted track requires a source ID")
	}
	if t.track.Title == "" {
		return fmt.Errorf("persisted track requires a title")
	}
	return nil
}
