package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
)

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, "subsonic", "42", models.Track{ID: "42"})

			if err := repo.Create(track); err == nil {
				t.Fatal("expected validation error for missing title")
			}
		})

		t.Run("DuplicateSourcePair", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			if err := repo.Create(models.NewPersistedTrack(0, "subsonic", "42", sampleTrack("42"))); err != nil {
				t.Fatalf("failed to create first track: %v", err)
			}

			err := repo.Create(models.NewPersistedTrack(0, "subsonic", "42", sampleTrack("42")))
			if err == nil {
				t.Fatal("expected error when caching the same source pair twice")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(1, "subsonic", "42", sampleTrack("42"))
			track.SetID("nonexistent-id")

			if err := repo.Update(track); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})
}
