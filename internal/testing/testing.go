// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/desertthunder/segue/internal/models"
)

// MockService is a configurable test double for [services.Service]. Unset
// function fields fall back to benign defaults so tests only wire the paths
// they exercise.
type MockService struct {
	ServiceName string

	PingFunc       func(ctx context.Context) error
	SearchFunc     func(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error)
	NormalizeFunc  func(c models.Candidate) (models.Track, bool)
	TrackIDsFunc   func(ctx context.Context, col models.Collection) ([]string, error)
	TrackByIDFunc  func(ctx context.Context, id string) (*models.Track, error)
	StreamURLFunc  func(ctx context.Context, id string) (string, error)
	ScrobbleFunc   func(ctx context.Context, id string) error
	SetStarredFunc func(ctx context.Context, id string, starred bool) error
}

func (m *MockService) Name() string {
	if m.ServiceName == "" {
		return "mock"
	}
	return m.ServiceName
}

func (m *MockService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockService) Search(ctx context.Context, kind models.QueryKind, term string) ([]models.Candidate, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, kind, term)
	}
	return nil, nil
}

// Normalize defaults to reading title/artist/album/bitrate straight out of
// the candidate metadata.
func (m *MockService) Normalize(c models.Candidate) (models.Track, bool) {
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(c)
	}

	title, _ := c.Meta["title"].(string)
	if c.ID == "" || title == "" {
		return models.Track{}, false
	}

	artist, _ := c.Meta["artist"].(string)
	album, _ := c.Meta["album"].(string)
	bitrate, _ := c.Meta["bitrate"].(int)
	return models.Track{
		ID:      c.ID,
		Title:   title,
		Artist:  artist,
		Album:   album,
		Bitrate: bitrate,
		Source:  m.Name(),
	}, true
}

func (m *MockService) TrackIDs(ctx context.Context, col models.Collection) ([]string, error) {
	if m.TrackIDsFunc != nil {
		return m.TrackIDsFunc(ctx, col)
	}
	return nil, nil
}

func (m *MockService) TrackByID(ctx context.Context, id string) (*models.Track, error) {
	if m.TrackByIDFunc != nil {
		return m.TrackByIDFunc(ctx, id)
	}
	return &models.Track{ID: id, Title: "Track " + id, Source: m.Name()}, nil
}

func (m *MockService) StreamURL(ctx context.Context, id string) (string, error) {
	if m.StreamURLFunc != nil {
		return m.StreamURLFunc(ctx, id)
	}
	return "mock://stream/" + id, nil
}

func (m *MockService) Scrobble(ctx context.Context, id string) error {
	if m.ScrobbleFunc != nil {
		return m.ScrobbleFunc(ctx, id)
	}
	return nil
}

func (m *MockService) SetStarred(ctx context.Context, id string, starred bool) error {
	if m.SetStarredFunc != nil {
		return m.SetStarredFunc(ctx, id, starred)
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
