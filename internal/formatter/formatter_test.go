package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/tasks"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{ID: "1", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", DurationMS: 354000, Bitrate: 320, Source: "subsonic"},
		{ID: "2", Title: "Somebody to Love", Artist: "Queen", Album: "A Day at the Races", DurationMS: 296000, Bitrate: 192, Source: "plex"},
	}
}

func TestFormatDuration(t *testing.T) {
	t.Run("renders minutes and seconds", func(t *testing.T) {
		if got := FormatDuration(354000); got != "5:54" {
			t.Errorf("expected 5:54, got %s", got)
		}
	})

	t.Run("pads seconds to two digits", func(t *testing.T) {
		if got := FormatDuration(61000); got != "1:01" {
			t.Errorf("expected 1:01, got %s", got)
		}
	})

	t.Run("renders hours past sixty minutes", func(t *testing.T) {
		if got := FormatDuration(3723000); got != "1:02:03" {
			t.Errorf("expected 1:02:03, got %s", got)
		}
	})

	t.Run("renders zero as dash", func(t *testing.T) {
		if got := FormatDuration(0); got != "-" {
			t.Errorf("expected -, got %s", got)
		}
	})

	t.Run("renders negative as dash", func(t *testing.T) {
		if got := FormatDuration(-5); got != "-" {
			t.Errorf("expected -, got %s", got)
		}
	})
}

func TestToJSON(t *testing.T) {
	t.Run("marshals compact", func(t *testing.T) {
		data, err := ToJSON(map[string]string{"key": "value"}, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `{"key":"value"}` {
			t.Errorf("unexpected output: %s", data)
		}
	})

	t.Run("marshals pretty", func(t *testing.T) {
		data, err := ToJSON(map[string]string{"key": "value"}, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(data), "\n  \"key\": \"value\"") {
			t.Errorf("expected indented output, got %s", data)
		}
	})

	t.Run("propagates marshal errors", func(t *testing.T) {
		if _, err := ToJSON(make(chan int), false); err == nil {
			t.Fatal("expected error for non-serializable value")
		}
	})
}

func TestTracksToText(t *testing.T) {
	t.Run("numbers tracks and includes album, duration and source", func(t *testing.T) {
		out := string(TracksToText(sampleTracks()))

		if !strings.Contains(out, "1. Queen - Bohemian Rhapsody (A Night at the Opera) [5:54, subsonic]") {
			t.Errorf("unexpected first line in:\n%s", out)
		}
		if !strings.Contains(out, "2. Queen - Somebody to Love") {
			t.Errorf("expected second track in:\n%s", out)
		}
	})

	t.Run("omits empty album", func(t *testing.T) {
		out := string(TracksToText([]models.Track{{Title: "Solo", Artist: "A", Source: "plex"}}))
		if strings.Contains(out, "()") {
			t.Errorf("empty album rendered as parens: %s", out)
		}
	})

	t.Run("renders nothing for no tracks", func(t *testing.T) {
		if out := TracksToText(nil); len(out) != 0 {
			t.Errorf("expected empty output, got %q", out)
		}
	})
}

func TestTracksToCSV(t *testing.T) {
	t.Run("writes header and one record per track", func(t *testing.T) {
		data, err := TracksToCSV(sampleTracks())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != "ID,Title,Artist,Album,Duration,Bitrate,Source" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "Bohemian Rhapsody") || !strings.Contains(lines[1], "subsonic") {
			t.Errorf("unexpected record: %s", lines[1])
		}
	})
}

func TestMatchesToText(t *testing.T) {
	t.Run("shows scores to two decimals", func(t *testing.T) {
		matches := []tasks.Match{
			{Track: sampleTracks()[0], Score: 0.95},
			{Track: sampleTracks()[1], Score: 0.612},
		}

		out := string(MatchesToText(matches))
		if !strings.Contains(out, "1. [0.95] Queen - Bohemian Rhapsody") {
			t.Errorf("unexpected first match line:\n%s", out)
		}
		if !strings.Contains(out, "2. [0.61] Queen - Somebody to Love") {
			t.Errorf("unexpected second match line:\n%s", out)
		}
	})
}

func TestQueueToText(t *testing.T) {
	entries := []queue.Entry{
		{Track: sampleTracks()[0]},
		{Track: sampleTracks()[1], OffsetMS: 42000},
		{Track: models.Track{Title: "Broken", Artist: "X", Source: "plex"}, Failed: true},
	}

	t.Run("renders header with count, mode and state", func(t *testing.T) {
		out := string(QueueToText(entries, 1, models.ModeShuffle, models.StatePlaying))
		if !strings.HasPrefix(out, "Queue: 3 tracks | mode: shuffle | state: playing") {
			t.Errorf("unexpected header:\n%s", out)
		}
	})

	t.Run("marks the active entry and its offset", func(t *testing.T) {
		out := string(QueueToText(entries, 1, models.ModeLinear, models.StatePlaying))
		if !strings.Contains(out, "▶ 2. Queen - Somebody to Love") {
			t.Errorf("active entry not marked:\n%s", out)
		}
		if !strings.Contains(out, "@ 0:42") {
			t.Errorf("offset not rendered:\n%s", out)
		}
	})

	t.Run("marks failed entries", func(t *testing.T) {
		out := string(QueueToText(entries, 0, models.ModeLinear, models.StatePlaying))
		if !strings.Contains(out, "✗ 3. X - Broken") {
			t.Errorf("failed entry not marked:\n%s", out)
		}
	})

	t.Run("renders empty queue placeholder", func(t *testing.T) {
		out := string(QueueToText(nil, -1, models.ModeLinear, models.StateStopped))
		if !strings.Contains(out, "(empty)") {
			t.Errorf("expected empty placeholder:\n%s", out)
		}
	})
}

func TestPlayResultToText(t *testing.T) {
	t.Run("found result shows match, head and remainder", func(t *testing.T) {
		tracks := sampleTracks()
		result := &tasks.PlayResult{
			Status:    tasks.StatusFound,
			Match:     &tasks.Match{Track: tracks[0], Score: 0.95},
			Head:      tracks,
			Remainder: 10,
		}

		out := string(PlayResultToText(result))
		if !strings.Contains(out, "Matched: Queen - Bohemian Rhapsody [0.95, subsonic]") {
			t.Errorf("match line missing:\n%s", out)
		}
		if !strings.Contains(out, "Now playing 2 track(s), 10 more resolving in the background") {
			t.Errorf("summary line missing:\n%s", out)
		}
	})

	t.Run("not found result is a single line", func(t *testing.T) {
		out := string(PlayResultToText(&tasks.PlayResult{Status: tasks.StatusNotFound}))
		if out != "No match found.\n" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("unreachable result is distinct from not found", func(t *testing.T) {
		out := string(PlayResultToText(&tasks.PlayResult{Status: tasks.StatusAllSourcesUnreachable}))
		if out != "No media source is reachable.\n" {
			t.Errorf("unexpected output: %q", out)
		}
	})
}
