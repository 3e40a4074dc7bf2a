// package formatter renders tracks, matches and queue snapshots for CLI output (text, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/tasks"
)

// FormatDuration renders a millisecond duration as m:ss (or h:mm:ss past an hour).
// Zero and negative durations render as "-".
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "-"
	}

	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// ToJSON marshals any value for CLI output, optionally indented.
func ToJSON(v any, pretty bool) ([]byte, error) {
	var data []byte
	var err error

	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// TracksToText renders a numbered track listing with source and duration.
func TracksToText(tracks []models.Track) []byte {
	var buf bytes.Buffer

	for i, track := range tracks {
		line := fmt.Sprintf("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			line += fmt.Sprintf(" (%s)", track.Album)
		}
		line += fmt.Sprintf(" [%s, %s]", FormatDuration(track.DurationMS), track.Source)
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

// TracksToCSV renders tracks as CSV with columns: ID, Title, Artist, Album, Duration, Bitrate, Source
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Bitrate", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationMS),
			strconv.Itoa(track.Bitrate),
			track.Source,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// MatchesToText renders ranked matches with their similarity scores.
func MatchesToText(matches []tasks.Match) []byte {
	var buf bytes.Buffer

	for i, m := range matches {
		line := fmt.Sprintf("%d. [%.2f] %s - %s", i+1, m.Score, m.Track.Artist, m.Track.Title)
		if m.Track.Album != "" {
			line += fmt.Sprintf(" (%s)", m.Track.Album)
		}
		line += fmt.Sprintf(" [%s]", m.Track.Source)
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

// QueueToText renders a queue snapshot: header with mode/state/position, then the
// entries in natural order. The active entry is marked with "▶", failed entries
// with "✗". current is the natural index of the active entry, -1 when none.
func QueueToText(entries []queue.Entry, current int, mode models.PlayMode, state models.PlayState) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Queue: %d tracks | mode: %s | state: %s\n", len(entries), mode, state))
	if len(entries) == 0 {
		buf.WriteString("(empty)\n")
		return buf.Bytes()
	}

	for i, e := range entries {
		marker := " "
		switch {
		case e.Failed:
			marker = "✗"
		case i == current:
			marker = "▶"
		}

		line := fmt.Sprintf("%s %d. %s - %s [%s, %s]", marker, i+1, e.Track.Artist, e.Track.Title,
			FormatDuration(e.Track.DurationMS), e.Track.Source)
		if i == current && e.OffsetMS > 0 {
			line += fmt.Sprintf(" @ %s", FormatDuration(e.OffsetMS))
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

// PlayResultToText summarizes a play intent's outcome for the terminal.
func PlayResultToText(result *tasks.PlayResult) []byte {
	var buf bytes.Buffer

	switch result.Status {
	case tasks.StatusNotFound:
		buf.WriteString("No match found.\n")
		return buf.Bytes()
	case tasks.StatusAllSourcesUnreachable:
		buf.WriteString("No media source is reachable.\n")
		return buf.Bytes()
	}

	if result.Match != nil {
		buf.WriteString(fmt.Sprintf("Matched: %s - %s [%.2f, %s]\n",
			result.Match.Track.Artist, result.Match.Track.Title, result.Match.Score, result.Match.Track.Source))
	}

	buf.WriteString(fmt.Sprintf("Now playing %d track(s)", len(result.Head)))
	if result.Remainder > 0 {
		buf.WriteString(fmt.Sprintf(", %d more resolving in the background", result.Remainder))
	}
	buf.WriteString("\n")
	buf.Write(TracksToText(result.Head))

	return buf.Bytes()
}
