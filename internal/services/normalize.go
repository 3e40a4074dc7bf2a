package services

import (
	"strconv"
	"strings"

	"github.com/desertthunder/segue/internal/models"
)

// FieldPaths declares, per metadata field, the ordered list of paths tried
// against a raw candidate payload. The first path that yields a usable value
// wins; later paths are fallbacks for sparser payloads. A path is a dot
// separated traversal where numeric segments index into arrays, e.g.
// "Media.0.Part.0.key".
type FieldPaths struct {
	Title      []string
	Artist     []string
	Album      []string
	Genre      []string
	Duration   []string
	Bitrate    []string
	CoverArt   []string
	StreamPath []string

	// DurationScale converts the payload's duration unit to milliseconds
	// (1000 for seconds, 1 for native milliseconds).
	DurationScale int
}

// lookupPath walks a dotted path through nested maps and slices, returning the
// value at the end or false when any segment is missing or mistyped.
func lookupPath(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// firstString returns the first path producing a non-empty string.
func firstString(data map[string]any, paths []string) string {
	for _, p := range paths {
		v, ok := lookupPath(data, p)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstInt returns the first path producing a positive integer. JSON numbers
// decode as float64 and some backends send numerics as strings, so both are
// accepted.
func firstInt(data map[string]any, paths []string) int {
	for _, p := range paths {
		v, ok := lookupPath(data, p)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				return int(n)
			}
		case int:
			if n > 0 {
				return n
			}
		case string:
			if parsed, err := strconv.Atoi(n); err == nil && parsed > 0 {
				return parsed
			}
		}
	}
	return 0
}

// normalizeCandidate maps a raw candidate payload onto a Track using the
// provider's field paths. ok is false when the payload lacks an ID or a title,
// which disqualifies it from ranking.
func normalizeCandidate(c models.Candidate, paths FieldPaths) (models.Track, bool) {
	scale := paths.DurationScale
	if scale == 0 {
		scale = 1
	}

	track := models.Track{
		ID:          c.ID,
		Title:       firstString(c.Meta, paths.Title),
		Artist:      firstString(c.Meta, paths.Artist),
		Album:       firstString(c.Meta, paths.Album),
		Genre:       firstString(c.Meta, paths.Genre),
		DurationMS:  firstInt(c.Meta, paths.Duration) * scale,
		Bitrate:     firstInt(c.Meta, paths.Bitrate),
		CoverArtURL: firstString(c.Meta, paths.CoverArt),
		StreamURL:   firstString(c.Meta, paths.StreamPath),
		Source:      c.Source,
	}

	if track.ID == "" || track.Title == "" {
		return models.Track{}, false
	}
	return track, true
}
