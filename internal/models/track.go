package models

// Track is a playable unit normalized from one backend's search or lookup result.
// Immutable once constructed; Source is always one of the configured backend names.
//
// StreamURL may be empty when the originating backend resolves stream locators
// lazily; callers go through the resolver at playback time in that case.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Genre       string `json:"genre,omitempty"`
	DurationMS  int    `json:"duration_ms,omitempty"`
	Bitrate     int    `json:"bitrate,omitempty"`
	StreamURL   string `json:"stream_url,omitempty"`
	CoverArtURL string `json:"cover_art_url,omitempty"`
	Source      string `json:"source"`
}

// Candidate is a single pre-normalization search hit from one backend.
//
// Meta holds the raw decoded payload; field names inside it vary by backend and
// backend version, so extraction goes through ordered fallback property paths.
// Candidates are discarded after normalization into a [Track].
type Candidate struct {
	Source string
	Kind   QueryKind
	ID     string
	Meta   map[string]any
}
