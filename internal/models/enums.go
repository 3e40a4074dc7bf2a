package models

import (
	"fmt"

	"github.com/desertthunder/segue/internal/shared"
)

// QueryKind classifies what a free-text voice query names.
type QueryKind int

const (
	QueryArtist QueryKind = iota
	QueryAlbum
	QueryTrack
	QueryGenre
	QueryPlaylist
)

var queryKindNames = map[QueryKind]string{
	QueryArtist:   "artist",
	QueryAlbum:    "album",
	QueryTrack:    "track",
	QueryGenre:    "genre",
	QueryPlaylist: "playlist",
}

func (k QueryKind) String() string {
	if name, ok := queryKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("QueryKind(%d)", int(k))
}

// ParseQueryKind maps a string to a QueryKind. "song" is accepted for track.
func ParseQueryKind(s string) (QueryKind, error) {
	switch s {
	case "artist":
		return QueryArtist, nil
	case "album":
		return QueryAlbum, nil
	case "track", "song":
		return QueryTrack, nil
	case "genre":
		return QueryGenre, nil
	case "playlist":
		return QueryPlaylist, nil
	default:
		return 0, fmt.Errorf("%w: unknown query kind %q", shared.ErrInvalidArgument, s)
	}
}

// PlayMode selects the advance/rewind policy of the playback queue.
type PlayMode int

const (
	ModeLinear PlayMode = iota
	ModeRepeatOne
	ModeRepeatAll
	ModeShuffle
)

var playModeNames = map[PlayMode]string{
	ModeLinear:    "linear",
	ModeRepeatOne: "repeat-one",
	ModeRepeatAll: "repeat-all",
	ModeShuffle:   "shuffle",
}

func (m PlayMode) String() string {
	if name, ok := playModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PlayMode(%d)", int(m))
}

// ParsePlayMode maps a string to a PlayMode, accepting common aliases
// ("normal" for linear, "loop" for repeat-all, "repeat" for repeat-one).
func ParsePlayMode(s string) (PlayMode, error) {
	switch s {
	case "linear", "normal", "":
		return ModeLinear, nil
	case "repeat-one", "repeat_one", "repeat":
		return ModeRepeatOne, nil
	case "repeat-all", "repeat_all", "loop":
		return ModeRepeatAll, nil
	case "shuffle":
		return ModeShuffle, nil
	default:
		return 0, fmt.Errorf("%w: unknown play mode %q", shared.ErrInvalidArgument, s)
	}
}

// PlayState is the device-facing playback status attached to the queue.
type PlayState int

const (
	StateStopped PlayState = iota
	StatePlaying
	StatePaused
)

var playStateNames = map[PlayState]string{
	StateStopped: "stopped",
	StatePlaying: "playing",
	StatePaused:  "paused",
}

func (s PlayState) String() string {
	if name, ok := playStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PlayState(%d)", int(s))
}

// CollectionKind identifies a track-bearing container on a backend.
type CollectionKind int

const (
	CollectionAlbum CollectionKind = iota
	CollectionArtist
	CollectionPlaylist
	CollectionGenre
	CollectionRandom
	CollectionStarred
)

var collectionKindNames = map[CollectionKind]string{
	CollectionAlbum:    "album",
	CollectionArtist:   "artist",
	CollectionPlaylist: "playlist",
	CollectionGenre:    "genre",
	CollectionRandom:   "random",
	CollectionStarred:  "starred",
}

func (k CollectionKind) String() string {
	if name, ok := collectionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CollectionKind(%d)", int(k))
}

// Collection references a container of tracks on a single backend.
// ID is a backend-native identifier (or a genre name for CollectionGenre);
// Limit bounds the number of track IDs returned, 0 meaning backend default.
type Collection struct {
	Kind  CollectionKind
	ID    string
	Limit int
}

// CollectionFor maps a query kind to the collection kind its best match expands into.
// Track queries expand directly from the ranked list and have no collection.
func CollectionFor(k QueryKind) (CollectionKind, bool) {
	switch k {
	case QueryArtist:
		return CollectionArtist, true
	case QueryAlbum:
		return CollectionAlbum, true
	case QueryGenre:
		return CollectionGenre, true
	case QueryPlaylist:
		return CollectionPlaylist, true
	default:
		return 0, false
	}
}
