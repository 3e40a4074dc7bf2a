package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/segue/internal/queue"
)

var _ list.Item = entryItem{}

// entryItem wraps a [queue.Entry] to implement [list.Item].
type entryItem struct {
	entry   queue.Entry
	current bool
}

func (i entryItem) FilterValue() string { return i.entry.Track.Title }

func (i entryItem) Title() string {
	switch {
	case i.entry.Failed:
		return fmt.Sprintf("✗ %s", i.entry.Track.Title)
	case i.current:
		return fmt.Sprintf("▶ %s", i.entry.Track.Title)
	default:
		return i.entry.Track.Title
	}
}

func (i entryItem) Description() string {
	desc := i.entry.Track.Artist
	if i.entry.Track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.Track.Album)
	}
	return fmt.Sprintf("%s • %s", desc, i.entry.Track.Source)
}
