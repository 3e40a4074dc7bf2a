package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/segue/internal/formatter"
	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/shared"
	"github.com/urfave/cli/v3"
)

// queueSnapshot is the JSON shape of a one-shot queue dump.
type queueSnapshot struct {
	Entries []queue.Entry `json:"entries"`
	Current int           `json:"current"`
	Mode    string        `json:"mode"`
	State   string        `json:"state"`
}

// QueueShow renders the queue: interactive inspector by default, a one-shot
// snapshot with --plain or --json.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.session()
	if err != nil {
		return err
	}

	if !cmd.Bool("plain") && !cmd.Bool("json") {
		return r.openInspector(ctx)
	}

	q := engine.Queue()
	entries, current := q.Snapshot()

	if cmd.Bool("json") {
		return r.writeJSON(queueSnapshot{
			Entries: entries,
			Current: current,
			Mode:    q.Mode().String(),
			State:   q.State().String(),
		}, true)
	}

	return r.writePlain("%s", formatter.QueueToText(entries, current, q.Mode(), q.State()))
}

// QueueNext skips to the next playable entry.
func (r *Runner) QueueNext(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.session()
	if err != nil {
		return err
	}

	entry, err := engine.SkipCurrent(ctx)
	if errors.Is(err, shared.ErrQueueEmpty) {
		return r.writePlain("Queue is empty.\n")
	}
	if err != nil {
		return err
	}

	return r.writePlain("Now playing: %s - %s [%s]\n", entry.Track.Artist, entry.Track.Title, entry.Track.Source)
}

// QueuePrev goes back one entry, or restarts the current one when far enough in.
func (r *Runner) QueuePrev(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.session()
	if err != nil {
		return err
	}

	entry, err := engine.Queue().Rewind()
	if errors.Is(err, shared.ErrQueueEmpty) {
		return r.writePlain("Queue is empty.\n")
	}
	if err != nil {
		return err
	}

	return r.writePlain("Now playing: %s - %s [%s]\n", entry.Track.Artist, entry.Track.Title, entry.Track.Source)
}

// QueueMode switches the advance policy.
func (r *Runner) QueueMode(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("mode")
	if arg == "" {
		return fmt.Errorf("%w: mode", shared.ErrMissingArgument)
	}

	mode, err := models.ParsePlayMode(arg)
	if err != nil {
		return err
	}

	engine, err := r.session()
	if err != nil {
		return err
	}

	engine.Queue().SetMode(mode)
	return r.writePlain("Playback mode: %s\n", mode)
}

// QueueClear stops background population and empties the queue.
func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.session()
	if err != nil {
		return err
	}

	engine.Stop()
	engine.Queue().Clear()
	return r.writePlain("Queue cleared.\n")
}
