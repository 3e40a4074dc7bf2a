package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/segue/internal/formatter"
	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
	"github.com/desertthunder/segue/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlayQuery resolves a free-text query of the given kind across every enabled
// backend, enqueues the head slice synchronously and hands the remainder to
// the background populator.
func (r *Runner) PlayQuery(ctx context.Context, cmd *cli.Command, kind models.QueryKind) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	mode, err := models.ParsePlayMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	engine, err := r.session()
	if err != nil {
		return err
	}

	result, err := engine.ResolveAndEnqueue(ctx, tasks.PlayRequest{
		Kind:   kind,
		Query:  query,
		Mode:   mode,
		Append: cmd.Bool("append"),
	})
	if err != nil {
		return fmt.Errorf("play failed: %w", err)
	}

	return r.finishPlay(ctx, cmd, result)
}

// PlayLibrary fills the queue from a library collection (random or starred)
// with no search phase.
func (r *Runner) PlayLibrary(ctx context.Context, cmd *cli.Command, kind models.CollectionKind) error {
	mode, err := models.ParsePlayMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	engine, err := r.session()
	if err != nil {
		return err
	}

	result, err := engine.EnqueueLibrary(ctx, tasks.LibraryRequest{
		Kind:  kind,
		Mode:  mode,
		Count: int(cmd.Int("count")),
	})
	if err != nil {
		return fmt.Errorf("play failed: %w", err)
	}

	return r.finishPlay(ctx, cmd, result)
}

// finishPlay renders the result, then either opens the inspector or waits for
// the background batch, per flags. Not-found and unreachable are statuses the
// user reads, not command failures.
func (r *Runner) finishPlay(ctx context.Context, cmd *cli.Command, result *tasks.PlayResult) error {
	if cmd.Bool("json") {
		if err := r.writeJSON(result, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else if err := r.writePlain("%s", formatter.PlayResultToText(result)); err != nil {
		return err
	}

	if result.Status != tasks.StatusFound {
		return nil
	}

	if cmd.Bool("ui") {
		return r.openInspector(ctx)
	}

	if cmd.Bool("wait") && result.JobID != "" && r.supervisor != nil {
		if job := r.supervisor.Live(); job != nil {
			r.logger.Info("waiting for background population", "job_id", job.ID(), "total", job.Total())
			select {
			case <-job.Done():
				r.writePlain("Queue populated: %d added, %d skipped\n", job.Resolved(), job.Failed())
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}
