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

// Search runs the ranked cross-backend search without touching the queue.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	kind, err := models.ParseQueryKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	engine, err := r.session()
	if err != nil {
		return err
	}

	result, err := engine.Search(ctx, kind, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	switch result.Status {
	case tasks.StatusNotFound:
		return r.writePlain("No match found for %q.\n", query)
	case tasks.StatusAllSourcesUnreachable:
		return r.writePlain("No media source is reachable.\n")
	}

	r.writePlain("%d match(es) for %q:\n", len(result.Matches), query)
	return r.writePlain("%s", formatter.MatchesToText(result.Matches))
}
