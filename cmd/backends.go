package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// BackendsPing checks reachability of every enabled backend concurrently.
func (r *Runner) BackendsPing(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.session(); err != nil {
		return err
	}

	results := r.resolver.Ping(ctx)

	if cmd.Bool("json") {
		report := make(map[string]string, len(results))
		for name, err := range results {
			if err != nil {
				report[name] = err.Error()
			} else {
				report[name] = "ok"
			}
		}
		return r.writeJSON(report, true)
	}

	for _, name := range r.resolver.Backends() {
		if err := results[name]; err != nil {
			r.writePlain("✗ %s: %v\n", name, err)
		} else {
			r.writePlain("✓ %s: ok\n", name)
		}
	}

	return nil
}
