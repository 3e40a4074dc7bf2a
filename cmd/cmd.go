// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/desertthunder/segue/internal/models"
	"github.com/urfave/cli/v3"
)

// playFlags are shared by every play subcommand.
func playFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Usage:   "Playback mode (linear, repeat-one, repeat-all, shuffle)",
			Value:   "linear",
		},
		&cli.BoolFlag{
			Name:  "append",
			Usage: "Append to the queue instead of replacing it",
		},
		&cli.BoolFlag{
			Name:  "wait",
			Usage: "Block until background population finishes",
		},
		&cli.BoolFlag{
			Name:  "ui",
			Usage: "Open the interactive queue inspector after starting playback",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// playCommand resolves a query across backends and populates the queue.
func playCommand(r *Runner) *cli.Command {
	queryKinds := []struct {
		name    string
		aliases []string
		usage   string
		kind    models.QueryKind
	}{
		{"artist", nil, "Play tracks by an artist", models.QueryArtist},
		{"album", nil, "Play an album", models.QueryAlbum},
		{"song", []string{"track"}, "Play a song and similar matches", models.QueryTrack},
		{"genre", nil, "Play tracks from a genre", models.QueryGenre},
		{"playlist", nil, "Play a named playlist", models.QueryPlaylist},
	}

	commands := []*cli.Command{}
	for _, qk := range queryKinds {
		kind := qk.kind
		commands = append(commands, &cli.Command{
			Name:    qk.name,
			Aliases: qk.aliases,
			Usage:   qk.usage,
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "query"},
			},
			Flags: playFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return r.PlayQuery(ctx, cmd, kind)
			},
		})
	}

	commands = append(commands,
		&cli.Command{
			Name:  "random",
			Usage: "Play random tracks from the library",
			Flags: append(playFlags(), &cli.IntFlag{
				Name:  "count",
				Usage: "Number of tracks to queue (0 uses min_tracks)",
			}),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return r.PlayLibrary(ctx, cmd, models.CollectionRandom)
			},
		},
		&cli.Command{
			Name:    "starred",
			Aliases: []string{"favorites"},
			Usage:   "Play starred tracks",
			Flags: append(playFlags(), &cli.IntFlag{
				Name:  "count",
				Usage: "Number of tracks to queue (0 uses min_tracks)",
			}),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return r.PlayLibrary(ctx, cmd, models.CollectionStarred)
			},
		},
	)

	return &cli.Command{
		Name:     "play",
		Usage:    "Resolve a query and start a playback session",
		Commands: commands,
	}
}

// searchCommand ranks candidates across backends without touching the queue.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search all backends and show ranked matches",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Query kind (artist, album, track, genre, playlist)",
				Value:   "track",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// queueCommand inspects and mutates the playback queue.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Inspect the playback queue (interactive by default)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print a one-shot snapshot instead of the interactive view",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the snapshot as JSON (implies --plain)",
			},
		},
		Action: r.QueueShow,
		Commands: []*cli.Command{
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.QueueNext,
			},
			{
				Name:    "prev",
				Aliases: []string{"previous"},
				Usage:   "Go back one track (restarts the current one past the threshold)",
				Action:  r.QueuePrev,
			},
			{
				Name:  "mode",
				Usage: "Switch the playback mode",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "mode"},
				},
				Action: r.QueueMode,
			},
			{
				Name:   "clear",
				Usage:  "Empty the queue and stop background population",
				Action: r.QueueClear,
			},
		},
	}
}

// backendsCommand reports on configured backend services.
func backendsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backends",
		Usage: "Inspect configured media backends",
		Commands: []*cli.Command{
			{
				Name:  "ping",
				Usage: "Check that every enabled backend is reachable",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BackendsPing,
			},
		},
	}
}

// setupCommand handles setup operations for the track-cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the track cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// configCommand manages the TOML configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a starter config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ConfigShow,
			},
		},
	}
}
