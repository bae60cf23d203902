// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and the artist registry.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the artist registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Action: r.Setup,
	}
}

// authCommand connects a Spotify account.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize newnoise with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the callback",
				Value: defaultAuthTimeout,
			},
		},
		Action: r.Auth,
	}
}

// artistsCommand manages the tracked artist registry.
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "artists",
		Aliases: []string{"a"},
		Usage:   "Manage tracked artists",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Search each name and track the first match",
				ArgsUsage: "NAME[, NAME...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArtistsAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Stop tracking artists by name or id",
				ArgsUsage: "NAME|ID[, NAME|ID...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArtistsRemove,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tracked artists in insertion order",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv or markdown",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead; the format follows the extension",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ArtistsList,
			},
			{
				Name:   "import",
				Usage:  "Track every artist the Spotify account follows",
				Action: r.ArtistsImport,
			},
		},
	}
}

// updateCommand runs one update cycle.
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Add new releases to New Noise and New Noise Archive",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Classify tracks without modifying either playlist",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the cycle report to a .txt, .csv or .md file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Update,
	}
}

// cleanCommand prunes the archive playlist.
func cleanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "Remove archive tracks released before the archive window",
		Action: r.Clean,
	}
}

// scheduleCommand runs update cycles on a cron schedule until interrupted.
func scheduleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run update cycles on a schedule (daily at midnight by default)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "spec",
				Usage: "Five field cron spec; defaults to schedule.spec",
			},
			&cli.BoolFlag{
				Name:  "run-now",
				Usage: "Run one cycle before waiting for the first tick",
			},
		},
		Action: r.Schedule,
	}
}

// tuiCommand returns the top-level TUI command for the interactive menu.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive menu",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the menu is open",
				Value: "./tmp/newnoise-tui.log",
			},
		},
		Action: r.TUI,
	}
}
