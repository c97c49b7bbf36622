// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes configuration and the local database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
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

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify library operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.SpotifyAuth,
			},
			{
				Name:  "saved",
				Usage: "List saved artists, albums or tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "tier",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "recent",
						Usage: "Only the most recently changed page",
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
				Action: r.SpotifySaved,
			},
		},
	}
}

// syncCommand reconciles the remote library into the vault
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the remote library into the vault",
		Commands: []*cli.Command{
			{
				Name:   "full",
				Usage:  "Full pass: refresh all notes and recompute library membership",
				Action: r.SyncFull,
			},
			{
				Name:    "incremental",
				Aliases: []string{"inc"},
				Usage:   "Incremental pass: ingest recently saved items only",
				Action:  r.SyncIncremental,
			},
			{
				Name:  "log",
				Usage: "Show recent sync passes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of passes to show",
						Value: 10,
					},
					&cli.StringFlag{
						Name:    "export",
						Aliases: []string{"o"},
						Usage:   "Export to file instead of printing",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: text, markdown or csv",
						Value: "text",
					},
				},
				Action: r.SyncLog,
			},
		},
	}
}

// scanCommand indexes local audio files for track matching
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Index a local music directory for track matching",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "dir",
			},
		},
		Action: r.Scan,
	}
}

// vaultCommand inspects the note vault
func vaultCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "vault",
		Usage: "Vault operations",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the tier folders under the vault root",
				Action: r.VaultInit,
			},
			{
				Name:  "stats",
				Usage: "Per-tier note counts and library membership",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.VaultStats,
			},
		},
	}
}

// tuiCommand launches the interactive browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse the vault and run passes interactively",
		Action: r.TUI,
	}
}
