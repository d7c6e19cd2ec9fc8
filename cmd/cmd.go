// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command. Without a subcommand it runs the interactive prompt.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlistdl",
		Usage:   "Download Spotify and YouTube playlists as audio files",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Plain line output instead of the progress monitor",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, or error",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if lvl := cmd.String("log-level"); lvl != "" {
				shared.SetLogLevel(r.logger, shared.ParseLogLevel(lvl))
			}
			return ctx, nil
		},
		Action:   r.Prompt,
		Commands: r.register(),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Aliases:  []string{"u"},
			Usage:    "Link to download",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Download directory (defaults to downloads.directory)",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a batch report next to the files: json, yaml, csv, markdown, txt",
		},
	}
}

// spotifyCommand downloads Spotify playlists, albums, and tracks
func spotifyCommand(r *Runner) *cli.Command {
	flags := append(downloadFlags(),
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "Spotify client ID",
			Sources: cli.EnvVars("SPOTIFY_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:    "client-secret",
			Usage:   "Spotify client secret",
			Sources: cli.EnvVars("SPOTIFY_CLIENT_SECRET"),
		},
	)

	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Download a Spotify playlist, album, or track as audio from YouTube",
		Flags:   flags,
		Action:  r.Spotify,
	}
}

// youtubeCommand downloads YouTube videos and playlists
func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "youtube",
		Aliases: []string{"yt"},
		Usage:   "Download the audio of a YouTube video or playlist",
		Flags:   downloadFlags(),
		Action:  r.YouTube,
	}
}

func promptCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "prompt",
		Usage:  "Ask for a service and link, then download",
		Action: r.Prompt,
	}
}

func guiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "gui",
		Usage:  "Open the desktop window",
		Action: r.GUI,
	}
}

func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open the download folder in the file manager",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Folder to open (defaults to downloads.directory)",
			},
		},
		Action: r.Open,
	}
}

// historyCommand inspects the download history
func historyCommand(r *Runner) *cli.Command {
	batchFlag := &cli.StringFlag{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "Only records of this batch",
	}
	statusFlag := &cli.StringFlag{
		Name:  "status",
		Usage: "Only records with this status: fetched, no_match, failed",
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Inspect and export the download history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded downloads, newest first",
				Flags: []cli.Flag{
					batchFlag,
					statusFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records",
						Value: 50,
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "batches",
				Usage: "Summarize recent batches",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of batches",
						Value: 20,
					},
				},
				Action: r.HistoryBatches,
			},
			{
				Name:  "export",
				Usage: "Export recorded downloads",
				Flags: []cli.Flag{
					batchFlag,
					statusFlag,
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, yaml, csv, markdown, or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults to stdout)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records (0 for all)",
					},
				},
				Action: r.HistoryExport,
			},
			{
				Name:  "clear",
				Usage: "Delete recorded downloads",
				Flags: []cli.Flag{
					batchFlag,
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Delete every record",
					},
				},
				Action: r.HistoryClear,
			},
		},
	}
}

// setupCommand prepares config, database, and yt-dlp
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database, and yt-dlp",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the bundled template",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "client-id", Usage: "Spotify client ID to store"},
					&cli.StringFlag{Name: "client-secret", Usage: "Spotify client secret to store"},
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create the history database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "rollback", Usage: "Revert the most recent migration instead"},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "ytdlp",
				Usage:  "Install or update the yt-dlp binary",
				Action: r.SetupYTDLP,
			},
		},
	}
}
