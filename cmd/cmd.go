// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// tuiCommand returns the top-level TUI command for the interactive mixer.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive mixer",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-connect",
				Usage: "Start disconnected; press c to connect",
			},
		},
		Action: r.TUI,
	}
}

// shellCommand returns the line-mode prompt.
func shellCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Aliases: []string{"sh"},
		Usage:   "Control the mixer from a command prompt",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-connect",
				Usage: "Start disconnected; type connect to connect",
			},
		},
		Action: r.Shell,
	}
}

// watchCommand prints inbound events.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print every event the music server sends until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print events as JSON frames",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after this many events (0 means no limit)",
			},
		},
		Action: r.Watch,
	}
}

// sendCommand sends one command and exits.
func sendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Connect, send one command and disconnect",
		ArgsUsage: "master VOLUME | volume GROUP TRACKLIST VOLUME | play GROUP TRACKLIST | stop",
		Action:    r.Send,
	}
}

// openCommand opens the server's web page.
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "open",
		Usage:  "Open the music server in the system browser",
		Action: r.Open,
	}
}

// serveCommand runs the stand-in music server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a stand-in music server with the configured track lists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (defaults to serve.listen)",
			},
			&cli.BoolFlag{
				Name:  "advertise",
				Usage: "Advertise the server over mDNS",
			},
			&cli.DurationFlag{
				Name:  "finish-after",
				Usage: "End playback after this long (0 plays until stopped)",
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: "SQLite file to keep volumes in between runs (defaults to serve.state_file)",
			},
		},
		Action: r.Serve,
	}
}

// discoverCommand browses for advertised servers.
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List music servers advertised on the local network",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to listen for advertisements",
				Value: discoverTimeout,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.Discover,
	}
}

// configCommand handles configuration operations.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write the example configuration to the config path",
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON instead of TOML",
					},
				},
				Action: r.ConfigShow,
			},
			{
				Name:  "layout",
				Usage: "List the configured track lists with their server addresses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, json, csv)",
						Value:   "text",
					},
				},
				Action: r.ConfigLayout,
			},
		},
	}
}
