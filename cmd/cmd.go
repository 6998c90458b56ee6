// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("SESH_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("SESH_LOG_LEVEL"),
		},
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "login",
			Aliases: []string{"l"},
			Usage:   "Username, email or phone",
			Sources: cli.EnvVars("SESH_LOGIN"),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Password",
			Sources: cli.EnvVars("SESH_PASSWORD"),
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether they have been applied",
				Action: r.SetupStatus,
			},
		},
	}
}

// authCommand handles session lifecycle operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and record credential expiries",
				Flags:  append(credentialFlags(), jsonFlag()),
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: append(credentialFlags(),
					&cli.StringFlag{Name: "email", Usage: "Email address (required)"},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					jsonFlag(),
				),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Notify the server and clear local session state",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show recorded credential expiries",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// requestCommand sends one authenticated request
func requestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "request",
		Aliases: []string{"req"},
		Usage:   "Send an authenticated request, refreshing the access credential when needed",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: append(credentialFlags(),
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"X"},
				Usage:   "HTTP method",
				Value:   "GET",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON body to send",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		),
		Action: r.Request,
	}
}

// eventsCommand inspects the session event log
func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Session event log",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the most recent session events",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events to show",
						Value: 20,
					},
					jsonFlag(),
				},
				Action: r.EventsList,
			},
			{
				Name:  "prune",
				Usage: "Delete events older than a duration",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age cutoff",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.EventsPrune,
			},
			{
				Name:  "export",
				Usage: "Write the event log to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: session_events.<ext>)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events to export",
						Value: 1000,
					},
				},
				Action: r.EventsExport,
			},
		},
	}
}

// monitorCommand watches the session in the foreground
func monitorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Keep the session alive, refreshing the access credential as it lapses",
		Flags: append(credentialFlags(),
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)",
			},
		),
		Action: r.Monitor,
	}
}

// serveCommand runs the development backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development session backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides server.port)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive session dashboard",
		Action:  r.TUI,
	}
}
