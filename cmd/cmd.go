// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func componentArg() cli.Argument {
	return &cli.StringArg{Name: "component"}
}

// serveCommand runs the tracker server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the tracker API, WebSocket stream and notification workers",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Path to the component catalog (overrides tracker.catalog_path)",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.host and server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// catalogCommand inspects the component catalog without a running server.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the component catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog components and their derived tasks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "Path to the component catalog (overrides tracker.catalog_path)",
					},
					&cli.BoolFlag{
						Name:  "tasks",
						Usage: "Show each component's task list",
					},
					jsonFlag(),
				},
				Action: r.CatalogList,
			},
		},
	}
}

// trackCommand records progress through the tracker API.
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Record migration progress",
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Start tracking a component",
				Arguments: []cli.Argument{componentArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TrackStart,
			},
			{
				Name:      "progress",
				Usage:     "Set a component's progress percentage",
				Arguments: []cli.Argument{componentArg()},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "percent",
						Aliases:  []string{"p"},
						Usage:    "Progress percentage (0-100)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "phase",
						Usage: "Current phase name",
					},
					jsonFlag(),
				},
				Action: r.TrackProgress,
			},
			{
				Name:      "task",
				Usage:     "Mark a task as completed",
				Arguments: []cli.Argument{componentArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "task",
						Aliases:  []string{"t"},
						Usage:    "Task description as listed in the remaining tasks",
						Required: true,
					},
					jsonFlag(),
				},
				Action: r.TrackTask,
			},
			{
				Name:      "issue",
				Usage:     "Record an issue",
				Arguments: []cli.Argument{componentArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "description",
						Aliases:  []string{"d"},
						Usage:    "Issue description",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "severity",
						Aliases: []string{"s"},
						Usage:   "Issue severity (low, medium or high)",
						Value:   "medium",
					},
					jsonFlag(),
				},
				Action: r.TrackIssue,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve an issue by index",
				Arguments: []cli.Argument{componentArg()},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Issue index",
						Required: true,
					},
					jsonFlag(),
				},
				Action: r.TrackResolve,
			},
			{
				Name:      "complete",
				Usage:     "Mark a component as completed",
				Arguments: []cli.Argument{componentArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TrackComplete,
			},
			{
				Name:  "apply",
				Usage: "Replay a JSON plan of tracking steps",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "plan"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Components applied concurrently",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Maximum steps per second",
						Value: 10,
					},
					jsonFlag(),
				},
				Action: r.TrackApply,
			},
		},
	}
}

// statusCommand prints overall progress.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show overall migration progress",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "component"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Status,
	}
}

// logsCommand prints recorded notifications.
func logsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Show recent tracking events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "component",
				Usage: "Only show events for this component",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of events",
				Value:   20,
			},
			jsonFlag(),
		},
		Action: r.Logs,
	}
}

// reportCommand exports and reads stored reports.
func reportCommand(r *Runner) *cli.Command {
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (json, csv, markdown, text)",
		Value:   "text",
	}
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the rendered report to this file",
	}

	return &cli.Command{
		Name:  "report",
		Usage: "Export and inspect progress reports",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Store a report of the current state",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "label",
						Aliases: []string{"l"},
						Usage:   "Report label",
					},
					&cli.BoolFlag{
						Name:  "write-file",
						Usage: "Also write the server's durable JSON report file",
					},
					formatFlag,
					outputFlag,
				},
				Action: r.ReportExport,
			},
			{
				Name:  "list",
				Usage: "List stored reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "label",
						Usage: "Only show reports with this label",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of reports",
						Value:   20,
					},
					jsonFlag(),
				},
				Action: r.ReportList,
			},
			{
				Name:  "show",
				Usage: "Render a stored report (id, sequence or latest)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref", Value: "latest"},
				},
				Flags:  []cli.Flag{formatFlag, outputFlag},
				Action: r.ReportShow,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the tracker API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the tracker API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// watchCommand returns the top-level dashboard command.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"dashboard", "ui"},
		Usage:   "Live dashboard fed by the server's snapshot stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the dashboard writes its logs",
				Value: "./tmp/migtrack-watch.log",
			},
		},
		Action: r.Watch,
	}
}
