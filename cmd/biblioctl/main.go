// Command biblioctl manages a biblioteca library from the shell: listing,
// exporting and importing quotes, exporting reading logs, reporting tag
// usage and the monthly budget, and loading the sample library.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

// Version is injected via ldflags.
var Version = "dev"

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "biblioctl",
		Usage:     "Manage a biblioteca library from the command line",
		Version:   Version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"p"},
				Value:   "local",
				Usage:   "Configuration profile (configs/<profile>.yaml)",
				EnvVars: []string{"APP_ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Storage driver override: memory, sqlite or postgres",
			},
			&cli.StringFlag{
				Name:    "dsn",
				Aliases: []string{"d"},
				Usage:   "Storage DSN override (SQLite path or Postgres URL)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of tables",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "quotes",
				Usage: "Work with quotes",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List quotes",
						Flags:  quoteFilterFlags(),
						Action: withLibrary(listQuotes),
					},
					{
						Name:  "export",
						Usage: "Export quotes as CSV",
						Flags: append(quoteFilterFlags(), &cli.StringFlag{
							Name:    "output",
							Aliases: []string{"o"},
							Usage:   "Output file (default: stdout)",
						}),
						Action: withLibrary(exportQuotes),
					},
					{
						Name:      "import",
						Usage:     "Import quotes from CSV",
						ArgsUsage: "<csv-file|->",
						Action:    withLibrary(importQuotes),
					},
				},
			},
			{
				Name:  "logs",
				Usage: "Work with reading logs",
				Subcommands: []*cli.Command{
					{
						Name:  "export",
						Usage: "Export reading logs as CSV",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:    "status",
								Aliases: []string{"s"},
								Usage:   "Only logs with this status (repeatable)",
							},
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file (default: stdout)",
							},
						},
						Action: withLibrary(exportLogs),
					},
				},
			},
			{
				Name:   "tags",
				Usage:  "Show tag usage",
				Action: withLibrary(showTags),
			},
			{
				Name:  "budget",
				Usage: "Show this month's spending against the budget",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:    "budget",
						Aliases: []string{"b"},
						Usage:   "Monthly budget override",
					},
				},
				Action: withLibrary(showBudget),
			},
			{
				Name:   "seed",
				Usage:  "Load the sample library into empty collections",
				Action: withLibrary(seedLibrary),
			},
		},
	}
}

func quoteFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"q"},
			Usage:   "Match quote text, book or author",
		},
		&cli.StringSliceFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "Match any of these tags (repeatable)",
		},
		&cli.BoolFlag{
			Name:    "favorites",
			Aliases: []string{"f"},
			Usage:   "Only favorite quotes",
		},
	}
}
