package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/chmdznr/syncstat/internal/audit"
	"github.com/chmdznr/syncstat/internal/config"
	"github.com/chmdznr/syncstat/internal/db"
	"github.com/chmdznr/syncstat/pkg/models"
	"github.com/chmdznr/syncstat/pkg/version"
)

// Exit codes
const (
	exitFailure     = 1
	exitInvalidData = 2
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(exitFailure)
	}
}

type runner struct {
	log *logrus.Logger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	r := &runner{}

	return &cli.App{
		Name:                 "syncstat",
		Usage:                "Inspect sync status labels stored by offline-first clients",
		Version:              version.Version,
		EnableBashCompletion: true,
		Writer:               stdout,
		ErrWriter:            stderr,
		ExitErrHandler:       func(*cli.Context, error) {}, // main picks the exit code
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file listing the database and tables",
				EnvVars: []string{"SYNCSTAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database path, overrides the config file",
				EnvVars: []string{"SYNCSTAT_DB"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"SYNCSTAT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
				Value: "text",
			},
		},
		Before: func(c *cli.Context) error {
			logg, err := config.NewLogger(c.String("log-level"), c.String("log-format"), c.App.ErrWriter)
			if err != nil {
				return err
			}
			r.log = logg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, version.Info())
					return nil
				},
			},
			{
				Name:   "codes",
				Usage:  "List every sync status with its code and predicates",
				Action: r.showCodes,
			},
			{
				Name:      "decode",
				Usage:     "Explain sync status codes or names",
				ArgsUsage: "<code|name>...",
				Action:    r.decode,
			},
			{
				Name:   "status",
				Usage:  "Show sync status counts per table",
				Flags:  []cli.Flag{tableFlag()},
				Action: r.showStatus,
			},
			{
				Name:  "pending",
				Usage: "List records waiting for a push",
				Flags: []cli.Flag{
					tableFlag(),
					&cli.StringFlag{
						Name:     "op",
						Usage:    "Operation: create, update or delete",
						Required: true,
					},
				},
				Action: r.listPending,
			},
			{
				Name:   "errors",
				Usage:  "List records whose last push failed",
				Flags:  []cli.Flag{tableFlag()},
				Action: r.listErrors,
			},
			{
				Name:  "check",
				Usage: "Scan tables for unknown sync status codes",
				Flags: []cli.Flag{
					tableFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of tables scanned in parallel",
						Value: audit.DefaultAuditorConfig().NumWorkers,
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show a progress bar per table",
					},
				},
				Action: r.check,
			},
		},
	}
}

func tableFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "table",
		Aliases: []string{"t"},
		Usage:   "Restrict to these tables (or name tables when no config is given)",
	}
}

// target resolves the database and tables named by the global flags.
func (r *runner) target(c *cli.Context) (*db.DB, []models.Table, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.Database
	}
	if dbPath == "" {
		return nil, nil, errors.New("database path is required (--db or config file)")
	}

	tables, err := selectTables(cfg, c.StringSlice("table"))
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Open(dbPath, r.log)
	if err != nil {
		return nil, nil, err
	}
	return database, tables, nil
}

func selectTables(cfg *config.Config, names []string) ([]models.Table, error) {
	if len(names) == 0 {
		if len(cfg.Tables) == 0 {
			return nil, errors.New("no tables given (--table or config file)")
		}
		return cfg.Tables, nil
	}

	tables := make([]models.Table, 0, len(names))
	for _, name := range names {
		if t, ok := cfg.Table(name); ok {
			tables = append(tables, t)
			continue
		}
		if len(cfg.Tables) > 0 {
			return nil, fmt.Errorf("table %q is not in the config file", name)
		}
		if !config.ValidIdentifier(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
		tables = append(tables, models.Table{Name: name}.WithDefaults())
	}
	return tables, nil
}
