package main

import (
	"log/slog"
	"os"

	"github.com/ar90n/kdtree/config"
	"github.com/ar90n/kdtree/internal/logging"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
)

func dtypeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "dtype",
		Value: "float64",
		Usage: "coordinate type (float32, float64, int64)",
	}
}

func splitterFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "splitter",
		Usage: "split heuristic (median, variance, round-robin)",
	}
}

func treeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "tree",
		Value: "kdtree.serialized",
		Usage: "serialized tree file (.zst and .lz4 are compressed)",
	}
}

func maxGoroutinesFlag() cli.Flag {
	return &cli.UintFlag{
		Name:  "max-goroutines",
		Usage: "concurrent queries (0 means one per CPU)",
	}
}

// loadSettings reads the config file named by --config and applies the
// command line overrides on top of it.
func loadSettings(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, nil, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("splitter") {
		cfg.Splitter = c.String("splitter")
	}
	if c.IsSet("max-goroutines") {
		cfg.Query.MaxGoroutines = c.Uint("max-goroutines")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	logger, err := logging.New(c.App.ErrWriter, cfg.Log)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "kdtree",
		HelpName:  "kdtree",
		Usage:     "build and query kd-trees",
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "build a tree from a CSV point file",
				UsageText: "kdtree build [command options]",
				Action:    buildAction,
				Flags: []cli.Flag{
					dtypeFlag(),
					splitterFlag(),
					&cli.StringFlag{
						Name:     "input",
						Usage:    "CSV file with one point per line",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Value: "kdtree.serialized",
						Usage: "output tree file",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "answer nearest neighbor queries from a CSV file",
				UsageText: "kdtree query [command options]",
				Action:    queryAction,
				Flags: []cli.Flag{
					dtypeFlag(),
					splitterFlag(),
					treeFlag(),
					maxGoroutinesFlag(),
					&cli.StringFlag{
						Name:     "input",
						Usage:    "CSV file with one query point per line",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Value: "answers.txt",
						Usage: "output file with one point index per line",
					},
				},
			},
			{
				Name:      "sanity",
				Usage:     "compare tree answers with a brute force scan",
				UsageText: "kdtree sanity [command options]",
				Action:    sanityAction,
				Flags: []cli.Flag{
					dtypeFlag(),
					splitterFlag(),
					maxGoroutinesFlag(),
					&cli.StringFlag{
						Name:     "data",
						Usage:    "CSV file with the tree points",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "queries",
						Usage:    "CSV file with the query points",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "tree",
						Usage: "serialized tree to check instead of building one from --data",
					},
				},
			},
			{
				Name:      "render",
				Usage:     "draw a serialized tree with graphviz",
				UsageText: "kdtree render [command options]",
				Action:    renderAction,
				Flags: []cli.Flag{
					dtypeFlag(),
					treeFlag(),
					&cli.StringFlag{
						Name:  "output",
						Value: "kdtree.svg",
						Usage: "output image (.dot, .svg, .png or .jpg)",
					},
				},
			},
			{
				Name:      "serve",
				Usage:     "serve nearest neighbor queries over HTTP",
				UsageText: "kdtree serve [command options]",
				Action:    serveAction,
				Flags: []cli.Flag{
					dtypeFlag(),
					splitterFlag(),
					&cli.StringFlag{
						Name:  "tree",
						Usage: "serialized tree file",
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address",
					},
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("kdtree failed", "error", err)
		os.Exit(1)
	}
}

var errUnknownDtype = errors.New("unknown dtype")
