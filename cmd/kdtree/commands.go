package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/config"
	"github.com/ar90n/kdtree/internal/csvpoints"
	"github.com/ar90n/kdtree/internal/server"
	"github.com/ar90n/kdtree/linalg"
	"github.com/ar90n/kdtree/persist"
	"github.com/ar90n/kdtree/render"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

type action func(c *cli.Context) error

func dispatch(f32, f64, i64 action) cli.ActionFunc {
	return func(c *cli.Context) error {
		switch dtype := c.String("dtype"); dtype {
		case "float32":
			return f32(c)
		case "float64":
			return f64(c)
		case "int64":
			return i64(c)
		default:
			return errors.Wrapf(errUnknownDtype, "%q", dtype)
		}
	}
}

var (
	buildAction  = dispatch(build[float32], build[float64], build[int64])
	queryAction  = dispatch(query[float32], query[float64], query[int64])
	sanityAction = dispatch(sanity[float32], sanity[float64], sanity[int64])
	renderAction = dispatch(renderTree[float32], renderTree[float64], renderTree[int64])
	serveAction  = dispatch(serve[float32], serve[float64], serve[int64])
)

type settings[T linalg.Number] struct {
	cfg     config.Config
	logger  *slog.Logger
	builder *kdtree.TreeBuilder[T]
}

func newSettings[T linalg.Number](c *cli.Context) (settings[T], error) {
	cfg, logger, err := loadSettings(c)
	if err != nil {
		return settings[T]{}, err
	}

	splitter, err := kdtree.SplitterByName[T](cfg.Splitter)
	if err != nil {
		return settings[T]{}, err
	}

	return settings[T]{
		cfg:     cfg,
		logger:  logger,
		builder: kdtree.NewTreeBuilder[T]().SetSplitter(splitter).SetLogger(logger),
	}, nil
}

func build[T linalg.Number](c *cli.Context) error {
	st, err := newSettings[T](c)
	if err != nil {
		return err
	}
	logger, builder := st.logger, st.builder

	input := c.String("input")
	logger.Info("reading data...", "path", input)
	points, err := csvpoints.ReadPointsFile[T](input)
	if err != nil {
		return err
	}
	logger.Info("done", "points", len(points))

	logger.Info("building tree...", "params", builder.GetPrameterString())
	start := time.Now()
	tree, err := builder.Build(points)
	if err != nil {
		return err
	}
	logger.Info("done", "nodes", tree.NodeCount(), "elapsed", time.Since(start))

	output := c.String("output")
	logger.Info("saving tree...", "path", output, "compression", persist.CompressionFromPath(output))
	if err := persist.SaveFile(output, tree); err != nil {
		return err
	}
	logger.Info("done")

	return nil
}

func query[T linalg.Number](c *cli.Context) error {
	st, err := newSettings[T](c)
	if err != nil {
		return err
	}
	logger, builder := st.logger, st.builder

	treePath := c.String("tree")
	logger.Info("loading tree...", "path", treePath)
	tree, err := persist.LoadFile(treePath, builder)
	if err != nil {
		return err
	}
	logger.Info("done", "points", tree.Len(), "dim", tree.Dim())

	input := c.String("input")
	logger.Info("reading queries...", "path", input)
	queries, err := csvpoints.ReadPointsFile[T](input)
	if err != nil {
		return err
	}
	logger.Info("done", "queries", len(queries))

	logger.Info("searching...")
	results, err := tree.NearestNeighborBatch(c.Context, queries, st.cfg.Query.MaxGoroutines)
	if err != nil {
		return err
	}
	answers := make([]int, len(results))
	for i, r := range results {
		if r.Err != nil {
			logger.Warn("query failed", "line", i+1, "error", r.Err)
		}
		answers[i] = r.Index
	}
	logger.Info("done")

	output := c.String("output")
	if err := csvpoints.WriteIndicesFile(output, answers); err != nil {
		return err
	}
	logger.Info("answers written", "path", output)

	return nil
}

func sanity[T linalg.Number](c *cli.Context) error {
	st, err := newSettings[T](c)
	if err != nil {
		return err
	}
	logger, builder := st.logger, st.builder

	var points, queries [][]T
	var loaded *kdtree.Tree[T]
	g, _ := errgroup.WithContext(c.Context)
	g.Go(func() error {
		var err error
		points, err = csvpoints.ReadPointsFile[T](c.String("data"))
		return err
	})
	g.Go(func() error {
		var err error
		queries, err = csvpoints.ReadPointsFile[T](c.String("queries"))
		return err
	})
	if path := c.String("tree"); path != "" {
		g.Go(func() error {
			var err error
			loaded, err = persist.LoadFile(path, builder)
			return err
		})
	}
	logger.Info("reading data...")
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("done", "points", len(points), "queries", len(queries))

	tree, err := builder.Build(points)
	if err != nil {
		return err
	}
	if loaded != nil {
		if !loaded.Equal(tree) {
			return errors.Newf("%s does not hold the points of %s", c.String("tree"), c.String("data"))
		}
		tree = loaded
	}

	report := newSanityReport(c.App.Writer)
	if err := checkAgainstBruteForce(c.Context, tree, queries, st.cfg.Query.MaxGoroutines, report); err != nil {
		return err
	}
	return report.finish(len(queries))
}

func renderTree[T linalg.Number](c *cli.Context) error {
	st, err := newSettings[T](c)
	if err != nil {
		return err
	}
	logger, builder := st.logger, st.builder

	tree, err := persist.LoadFile(c.String("tree"), builder)
	if err != nil {
		return err
	}

	output := c.String("output")
	logger.Info("rendering tree...", "path", output, "nodes", tree.NodeCount())
	if err := render.File(output, tree); err != nil {
		return err
	}
	logger.Info("done")

	return nil
}

func serve[T linalg.Number](c *cli.Context) error {
	st, err := newSettings[T](c)
	if err != nil {
		return err
	}
	logger, builder := st.logger, st.builder

	treePath := st.cfg.Server.TreePath
	if c.IsSet("tree") {
		treePath = c.String("tree")
	}
	if treePath == "" {
		return errors.New("no tree file given")
	}
	addr := st.cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New[T](func() (*kdtree.Tree[T], error) {
		return persist.LoadFile(treePath, builder)
	}, server.Options{
		Config:   st.cfg.Server,
		Logger:   logger,
		Registry: reg,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := srv.Reload(); err != nil {
					logger.Error("reload failed", "error", err)
				}
			}
		}
	}()

	return srv.ListenAndServe(ctx, addr)
}
