// Package server answers nearest-neighbor queries over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/config"
	"github.com/ar90n/kdtree/linalg"
	"github.com/ar90n/kdtree/metrics"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

// Loader produces the tree to serve. It is called once at startup and again
// on every reload.
type Loader[T linalg.Number] func() (*kdtree.Tree[T], error)

type Server[T linalg.Number] struct {
	holder   *Holder[T]
	load     Loader[T]
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	limiter  *rate.Limiter
	handler  http.Handler
}

type Options struct {
	Config   config.Server
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// New loads the initial tree and prepares the routes.
func New[T linalg.Number](load Loader[T], opts Options) (*Server[T], error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server[T]{
		holder:   NewHolder[T](nil),
		load:     load,
		metrics:  metrics.New(opts.Registry),
		gatherer: opts.Registry,
		logger:   opts.Logger,
	}
	if 0 < opts.Config.RateLimit {
		s.limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimit), opts.Config.Burst)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /nearest", s.rateLimit(http.HandlerFunc(s.handleNearest)))
	mux.Handle("POST /reload", s.rateLimit(http.HandlerFunc(s.handleReload)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.handler = s.withRequestID(mux)

	return s, nil
}

func (s *Server[T]) Handler() http.Handler {
	return s.handler
}

func (s *Server[T]) Tree() *kdtree.Tree[T] {
	return s.holder.Get()
}

// Reload replaces the served tree with a freshly loaded one. On failure the
// current tree keeps being served.
func (s *Server[T]) Reload() error {
	start := time.Now()
	tree, err := s.load()
	if err != nil {
		s.metrics.ObserveLoad("error", 0, 0)
		return errors.Wrap(err, "reload tree")
	}

	s.holder.Swap(tree)
	s.metrics.ObserveLoad("ok", tree.Len(), time.Since(start))
	s.logger.Info("tree loaded", "points", tree.Len(), "dim", tree.Dim(), "splitter", tree.Splitter().Name())
	return nil
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server[T]) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

type nearestResponse[T linalg.Number] struct {
	RequestID string  `json:"request_id"`
	Index     int     `json:"index"`
	Point     []T     `json:"point"`
	Distance  float64 `json:"distance"`
	Visited   uint    `json:"visited"`
	Pruned    uint    `json:"pruned"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Points   int    `json:"points"`
	Dim      int    `json:"dim"`
	Splitter string `json:"splitter"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

func (s *Server[T]) handleNearest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get(requestIDHeader)

	query, err := parseQuery[T](r.URL.Query().Get("point"))
	if err != nil {
		s.metrics.ObserveQuery("bad_request", 0, 0, 0)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	tree := s.holder.Get()
	result, err := tree.Search(query)
	switch {
	case errors.Is(err, kdtree.ErrEmptyTree):
		s.metrics.ObserveQuery("empty", 0, 0, 0)
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	case errors.Is(err, kdtree.ErrCardinalityMismatch):
		s.metrics.ObserveQuery("bad_request", 0, 0, 0)
		s.writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.metrics.ObserveQuery("error", 0, 0, 0)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.ObserveQuery("ok", result.Visited, result.Pruned, time.Since(start))
	s.writeJSON(w, http.StatusOK, nearestResponse[T]{
		RequestID: requestID,
		Index:     result.Index,
		Point:     tree.Point(result.Index),
		Distance:  result.Distance,
		Visited:   result.Visited,
		Pruned:    result.Pruned,
	})
}

func (s *Server[T]) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(); err != nil {
		s.logger.Error("reload failed", "request_id", w.Header().Get(requestIDHeader), "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.handleHealth(w, r)
}

func (s *Server[T]) handleHealth(w http.ResponseWriter, r *http.Request) {
	tree := s.holder.Get()
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Points:   tree.Len(),
		Dim:      tree.Dim(),
		Splitter: tree.Splitter().Name(),
	})
}

func parseQuery[T linalg.Number](s string) ([]T, error) {
	if s == "" {
		return nil, errors.New("missing point parameter")
	}

	fields := strings.Split(s, ",")
	query := make([]T, len(fields))
	for i, f := range fields {
		v, err := kdtree.ParseValue[T](strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(err, "coordinate %d", i)
		}
		if !linalg.IsFinite(v) {
			return nil, errors.Wrapf(kdtree.ErrNonFiniteCoordinate, "coordinate %d is %v", i, v)
		}
		query[i] = v
	}
	return query, nil
}

func (s *Server[T]) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server[T]) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{
		RequestID: w.Header().Get(requestIDHeader),
		Error:     err.Error(),
	})
}
