// Package metrics exposes Prometheus collectors for tree builds and queries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kdtree"

type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	VisitedNodes  prometheus.Histogram
	PrunedNodes   prometheus.Histogram
	QueryDuration prometheus.Histogram
	BuildDuration prometheus.Histogram
	TreePoints    prometheus.Gauge
	Reloads       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Nearest neighbor queries by outcome.",
		}, []string{"status"}),
		VisitedNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_visited_nodes",
			Help:      "Nodes entered per query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		PrunedNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_pruned_subtrees",
			Help:      "Subtrees skipped per query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		QueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent answering one query.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent building or loading a tree.",
			Buckets:   prometheus.DefBuckets,
		}),
		TreePoints: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_points",
			Help:      "Points stored in the served tree.",
		}),
		Reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Tree reloads by outcome.",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveQuery(status string, visited, pruned uint, elapsed time.Duration) {
	m.QueriesTotal.WithLabelValues(status).Inc()
	if status != "ok" {
		return
	}
	m.VisitedNodes.Observe(float64(visited))
	m.PrunedNodes.Observe(float64(pruned))
	m.QueryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLoad(status string, points int, elapsed time.Duration) {
	m.Reloads.WithLabelValues(status).Inc()
	if status != "ok" {
		return
	}
	m.TreePoints.Set(float64(points))
	m.BuildDuration.Observe(elapsed.Seconds())
}
