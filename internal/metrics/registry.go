package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tdmkt/tdseq/internal/domain/demark"
	"github.com/tdmkt/tdseq/internal/exits"
)

// Registry holds the Prometheus metrics for tdseq.
type Registry struct {
	registry *prometheus.Registry

	BarsProcessed       *prometheus.CounterVec
	SetupCompletions    *prometheus.CounterVec
	CountdownExhausted  *prometheus.CounterVec
	TDSTBreaks          *prometheus.CounterVec
	ExitTriggers        *prometheus.CounterVec
	SnapshotRequests    *prometheus.CounterVec
	EvaluationDurations prometheus.Histogram
}

// NewRegistry creates and registers all tdseq metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		BarsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdseq_bars_processed_total",
				Help: "Total bars folded through the indicator engine",
			},
			[]string{"symbol"},
		),

		SetupCompletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdseq_setup_completions_total",
				Help: "Total nine-count Setup completions observed",
			},
			[]string{"symbol"},
		),

		CountdownExhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdseq_countdown_exhaustions_total",
				Help: "Total thirteen-count Countdown completions observed",
			},
			[]string{"symbol"},
		),

		TDSTBreaks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdseq_tdst_breaks_total",
				Help: "Total TDST level violations by side (support or resistance)",
			},
			[]string{"symbol", "side"},
		),

		ExitTriggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdseq_exit_triggers_total",
				Help: "Total tranche exit triggers by tranche and reason",
			},
			[]string{"symbol", "tranche", "reason"},
		),

		SnapshotRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdseq_snapshot_requests_total",
				Help: "Total snapshot API requests by status",
			},
			[]string{"status"},
		),

		EvaluationDurations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tdseq_exit_evaluation_seconds",
				Help:    "Duration of tranche exit evaluations",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
		),
	}

	r.registry.MustRegister(
		r.BarsProcessed,
		r.SetupCompletions,
		r.CountdownExhausted,
		r.TDSTBreaks,
		r.ExitTriggers,
		r.SnapshotRequests,
		r.EvaluationDurations,
	)
	return r
}

// ObserveSnapshot records per-bar transitions between the previously
// published state and the new one. hadPrev is false for the first
// snapshot of a symbol, in which case only the bar itself is counted.
func (r *Registry) ObserveSnapshot(symbol string, prev, curr demark.State, hadPrev bool) {
	r.BarsProcessed.WithLabelValues(symbol).Inc()

	if curr.TDSTResBroken {
		r.TDSTBreaks.WithLabelValues(symbol, "resistance").Inc()
	}
	if !hadPrev {
		return
	}
	if curr.SetupComplete && !prev.SetupComplete {
		r.SetupCompletions.WithLabelValues(symbol).Inc()
	}
	if curr.CountdownComplete && !prev.CountdownComplete {
		r.CountdownExhausted.WithLabelValues(symbol).Inc()
	}
	if prev.TDSTActive && !curr.TDSTActive {
		r.TDSTBreaks.WithLabelValues(symbol, "support").Inc()
	}
}

// ObserveDecisions records the outcome of a tranche evaluation.
func (r *Registry) ObserveDecisions(symbol string, decisions []exits.Decision) {
	for _, d := range decisions {
		if d.Triggered {
			r.ExitTriggers.WithLabelValues(symbol, d.Tranche.String(), d.Reason.String()).Inc()
		}
	}
}

// Handler exposes the registry over HTTP.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
