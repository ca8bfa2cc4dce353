package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	surveyschema "github.com/reoring/surveyschema"
)

// Metrics holds the server's Prometheus collectors. Each Server owns its own
// registry so tests can build several servers side by side.
type Metrics struct {
	registry    *prometheus.Registry
	parses      *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	merges      prometheus.Counter
	merged      prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surveyschema",
			Name:      "parse_total",
			Help:      "Survey parses by format and outcome.",
		}, []string{"format", "outcome"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surveyschema",
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported by kind.",
		}, []string{"kind"}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surveyschema",
			Name:      "merge_total",
			Help:      "Generated fragments merged into surveys.",
		}),
		merged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surveyschema",
			Name:      "merged_questions_total",
			Help:      "Questions inserted by merges.",
		}),
	}
	m.registry.MustRegister(m.parses, m.diagnostics, m.merges, m.merged,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) observeParse(format string, res surveyschema.ParseResult) {
	outcome := "ok"
	if !res.OK() {
		outcome = "invalid"
	}
	m.parses.WithLabelValues(format, outcome).Inc()
	for kind, n := range res.Diagnostics.Kinds() {
		m.diagnostics.WithLabelValues(string(kind)).Add(float64(n))
	}
}

func (m *Metrics) observeMerge(questions int) {
	m.merges.Inc()
	m.merged.Add(float64(questions))
}
