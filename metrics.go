package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ParseMetrics counts decode outcomes for one CLI run. It is written out in
// the node_exporter textfile format rather than served.
type ParseMetrics struct {
	registry *prometheus.Registry

	FilesParsed   *prometheus.CounterVec
	ParseWarnings *prometheus.CounterVec
	ParseDuration prometheus.Histogram
}

func NewParseMetrics() *ParseMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &ParseMetrics{
		registry: reg,
		FilesParsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osumap_files_parsed_total",
				Help: "Number of .osu files decoded, by outcome",
			},
			[]string{"status"},
		),
		ParseWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osumap_parse_warnings_total",
				Help: "Recoverable problems found while decoding, by kind",
			},
			[]string{"kind"},
		),
		ParseDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "osumap_parse_duration_seconds",
				Help:    "Time taken to read and decode one .osu file",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
		),
	}
}

func (m *ParseMetrics) Observe(d Decoded) {
	m.ParseDuration.Observe(d.Duration.Seconds())
	if d.Err != nil {
		m.FilesParsed.WithLabelValues("failed").Inc()
		return
	}
	m.FilesParsed.WithLabelValues("ok").Inc()
	for _, w := range d.Beatmap.Warnings {
		m.ParseWarnings.WithLabelValues(w.Kind.String()).Inc()
	}
}

func (m *ParseMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
