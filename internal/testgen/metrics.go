package testgen

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	runs         *prometheus.CounterVec
	dedupRemoved prometheus.Counter
	paperScore   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testgen_runs_total",
				Help: "Generation runs by status",
			},
			[]string{"status"},
		),
		dedupRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "testgen_dedup_removed_total",
				Help: "Generated questions dropped as near-duplicates",
			},
		),
		paperScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "testgen_paper_overall_score",
				Help:    "Overall composite score of generated papers",
				Buckets: prometheus.LinearBuckets(10, 10, 9),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.runs, m.dedupRemoved, m.paperScore)
	}
	return m
}

func (m *Metrics) observeRun(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) observeRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dedupRemoved.Add(float64(n))
}

func (m *Metrics) observePaperScore(score float64) {
	if m == nil {
		return
	}
	m.paperScore.Observe(score)
}
