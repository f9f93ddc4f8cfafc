package generator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records provider calls and outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	calls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	winners   *prometheus.CounterVec
	exhausted prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testgen_provider_calls_total",
				Help: "LLM provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "testgen_provider_call_duration_seconds",
				Help:    "Duration of LLM provider calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"provider"},
		),
		winners: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testgen_generation_winner_total",
				Help: "Generations won per provider",
			},
			[]string{"provider"},
		),
		exhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "testgen_generation_exhausted_total",
				Help: "Generations where no provider returned text",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.calls, m.duration, m.winners, m.exhausted)
	}
	return m
}

func (m *Metrics) observeCall(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) observeWinner(provider string) {
	if m == nil {
		return
	}
	m.winners.WithLabelValues(provider).Inc()
}

func (m *Metrics) observeExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}
