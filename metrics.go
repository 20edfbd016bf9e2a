package topicquiz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors
type Metrics struct {
	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	submissions        prometheus.Counter
	scorePercentage    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topicquiz",
			Name:      "generations_total",
			Help:      "Quiz generation attempts by result.",
		}, []string{"result"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topicquiz",
			Name:      "generation_duration_seconds",
			Help:      "Time spent in the LLM provider per generation.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120},
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topicquiz",
			Name:      "submissions_total",
			Help:      "Graded quiz submissions.",
		}),
		scorePercentage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topicquiz",
			Name:      "score_percentage",
			Help:      "Percentage score of graded submissions.",
			Buckets:   prometheus.LinearBuckets(0, 20, 6),
		}),
	}

	reg.MustRegister(m.generations, m.generationDuration, m.submissions, m.scorePercentage)
	return m
}

// ObserveGeneration records a generation attempt. A nil receiver is a no-op.
func (m *Metrics) ObserveGeneration(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(result).Inc()
	m.generationDuration.Observe(elapsed.Seconds())
}

// ObserveSubmission records a graded submission. A nil receiver is a no-op.
func (m *Metrics) ObserveSubmission(percentage float64) {
	if m == nil {
		return
	}
	m.submissions.Inc()
	m.scorePercentage.Observe(percentage)
}
