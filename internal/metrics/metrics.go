// Package metrics records intake funnel metrics in Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sellershield/intake-backend/internal/entity"
)

// Recorder implements the usecase metrics interface on a private registry.
type Recorder struct {
	registry       *prometheus.Registry
	sessionsTotal  *prometheus.CounterVec
	stepsReached   *prometheus.CounterVec
	outcomesTotal  *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_sessions_total",
				Help: "Intake sessions by lifecycle event",
			},
			[]string{"event"},
		),
		stepsReached: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_steps_reached_total",
				Help: "Number of times a question step was shown",
			},
			[]string{"question_id"},
		),
		outcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_outcomes_total",
				Help: "Completed classifications by tier",
			},
			[]string{"tier"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "intake_active_sessions",
				Help: "Sessions currently held in memory",
			},
		),
	}
}

func (r *Recorder) SessionStarted() {
	r.sessionsTotal.WithLabelValues("started").Inc()
	r.activeSessions.Inc()
}

func (r *Recorder) SessionRestarted() {
	r.sessionsTotal.WithLabelValues("restarted").Inc()
}

func (r *Recorder) SessionEnded() {
	r.sessionsTotal.WithLabelValues("ended").Inc()
	r.activeSessions.Dec()
}

func (r *Recorder) StepReached(questionID string) {
	r.stepsReached.WithLabelValues(questionID).Inc()
}

func (r *Recorder) OutcomeClassified(tier entity.Tier) {
	r.outcomesTotal.WithLabelValues(string(tier)).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
