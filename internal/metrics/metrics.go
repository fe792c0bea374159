// Package metrics exposes Prometheus counters for the portal's operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the counters.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Recorder is what services depend on; Nop satisfies it in tests.
type Recorder interface {
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordRequestSubmitted(requestType string)
	RecordRequestDeleted()
	RecordStoreConflict(key string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	submitted     *prometheus.CounterVec
	deleted       prometheus.Counter
	conflicts     *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// NewCollector creates the counters and registers them on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_requests_submitted_total",
			Help: "Recruitment requests submitted by type.",
		}, []string{"type"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recruit_requests_deleted_total",
			Help: "Recruitment requests deleted by their owners.",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_store_cas_conflicts_total",
			Help: "Compare-and-swap writes lost to a concurrent writer, by collection key.",
		}, []string{"key"}),
		gatherer: reg,
	}

	reg.MustRegister(c.registrations, c.logins, c.submitted, c.deleted, c.conflicts)
	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRequestSubmitted(requestType string) {
	c.submitted.WithLabelValues(requestType).Inc()
}

func (c *Collector) RecordRequestDeleted() {
	c.deleted.Inc()
}

func (c *Collector) RecordStoreConflict(key string) {
	c.conflicts.WithLabelValues(key).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordRegistration(string)     {}
func (Nop) RecordLogin(string)            {}
func (Nop) RecordRequestSubmitted(string) {}
func (Nop) RecordRequestDeleted()         {}
func (Nop) RecordStoreConflict(string)    {}
