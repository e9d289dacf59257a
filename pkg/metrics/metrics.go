// Package metrics counts wizard activity with Prometheus collectors. A
// Collector is passed to wizard.WithObserver; the CLI writes the registry to
// a textfile for node_exporter after each run.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const namespace = "formwizard"

// Collector implements wizard.Observer. Metrics are labelled by flow id and
// step number; field errors are additionally labelled by field key.
type Collector struct {
	flow string

	mu      sync.Mutex
	maxStep int

	advanced    *prometheus.CounterVec
	blocked     *prometheus.CounterVec
	fieldErrors *prometheus.CounterVec
	completed   *prometheus.CounterVec
	closed      *prometheus.CounterVec
	furthest    *prometheus.GaugeVec
}

var _ wizard.Observer = (*Collector)(nil)

// NewCollector registers the wizard metrics on reg for the given flow id.
func NewCollector(reg prometheus.Registerer, flow string) (*Collector, error) {
	c := &Collector{
		flow: flow,
		advanced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_advanced_total",
			Help:      "Forward moves out of a step.",
		}, []string{"flow", "step"}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_blocked_total",
			Help:      "Attempts to leave a step that failed validation.",
		}, []string{"flow", "step"}),
		fieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "Validation errors by field.",
		}, []string{"flow", "field"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completed_total",
			Help:      "Wizards whose answers were accepted.",
		}, []string{"flow"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abandoned_total",
			Help:      "Wizards closed before completion, by the step they were on.",
		}, []string{"flow", "step"}),
		furthest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "furthest_step",
			Help:      "Highest step reached in this process.",
		}, []string{"flow"}),
	}

	for _, collector := range []prometheus.Collector{c.advanced, c.blocked, c.fieldErrors, c.completed, c.closed, c.furthest} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) Advanced(from, to int) {
	c.advanced.WithLabelValues(c.flow, strconv.Itoa(from)).Inc()
	c.reached(to)
}

func (c *Collector) Blocked(step int, errs wizard.ErrorState) {
	c.blocked.WithLabelValues(c.flow, strconv.Itoa(step)).Inc()

	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		c.fieldErrors.WithLabelValues(c.flow, key).Inc()
	}
}

func (c *Collector) Completed(step int) {
	c.completed.WithLabelValues(c.flow).Inc()
	c.reached(step)
}

func (c *Collector) Closed(step int) {
	c.closed.WithLabelValues(c.flow, strconv.Itoa(step)).Inc()
}

func (c *Collector) reached(step int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if step > c.maxStep {
		c.maxStep = step
		c.furthest.WithLabelValues(c.flow).Set(float64(step))
	}
}
