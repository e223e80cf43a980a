package store

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spektr-org/impactlens/record"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opLoad   = "load"
)

// storeMetrics is shared by every collection registered with the same
// registerer; collections are told apart by the "collection" label.
// A nil *storeMetrics records nothing.
type storeMetrics struct {
	mutations *prometheus.CounterVec
	errors    *prometheus.CounterVec
	size      *prometheus.GaugeVec
}

func newStoreMetrics(registerer prometheus.Registerer) *storeMetrics {
	if registerer == nil {
		return nil
	}

	m := &storeMetrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "impactlens",
				Subsystem: "store",
				Name:      "mutations_total",
				Help:      "Total number of applied collection mutations.",
			},
			[]string{"collection", "operation"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "impactlens",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Total number of rejected or failed collection operations.",
			},
			[]string{"collection", "operation"},
		),
		size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "impactlens",
				Subsystem: "store",
				Name:      "records",
				Help:      "Number of records held by a collection.",
			},
			[]string{"collection"},
		),
	}

	m.mutations = register(registerer, m.mutations)
	m.errors = register(registerer, m.errors)
	m.size = register(registerer, m.size)
	return m
}

// register returns the collector already registered under the same name, if
// any, so that several collections can share one registry.
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *storeMetrics) mutated(kind record.Kind, op string, size int) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(kind), op).Inc()
	m.size.WithLabelValues(string(kind)).Set(float64(size))
}

func (m *storeMetrics) failed(kind record.Kind, op string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(string(kind), op).Inc()
}

func (m *storeMetrics) resize(kind record.Kind, size int) {
	if m == nil {
		return
	}
	m.size.WithLabelValues(string(kind)).Set(float64(size))
}
