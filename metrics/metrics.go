/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics exposes Prometheus counters for document-store calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics counts operations and the request units they consumed.
type Metrics struct {
	RequestUnits *prometheus.CounterVec
	Operations   *prometheus.CounterVec
}

// New registers the docstore counters on reg. A nil reg creates unregistered
// counters, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestUnits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_request_units_total",
				Help: "Total request units reported by the document store",
			},
			[]string{"container", "operation"},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_operations_total",
				Help: "Total document store operations by outcome",
			},
			[]string{"container", "operation", "status"},
		),
	}
}

// Observe records one operation. Charges are only added for successes.
func (m *Metrics) Observe(container, operation string, charge float64, err error) {
	if m == nil {
		return
	}
	if container == "" {
		container = "unknown"
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.Operations.WithLabelValues(container, operation, status).Inc()
	if err == nil && charge > 0 {
		m.RequestUnits.WithLabelValues(container, operation).Add(charge)
	}
}
