// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-vault.
//
// go-vault is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for vault dispatch.
// It exposes operation counters, latency histograms, fallback counters and
// error counters labelled by primitive and backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all vault metrics
	Namespace = "vault"

	// Label names
	LabelPrimitive = "primitive"
	LabelBackend   = "backend"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// OperationsTotal tracks dispatched primitives by backend and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of vault operations by primitive, backend, and status",
		},
		[]string{LabelPrimitive, LabelBackend, LabelStatus},
	)

	// OperationDuration tracks primitive latency in seconds. Buckets span
	// software crypto (sub-millisecond) through serial-bus device commands.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of vault operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{LabelPrimitive, LabelBackend},
	)

	// FallbacksTotal counts dispatches that fell through an unsupported
	// backend to the next entry in the routing slot.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of routing fallbacks by primitive and skipped backend",
		},
		[]string{LabelPrimitive, LabelBackend},
	)

	// ErrorsTotal counts failed dispatches by error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by primitive, backend, and error type",
		},
		[]string{LabelPrimitive, LabelBackend, LabelErrorType},
	)

	// DegradedBackends tracks backends currently in the degraded state.
	DegradedBackends = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "degraded_backends",
			Help:      "Backends currently degraded after a transport error",
		},
		[]string{LabelBackend},
	)
)

// RecordOperation increments the operation counter and observes latency.
func RecordOperation(primitive, backend string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	OperationsTotal.WithLabelValues(primitive, backend, status).Inc()
	OperationDuration.WithLabelValues(primitive, backend).Observe(time.Since(start).Seconds())
}

// RecordFallback increments the fallback counter for a skipped backend.
func RecordFallback(primitive, backend string) {
	FallbacksTotal.WithLabelValues(primitive, backend).Inc()
}

// RecordError increments the error counter with a stable error type label.
func RecordError(primitive, backend, errorType string) {
	ErrorsTotal.WithLabelValues(primitive, backend, errorType).Inc()
}

// SetDegraded flips the degraded gauge for a backend.
func SetDegraded(backend string, degraded bool) {
	v := 0.0
	if degraded {
		v = 1.0
	}
	DegradedBackends.WithLabelValues(backend).Set(v)
}
