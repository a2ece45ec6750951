// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-smpc.
//
// go-smpc is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for secret sharing
// operations.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all go-smpc metrics
	Namespace = "smpc"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpShare       = "share"
	OpReconstruct = "reconstruct"
	OpAdd         = "add"
	OpAggregate   = "aggregate"
)

var (
	// OperationsTotal tracks sharing operations by type and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of secret sharing operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks the duration of sharing operations in seconds.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of secret sharing operations in seconds",
			Buckets:   []float64{.00001, .0001, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal tracks errors by operation and error type
	// (e.g. "incompatible_primes", "share_count_mismatch").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// SharesGenerated counts individual shares produced by Sharer.Share.
	SharesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_generated_total",
			Help:      "Total number of shares generated",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records an operation with its status and duration.
func RecordOperation(operation, status string, duration time.Duration) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError records an error event for an operation.
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// AddSharesGenerated increments the generated share counter by n.
func AddSharesGenerated(n int) {
	if !enabled.Load() {
		return
	}
	SharesGenerated.Add(float64(n))
}

// Observe is a helper for deferred instrumentation:
//
//	defer metrics.Observe(metrics.OpShare, time.Now(), &err)
func Observe(operation string, start time.Time, errp *error) {
	status := StatusSuccess
	if errp != nil && *errp != nil {
		status = StatusError
	}
	RecordOperation(operation, status, time.Since(start))
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
