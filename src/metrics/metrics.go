// MIT License
//
// Copyright (c) 2024 sigstate-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/metrics/metrics.go

// Package metrics defines the Prometheus instrumentation for the
// signer service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the signer's Prometheus collectors.
type Metrics struct {
	SignaturesIssued  *prometheus.CounterVec
	PersistFailures   *prometheus.CounterVec
	Detachments       *prometheus.CounterVec
	RemainingCapacity *prometheus.GaugeVec
	SignLatency       *prometheus.HistogramVec
}

// New initializes the signer metrics. Collectors are unregistered; the
// caller registers them on its registry.
func New() *Metrics {
	return &Metrics{
		SignaturesIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signer_signatures_issued_total",
				Help: "Number of signatures issued and durably committed",
			},
			[]string{"variant"},
		),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signer_persist_failures_total",
				Help: "Number of state persistence failures",
			},
			[]string{"variant"},
		),
		Detachments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signer_detachments_total",
				Help: "Number of completed state detachments",
			},
			[]string{"variant"},
		),
		RemainingCapacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signer_remaining_capacity",
				Help: "One-time signatures left in the managed state",
			},
			[]string{"variant"},
		),
		SignLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signer_sign_latency_seconds",
				Help:    "Latency of sign-and-commit operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"variant"},
		),
	}
}

// Register registers every collector on reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.SignaturesIssued,
		m.PersistFailures,
		m.Detachments,
		m.RemainingCapacity,
		m.SignLatency,
	)
}
