// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides constructors for instance-scoped Prometheus
// metrics and an HTTP server exposing a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IMPORTANT: All functions in this file accept a prometheus.Registerer parameter.
// NEVER use global prometheus.DefaultRegisterer or prometheus.DefaultGatherer.
//
// Every renderer built from a configuration owns its registry, so metrics go
// away together with the renderer.

// NewCounterVec creates and registers a counter vector with labels.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	renders := metrics.NewCounterVec(registry, "renders_total", "Renders by kind", []string{"kind"})
//	renders.WithLabelValues("file").Inc()
func NewCounterVec(registry prometheus.Registerer, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}

// NewHistogramVec creates and registers a histogram vector with custom
// buckets and labels.
//
// Example:
//
//	duration := metrics.NewHistogramVec(
//	    registry,
//	    "render_duration_seconds",
//	    "Render duration by kind",
//	    metrics.RenderDurationBuckets(),
//	    []string{"kind"},
//	)
//	duration.WithLabelValues("partial").Observe(0.002)
func NewHistogramVec(registry prometheus.Registerer, name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	return promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
}

// NewGaugeFunc creates and registers a gauge whose value is read from fn at
// scrape time. fn must be safe for concurrent use.
//
// Example:
//
//	metrics.NewGaugeFunc(registry, "cached_templates", "Compiled templates in memory",
//	    func() float64 { return float64(store.Len()) })
func NewGaugeFunc(registry prometheus.Registerer, name, help string, fn func() float64) prometheus.GaugeFunc {
	return promauto.With(registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		fn,
	)
}

// RenderDurationBuckets returns histogram buckets for template render
// durations in seconds, from 100µs to 2.5s.
//
// Buckets: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5]
func RenderDurationBuckets() []float64 {
	return []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5}
}
