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

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgmetrics "viewrender/pkg/metrics"
	"viewrender/pkg/view"
)

// Metrics holds the renderer's Prometheus metrics. It implements
// view.Observer.
//
// IMPORTANT: Create one instance per renderer, against the renderer's own
// registry. Metrics are freed together with the registry.
type Metrics struct {
	// Render metrics
	RenderDuration *prometheus.HistogramVec
	RendersTotal   *prometheus.CounterVec
	RenderErrors   *prometheus.CounterVec

	// Lookup metrics
	Resolutions *prometheus.CounterVec

	// Store metrics
	CachedTemplates prometheus.GaugeFunc

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

var _ view.Observer = (*Metrics)(nil)

// New creates all renderer metrics and registers them with registry.
// cachedTemplates is read at scrape time; nil reports zero.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	m := metrics.New(registry, store.Len)
//	engine := view.NewEngine(store, view.WithObserver(m))
func New(registry prometheus.Registerer, cachedTemplates func() int) *Metrics {
	if cachedTemplates == nil {
		cachedTemplates = func() int { return 0 }
	}
	m := &Metrics{
		RenderDuration: pkgmetrics.NewHistogramVec(
			registry,
			"viewrender_render_duration_seconds",
			"Time spent in top-level renders",
			pkgmetrics.RenderDurationBuckets(),
			[]string{"kind"},
		),
		RendersTotal: pkgmetrics.NewCounterVec(
			registry,
			"viewrender_renders_total",
			"Total number of top-level renders",
			[]string{"kind"},
		),
		RenderErrors: pkgmetrics.NewCounterVec(
			registry,
			"viewrender_render_errors_total",
			"Total number of failed top-level renders",
			[]string{"kind"},
		),
		Resolutions: pkgmetrics.NewCounterVec(
			registry,
			"viewrender_template_resolutions_total",
			"Template lookups by kind and result",
			[]string{"kind", "result"},
		),
		CachedTemplates: pkgmetrics.NewGaugeFunc(
			registry,
			"viewrender_cached_templates",
			"Compiled templates held in the template cache",
			func() float64 { return float64(cachedTemplates()) },
		),
		HTTPRequests: pkgmetrics.NewCounterVec(
			registry,
			"viewrender_http_requests_total",
			"HTTP render requests by status code",
			[]string{"code"},
		),
	}

	// Export every kind at zero so rates work before the first render.
	for _, kind := range view.Kinds() {
		m.RendersTotal.WithLabelValues(kind.String())
		m.RenderErrors.WithLabelValues(kind.String())
	}
	return m
}

// RenderCompleted records a top-level render.
func (m *Metrics) RenderCompleted(kind view.Kind, duration time.Duration, err error) {
	label := kind.String()
	m.RendersTotal.WithLabelValues(label).Inc()
	m.RenderDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		m.RenderErrors.WithLabelValues(label).Inc()
	}
}

// TemplateResolved records a template, layout or partial lookup.
func (m *Metrics) TemplateResolved(kind string, found bool) {
	result := "hit"
	if !found {
		result = "miss"
	}
	m.Resolutions.WithLabelValues(kind, result).Inc()
}

// RecordRequest records an HTTP response status.
func (m *Metrics) RecordRequest(status int) {
	m.HTTPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}
