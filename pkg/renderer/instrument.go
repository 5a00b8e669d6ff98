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

package renderer

import (
	"context"
	"time"

	"viewrender/pkg/events"
	"viewrender/pkg/renderer/metrics"
	"viewrender/pkg/view"
)

const (
	// EventTemplateRendered is published after every template execution.
	EventTemplateRendered = "render.template"

	// EventRenderCompleted is published after every top-level render.
	EventRenderCompleted = "render.completed"

	// EventBufferSize is the size of each subscription buffer and of the
	// bus pre-start buffer.
	EventBufferSize = 256

	// RecentRendersSize is how many template executions /debug/renders
	// keeps.
	RecentRendersSize = 200
)

// TemplateRenderedEvent describes one template execution.
type TemplateRenderedEvent struct {
	Template string        `json:"template"`
	File     string        `json:"file,omitempty"`
	Root     string        `json:"root,omitempty"`
	Partial  bool          `json:"partial"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// EventType implements events.Event.
func (e TemplateRenderedEvent) EventType() string { return EventTemplateRendered }

// Timestamp implements events.Event.
func (e TemplateRenderedEvent) Timestamp() time.Time { return e.At }

// RenderCompletedEvent describes one top-level render.
type RenderCompletedEvent struct {
	Kind     string
	Duration time.Duration
	Error    string
	At       time.Time
}

// EventType implements events.Event.
func (e RenderCompletedEvent) EventType() string { return EventRenderCompleted }

// Timestamp implements events.Event.
func (e RenderCompletedEvent) Timestamp() time.Time { return e.At }

// instrumenter is the engine observer: it feeds metrics and publishes
// render events.
type instrumenter struct {
	metrics *metrics.Metrics
	bus     *events.Bus
}

var (
	_ view.Observer         = (*instrumenter)(nil)
	_ view.TemplateObserver = (*instrumenter)(nil)
)

func (i *instrumenter) RenderCompleted(kind view.Kind, duration time.Duration, err error) {
	i.metrics.RenderCompleted(kind, duration, err)
	i.bus.Publish(RenderCompletedEvent{
		Kind:     kind.String(),
		Duration: duration,
		Error:    errString(err),
		At:       time.Now(),
	})
}

func (i *instrumenter) TemplateResolved(kind string, found bool) {
	i.metrics.TemplateResolved(kind, found)
}

func (i *instrumenter) TemplateRendered(t *view.Template, duration time.Duration, err error) {
	i.bus.Publish(TemplateRenderedEvent{
		Template: t.LogicalPath,
		File:     t.Filename,
		Root:     t.Root,
		Partial:  t.Partial,
		Duration: duration,
		Error:    errString(err),
		At:       time.Now(),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Instrument starts event delivery and runs the event subscribers until
// ctx is cancelled: template executions are logged at debug level and
// kept for /debug/renders.
func (r *Renderer) Instrument(ctx context.Context) {
	r.bus.Start()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.templateEvents:
			if e, ok := ev.(TemplateRenderedEvent); ok {
				r.recent.Add(e)
				r.logTemplateRendered(e)
			}
		case ev := <-r.completedEvents:
			if e, ok := ev.(RenderCompletedEvent); ok && e.Error != "" {
				r.logger.Debug("render failed", "kind", e.Kind, "duration", e.Duration, "error", e.Error)
			}
		}
	}
}

func (r *Renderer) logTemplateRendered(e TemplateRenderedEvent) {
	attrs := []any{"duration", e.Duration}
	if e.Error != "" {
		attrs = append(attrs, "error", e.Error)
	}
	r.logger.Debug("Rendered "+e.Template, attrs...)
}

// RecentRenders returns up to limit of the most recent template
// executions, oldest first. A non-empty template filters by logical path.
func (r *Renderer) RecentRenders(limit int, template string) []TemplateRenderedEvent {
	var out []TemplateRenderedEvent
	if template == "" {
		out = r.recent.All()
	} else {
		out = r.recent.Filter(func(e TemplateRenderedEvent) bool { return e.Template == template })
	}
	if limit > 0 && limit < len(out) {
		out = out[len(out)-limit:]
	}
	return out
}
