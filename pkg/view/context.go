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

package view

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// DefaultCapture is the capture holding the content a layout wraps.
const DefaultCapture = "layout"

// CaptureFunc produces content for a named capture on demand.
type CaptureFunc func(name string) (string, error)

// RenderContext is the mutable state of one top-level render and the nested
// renders it triggers. It is not safe for concurrent use.
type RenderContext struct {
	// ID correlates log lines of one render.
	ID string

	// Formats lists the accepted output formats in priority order.
	Formats []string

	// Locale is the negotiated locale; language.Und disables localized
	// template variants.
	Locale language.Tag

	// Namespace is the fallback prefix for unqualified names when nothing
	// is rendering yet.
	Namespace string

	// Controller receives the applied layout and content type. May be nil.
	Controller Controller

	stack          []*Template
	captures       map[string]string
	pending        CaptureFunc
	assigns        map[string]any
	assignsApplied bool
	scope          map[string]any
	active         bool
}

// ContextOption configures a RenderContext.
type ContextOption func(*RenderContext)

// WithFormats sets the accepted formats in priority order.
func WithFormats(formats ...string) ContextOption {
	return func(rc *RenderContext) {
		if len(formats) > 0 {
			rc.Formats = slices.Clone(formats)
		}
	}
}

// WithLocale sets the negotiated locale.
func WithLocale(tag language.Tag) ContextOption {
	return func(rc *RenderContext) {
		rc.Locale = tag
	}
}

// WithNamespace sets the fallback namespace.
func WithNamespace(namespace string) ContextOption {
	return func(rc *RenderContext) {
		rc.Namespace = namespace
	}
}

// WithController attaches the controller collaborator.
func WithController(c Controller) ContextOption {
	return func(rc *RenderContext) {
		rc.Controller = c
	}
}

// WithAssigns sets values visible to every template of the render.
func WithAssigns(assigns map[string]any) ContextOption {
	return func(rc *RenderContext) {
		rc.assigns = maps.Clone(assigns)
	}
}

func newRenderContext(defaultFormats []string, opts ...ContextOption) *RenderContext {
	rc := &RenderContext{
		ID:       uuid.NewString(),
		Formats:  slices.Clone(defaultFormats),
		Locale:   language.Und,
		captures: make(map[string]string),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Current returns the template currently executing, or nil.
func (rc *RenderContext) Current() *Template {
	if len(rc.stack) == 0 {
		return nil
	}
	return rc.stack[len(rc.stack)-1]
}

// Depth returns the number of templates currently executing.
func (rc *RenderContext) Depth() int {
	return len(rc.stack)
}

// Stack returns the logical paths of the executing templates, outermost
// first.
func (rc *RenderContext) Stack() []string {
	out := make([]string, len(rc.stack))
	for i, t := range rc.stack {
		out[i] = t.LogicalPath
	}
	return out
}

// ContentFor appends content to the named capture.
func (rc *RenderContext) ContentFor(name, content string) {
	if name == "" {
		name = DefaultCapture
	}
	rc.captures[name] += content
}

// Capture returns the content of a named capture.
func (rc *RenderContext) Capture(name string) (string, bool) {
	content, ok := rc.captures[name]
	return content, ok
}

// Assigns returns a copy of the values applied to template scope. It is
// empty until the first template executes.
func (rc *RenderContext) Assigns() map[string]any {
	return maps.Clone(rc.scope)
}

func (rc *RenderContext) push(t *Template) {
	rc.stack = append(rc.stack, t)
}

func (rc *RenderContext) pop() {
	rc.stack[len(rc.stack)-1] = nil
	rc.stack = rc.stack[:len(rc.stack)-1]
}

// applyAssigns promotes assigns into template scope once per context.
// Controller assigns are copied last and win over explicit ones.
func (rc *RenderContext) applyAssigns() {
	if rc.assignsApplied {
		return
	}
	rc.scope = make(map[string]any, len(rc.assigns))
	maps.Copy(rc.scope, rc.assigns)
	maps.Copy(rc.scope, controllerAssigns(rc.Controller))
	rc.assignsApplied = true
}

// bindings merges the applied assigns with request locals; locals win.
func (rc *RenderContext) bindings(locals map[string]any) map[string]any {
	out := make(map[string]any, len(rc.scope)+len(locals))
	maps.Copy(out, rc.scope)
	maps.Copy(out, locals)
	return out
}

// yield resolves a capture request: the named capture, else the pending
// capture function, else nothing. The pending function is cleared while it
// runs so a yield inside it cannot recurse into itself.
func (rc *RenderContext) yield(name string) (string, error) {
	if name == "" {
		name = DefaultCapture
	}
	if content, ok := rc.captures[name]; ok {
		return content, nil
	}
	if rc.pending == nil {
		return "", nil
	}

	pending := rc.pending
	rc.pending = nil
	defer func() { rc.pending = pending }()
	return pending(name)
}

// withPending installs fn as the pending capture function and returns the
// function restoring the previous one.
func (rc *RenderContext) withPending(fn CaptureFunc) func() {
	prev := rc.pending
	rc.pending = fn
	return func() { rc.pending = prev }
}

// withLayoutContent stores content as the default capture and returns the
// function restoring the previous state, deleting the entry when there was
// none.
func (rc *RenderContext) withLayoutContent(content string) func() {
	prev, had := rc.captures[DefaultCapture]
	rc.captures[DefaultCapture] = content
	return func() {
		if had {
			rc.captures[DefaultCapture] = prev
		} else {
			delete(rc.captures, DefaultCapture)
		}
	}
}

// namespace is the fallback prefix for unqualified names: the directory of
// the executing template, else the context namespace, else the controller
// path.
func (rc *RenderContext) namespace() string {
	if t := rc.Current(); t != nil && t.Dir() != "" {
		return t.Dir()
	}
	if rc.Namespace != "" {
		return rc.Namespace
	}
	return controllerPath(rc.Controller)
}

// locale returns the locale used for template lookups, or "".
func (rc *RenderContext) locale() string {
	if rc.Locale == language.Und {
		return ""
	}
	return rc.Locale.String()
}
