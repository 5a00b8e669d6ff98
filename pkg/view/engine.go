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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"viewrender/pkg/templating"
)

// Observer receives render events, typically to record metrics.
type Observer interface {
	// RenderCompleted is called once per top-level render.
	RenderCompleted(kind Kind, duration time.Duration, err error)

	// TemplateResolved is called for every lookup; kind is "template",
	// "layout" or "partial".
	TemplateResolved(kind string, found bool)
}

// TemplateObserver is implemented by observers that also want every
// template execution, including layouts and each partial of a collection.
type TemplateObserver interface {
	TemplateRendered(t *Template, duration time.Duration, err error)
}

// Engine renders requests. It is safe for concurrent use as long as every
// goroutine uses its own RenderContext.
type Engine struct {
	store          *Store
	resolver       *PathResolver
	partials       *PartialRenderer
	logger         *slog.Logger
	defaultFormats []string
	postProcessors []templating.PostProcessor
	observer       Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Render log lines go to the controller
// logger instead when the controller provides one.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDefaultFormats sets the formats used by contexts that do not set
// their own.
func WithDefaultFormats(formats ...string) Option {
	return func(e *Engine) {
		if len(formats) > 0 {
			e.defaultFormats = slices.Clone(formats)
		}
	}
}

// WithPostProcessors sets processors applied to the output of every
// top-level render.
func WithPostProcessors(processors ...templating.PostProcessor) Option {
	return func(e *Engine) {
		e.postProcessors = processors
	}
}

// WithObserver sets the render event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// NewEngine creates an engine over store.
func NewEngine(store *Store, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		logger:         slog.Default(),
		defaultFormats: []string{"html"},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = NewPathResolver(store, e.defaultFormats...)
	e.partials = &PartialRenderer{engine: e}
	return e
}

// Resolver returns the path resolver.
func (e *Engine) Resolver() *PathResolver {
	return e.resolver
}

// Partials returns the partial renderer.
func (e *Engine) Partials() *PartialRenderer {
	return e.partials
}

// Store returns the template store.
func (e *Engine) Store() *Store {
	return e.store
}

// NewContext creates a context for one top-level render.
func (e *Engine) NewContext(opts ...ContextOption) *RenderContext {
	return newRenderContext(e.defaultFormats, opts...)
}

// Render performs a top-level render with rc. Post-processors run on the
// result. The render stack is empty again when Render returns, whether it
// succeeded or not. Captures written by a failed render are discarded.
func (e *Engine) Render(ctx context.Context, rc *RenderContext, req Request) (out string, err error) {
	if rc == nil {
		return "", errors.New("view: render context is required")
	}
	if req == nil {
		return "", ErrNoTemplate
	}
	if rc.active {
		return "", ErrContextInUse
	}
	rc.active = true
	captures := maps.Clone(rc.captures)
	start := time.Now()
	defer func() {
		rc.active = false
		if err != nil {
			rc.captures = captures
		}
		if e.observer != nil {
			e.observer.RenderCompleted(req.Kind(), time.Since(start), err)
		}
	}()

	out, err = e.render(ctx, rc, req)
	if err != nil {
		e.logger.Debug("render failed", "render_id", rc.ID, "kind", req.Kind().String(), "error", err)
		return "", err
	}
	return templating.ApplyPostProcessors(e.postProcessors, out)
}

// RenderNested renders req inside a running render, for example from a
// Block body. No post-processing is applied.
func (e *Engine) RenderNested(ctx context.Context, rc *RenderContext, req Request) (string, error) {
	if req == nil {
		return "", ErrNoTemplate
	}
	return e.render(ctx, rc, req)
}

func (e *Engine) render(ctx context.Context, rc *RenderContext, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch r := req.(type) {
	case Partial:
		return e.renderPartialWithLayout(ctx, rc, r)
	case DefaultPartial:
		return e.renderPartialWithLayout(ctx, rc, Partial{Options: r.Options, Name: r.Name, Object: r.Object})
	case Block:
		return e.renderBlock(ctx, rc, r)
	case File:
		return e.renderFile(ctx, rc, r)
	case Inline:
		return e.renderInline(ctx, rc, r)
	case Text:
		return e.renderText(ctx, rc, r)
	case Update:
		return e.renderUpdate(ctx, rc, r)
	default:
		return "", fmt.Errorf("view: unsupported request %T", req)
	}
}

func (e *Engine) renderPartialWithLayout(ctx context.Context, rc *RenderContext, r Partial) (string, error) {
	layout, err := e.resolveLayout(ctx, rc, r.Layout, true, rc.namespace(), rc.Formats)
	if err != nil {
		return "", err
	}
	content, err := e.partials.RenderPartial(ctx, rc, r)
	if err != nil {
		return "", err
	}
	if layout == nil {
		return content, nil
	}
	return e.wrapInLayout(ctx, rc, content, layout, r.Locals)
}

// renderBlock renders the layout as a partial; Body supplies the content
// the layout yields.
func (e *Engine) renderBlock(ctx context.Context, rc *RenderContext, r Block) (string, error) {
	if r.Body == nil {
		return "", ErrNoTemplate
	}
	if r.Layout == "" {
		return r.Body(DefaultCapture)
	}

	layout, err := e.resolveLayout(ctx, rc, r.Layout, true, rc.namespace(), rc.Formats)
	if err != nil {
		return "", err
	}

	restore := rc.withPending(r.Body)
	defer restore()
	return e.execute(ctx, rc, layout, r.Locals)
}

func (e *Engine) renderFile(ctx context.Context, rc *RenderContext, r File) (string, error) {
	if r.Name == "" {
		return "", ErrNoTemplate
	}
	tmpl, err := e.resolve(ctx, rc, "template", Lookup{
		Name:    r.Name,
		Formats: rc.Formats,
		Prefix:  rc.namespace(),
		Locale:  rc.locale(),
	})
	if err != nil {
		return "", err
	}

	layoutPrefix := tmpl.Dir()
	if layoutPrefix == "" {
		layoutPrefix = rc.namespace()
	}
	layoutFormats := rc.Formats
	if tmpl.Format != "" {
		layoutFormats = []string{tmpl.Format}
	}
	layout, err := e.resolveLayout(ctx, rc, r.Layout, false, layoutPrefix, layoutFormats)
	var notFound *NotFoundError
	if r.LayoutOptional && errors.As(err, &notFound) {
		layout, err = nil, nil
	}
	if err != nil {
		return "", err
	}

	msg := "Rendering " + tmpl.LogicalPath
	if r.Status != 0 {
		msg += fmt.Sprintf(" (%d)", r.Status)
	}
	e.logInfo(rc, msg)

	content, err := e.execute(ctx, rc, tmpl, r.Locals)
	if err != nil {
		return "", err
	}
	if layout == nil || tmpl.ExemptFromLayout {
		return content, nil
	}

	out, err := e.wrapInLayout(ctx, rc, content, layout, r.Locals)
	if err != nil {
		return "", attribute(tmpl, rc.bindings(r.Locals), err)
	}
	return out, nil
}

func (e *Engine) renderInline(ctx context.Context, rc *RenderContext, r Inline) (string, error) {
	handler, err := e.store.registry.Lookup(r.Type)
	if err != nil {
		return "", err
	}
	format := e.primaryFormat(rc)
	exe, err := handler.Compile(templating.Source{
		Name:    "inline template",
		Text:    r.Source,
		Include: e.store.IncludeReader(format),
	})
	if err != nil {
		return "", err
	}
	tmpl := newInlineTemplate(format, handler.Type(), exe)

	layout, err := e.resolveLayout(ctx, rc, r.Layout, false, rc.namespace(), rc.Formats)
	if err != nil {
		return "", err
	}
	content, err := e.execute(ctx, rc, tmpl, r.Locals)
	if err != nil {
		return "", err
	}
	if layout == nil || tmpl.ExemptFromLayout {
		return content, nil
	}
	return e.wrapInLayout(ctx, rc, content, layout, r.Locals)
}

func (e *Engine) renderText(ctx context.Context, rc *RenderContext, r Text) (string, error) {
	layout, err := e.resolveLayout(ctx, rc, r.Layout, false, rc.namespace(), rc.Formats)
	if err != nil {
		return "", err
	}
	if layout == nil {
		return r.Text, nil
	}
	return e.wrapInLayout(ctx, rc, r.Text, layout, r.Locals)
}

// renderUpdate builds an update script. The script content type is set
// before any template runs, and the result is never wrapped in a layout.
func (e *Engine) renderUpdate(ctx context.Context, rc *RenderContext, r Update) (string, error) {
	setContentType(rc.Controller, formatMimeTypes["js"])
	page := newUpdatePage(func(req Request) (string, error) {
		return e.render(ctx, rc, req)
	})
	if r.Page != nil {
		if err := r.Page(page); err != nil {
			return "", err
		}
	}
	return page.String(), nil
}

// execute runs one template: push, apply assigns once, set the content
// type, invoke with locals and callbacks, pop.
func (e *Engine) execute(ctx context.Context, rc *RenderContext, tmpl *Template, locals map[string]any) (string, error) {
	rc.push(tmpl)
	defer rc.pop()

	rc.applyAssigns()
	setContentType(rc.Controller, tmpl.MimeType())

	bindings := rc.bindings(locals)
	scope := templating.Scope{
		Locals:     bindings,
		Yield:      rc.yield,
		ContentFor: rc.ContentFor,
		Partial: func(name string, locals map[string]any) (string, error) {
			return e.partials.RenderPartial(ctx, rc, Partial{Name: name, Options: Options{Locals: locals}})
		},
		Collection: func(name string, items []any, spacer string) (string, error) {
			if items == nil {
				items = []any{}
			}
			return e.partials.RenderPartial(ctx, rc, Partial{Name: name, Collection: items, Spacer: spacer})
		},
	}

	start := time.Now()
	out, err := tmpl.executable.Invoke(scope)
	if o, ok := e.observer.(TemplateObserver); ok {
		o.TemplateRendered(tmpl, time.Since(start), err)
	}
	if err != nil {
		return "", attribute(tmpl, bindings, err)
	}
	return out, nil
}

// wrapInLayout executes layout with content as the default capture. The
// previous default capture is restored afterwards.
func (e *Engine) wrapInLayout(ctx context.Context, rc *RenderContext, content string, layout *Template, locals map[string]any) (string, error) {
	setLayoutPath(rc.Controller, layout.LogicalPath)
	e.logInfo(rc, "Rendering template within "+layout.LogicalPath)

	restore := rc.withLayoutContent(content)
	defer restore()
	return e.execute(ctx, rc, layout, locals)
}

// resolveLayout resolves a layout name; names without a directory are
// tried under prefix before the root level. An empty name resolves to nil.
func (e *Engine) resolveLayout(ctx context.Context, rc *RenderContext, name string, partial bool, prefix string, formats []string) (*Template, error) {
	if name == "" {
		return nil, nil
	}
	if strings.Contains(name, "/") {
		prefix = ""
	}
	return e.resolve(ctx, rc, "layout", Lookup{
		Name:    name,
		Formats: formats,
		Prefix:   prefix,
		Fallback: true,
		Partial:  partial,
		Locale:   rc.locale(),
	})
}

func (e *Engine) resolve(ctx context.Context, rc *RenderContext, kind string, l Lookup) (*Template, error) {
	tmpl, err := e.resolver.Resolve(ctx, l)
	if e.observer != nil {
		var notFound *NotFoundError
		e.observer.TemplateResolved(kind, err == nil || !errors.As(err, &notFound))
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("resolved template", "render_id", rc.ID, "name", l.Name, "template", tmpl.String())
	return tmpl, nil
}

func (e *Engine) primaryFormat(rc *RenderContext) string {
	if len(rc.Formats) > 0 {
		return rc.Formats[0]
	}
	return e.defaultFormats[0]
}

func (e *Engine) logInfo(rc *RenderContext, msg string) {
	logger := controllerLogger(rc.Controller)
	if logger == nil {
		logger = e.logger
	}
	logger.Info(msg, "render_id", rc.ID)
}
