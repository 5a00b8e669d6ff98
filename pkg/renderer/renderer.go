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

// Package renderer assembles a view engine from configuration and exposes
// it to the command line and over HTTP.
//
// A Renderer owns its template store, its Prometheus registry and its
// metrics. Build a new Renderer to apply a changed configuration.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/munnerz/goautoneg"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"viewrender/pkg/core/config"
	"viewrender/pkg/events"
	"viewrender/pkg/events/ringbuffer"
	"viewrender/pkg/renderer/metrics"
	"viewrender/pkg/templating"
	"viewrender/pkg/view"
)

// Renderer renders views configured by a config.Config.
type Renderer struct {
	config   *config.Config
	logger   *slog.Logger
	handlers *templating.Registry
	store    *view.Store
	engine   *view.Engine
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	locales  []language.Tag
	matcher  language.Matcher

	bus             *events.Bus
	templateEvents  <-chan events.Event
	completedEvents <-chan events.Event
	recent          *ringbuffer.RingBuffer[TemplateRenderedEvent]
}

// Request is a top-level render of a view, or of inline source when
// Inline is set.
type Request struct {
	// View is the template name, such as "users/show".
	View string

	// Inline is template source rendered instead of View. Handler names
	// its handler; empty selects the configured default handler.
	Inline  string
	Handler string

	// Formats overrides the configured formats, in priority order.
	Formats []string

	// Locale selects localized template variants. language.Und disables
	// them.
	Locale language.Tag

	// Layout overrides the configured default layout. A missing default
	// layout is skipped; a missing explicit one is an error.
	Layout string

	// NoLayout renders without any layout.
	NoLayout bool

	// Locals are bound in the template scope.
	Locals map[string]any

	// Status is the response status, used in the render log line.
	Status int
}

// Result is the output of a render.
type Result struct {
	Body string

	// ContentType is the MIME type of the first executed template.
	ContentType string

	// Layout is the logical path of the applied layout, if any.
	Layout string
}

// Issue is a template that failed to compile during Check.
type Issue struct {
	Root   string
	File   string
	Err    error
	Source string
}

// New builds a renderer from a validated configuration.
//
// Parameters:
//   - cfg: Configuration with defaults applied
//   - logger: Structured logger for the renderer and its engine
//
// Returns:
//   - A Renderer ready to render
//   - Error if a root is missing, a format is unknown or a post-processor
//     cannot be built
func New(cfg *config.Config, logger *slog.Logger) (*Renderer, error) {
	if cfg == nil {
		return nil, errors.New("renderer: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	for i, format := range cfg.Views.Formats {
		if !view.KnownFormat(format) {
			return nil, fmt.Errorf("views: formats[%d]: unknown format %q", i, format)
		}
	}

	handlers, err := templating.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to create handler registry: %w", err)
	}
	defaultHandler, err := templating.ParseHandlerType(cfg.Views.DefaultHandler)
	if err != nil {
		return nil, fmt.Errorf("views: default_handler: %w", err)
	}
	if err := handlers.SetDefault(defaultHandler); err != nil {
		return nil, err
	}

	roots := make([]view.Root, 0, len(cfg.Views.Roots))
	for i, dir := range cfg.Views.Roots {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("views: roots[%d]: %w", i, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("views: roots[%d]: %s is not a directory", i, dir)
		}
		roots = append(roots, view.DirRoot(dir))
	}

	store, err := view.NewStore(roots, handlers,
		view.WithCache(cfg.Views.CacheEnabled()),
		view.WithStoreLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	processors, err := templating.NewPostProcessors(cfg.PostProcessors)
	if err != nil {
		return nil, fmt.Errorf("post_processors: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, store.Len)

	// Subscribe before anything publishes so no event is missed.
	bus := events.NewBus(EventBufferSize)
	templateEvents := bus.Subscribe(EventBufferSize, EventTemplateRendered)
	completedEvents := bus.Subscribe(EventBufferSize, EventRenderCompleted)

	engine := view.NewEngine(store,
		view.WithLogger(logger),
		view.WithDefaultFormats(cfg.Views.Formats...),
		view.WithPostProcessors(processors...),
		view.WithObserver(&instrumenter{metrics: m, bus: bus}),
	)

	locales := make([]language.Tag, 0, len(cfg.Views.Locales))
	for i, l := range cfg.Views.Locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("views: locales[%d]: %w", i, err)
		}
		locales = append(locales, tag)
	}

	r := &Renderer{
		config:   cfg,
		logger:   logger,
		handlers: handlers,
		store:    store,
		engine:   engine,
		registry: registry,
		metrics:  m,
		locales:  locales,

		bus:             bus,
		templateEvents:  templateEvents,
		completedEvents: completedEvents,
		recent:          ringbuffer.New[TemplateRenderedEvent](RecentRendersSize),
	}
	if len(locales) > 0 {
		r.matcher = language.NewMatcher(locales)
	}

	logger.Info("renderer created",
		"roots", len(roots),
		"formats", cfg.Views.Formats,
		"default_handler", defaultHandler.String(),
		"cache", cfg.Views.CacheEnabled())

	return r, nil
}

// Engine returns the view engine.
func (r *Renderer) Engine() *view.Engine { return r.engine }

// Store returns the template store.
func (r *Renderer) Store() *view.Store { return r.store }

// Handlers returns the template handler registry.
func (r *Renderer) Handlers() *templating.Registry { return r.handlers }

// Metrics returns the renderer metrics.
func (r *Renderer) Metrics() *metrics.Metrics { return r.metrics }

// Registry returns the Prometheus registry holding the renderer metrics.
func (r *Renderer) Registry() *prometheus.Registry { return r.registry }

// Render renders req.View, wrapped in the requested or configured layout.
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	formats := req.Formats
	if len(formats) == 0 {
		formats = r.config.Views.Formats
	}

	layout, optional := req.Layout, false
	if layout == "" {
		layout, optional = r.config.Views.DefaultLayout, true
	}
	if req.NoLayout {
		layout = ""
	}

	resp := &responseController{logger: r.logger}
	rc := r.engine.NewContext(
		view.WithFormats(formats...),
		view.WithLocale(req.Locale),
		view.WithController(resp),
	)

	opts := view.Options{Layout: layout, Locals: req.Locals}
	var vreq view.Request = view.File{
		Name:           req.View,
		Status:         req.Status,
		LayoutOptional: optional,
		Options:        opts,
	}
	if req.Inline != "" {
		// Inline sources only get a layout when one is asked for.
		if optional {
			opts.Layout = ""
		}
		vreq = view.Inline{Source: req.Inline, Type: req.Handler, Options: opts}
	}

	body, err := r.engine.Render(ctx, rc, vreq)
	if err != nil {
		return Result{}, err
	}
	return Result{Body: body, ContentType: resp.contentType, Layout: resp.layoutPath}, nil
}

// Check compiles every template under every root and returns the ones
// that fail. The error is only non-nil when the roots cannot be listed.
func (r *Renderer) Check(ctx context.Context) ([]Issue, error) {
	files, err := r.store.Files()
	if err != nil {
		return nil, err
	}

	roots := r.store.Roots()
	var issues []Issue
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return issues, err
		}
		if _, err := r.store.Load(ctx, f.Root, f.File); err != nil {
			source, _ := fs.ReadFile(roots[f.Root].FS, f.File)
			issues = append(issues, Issue{
				Root:   roots[f.Root].Path,
				File:   f.File,
				Err:    err,
				Source: string(source),
			})
		}
	}
	r.logger.Info("checked templates", "files", len(files), "issues", len(issues))
	return issues, nil
}

// NegotiateLocale picks the configured locale that best matches an
// Accept-Language header. It returns language.Und when no locales are
// configured or none matches.
func (r *Renderer) NegotiateLocale(acceptLanguage string) language.Tag {
	if r.matcher == nil || acceptLanguage == "" {
		return language.Und
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Und
	}
	_, index, confidence := r.matcher.Match(tags...)
	if confidence == language.No {
		return language.Und
	}
	return r.locales[index]
}

// NegotiateFormats maps an Accept header to formats in preference order.
// A full wildcard appends the configured formats. An empty or unmatched
// header yields the configured formats.
func (r *Renderer) NegotiateFormats(accept string) []string {
	var formats []string
	for _, a := range goautoneg.ParseAccept(accept) {
		if a.Q <= 0 {
			continue
		}
		if a.Type == "*" && a.SubType == "*" {
			for _, f := range r.config.Views.Formats {
				if !slices.Contains(formats, f) {
					formats = append(formats, f)
				}
			}
			continue
		}
		format, ok := view.FormatForMimeType(a.Type + "/" + a.SubType)
		if ok && !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	if len(formats) == 0 {
		return slices.Clone(r.config.Views.Formats)
	}
	return formats
}

// responseController collects the layout and content type of one render.
type responseController struct {
	logger      *slog.Logger
	layoutPath  string
	contentType string
}

func (c *responseController) SetLayoutPath(path string) {
	c.layoutPath = path
}

func (c *responseController) SetContentTypeIfUnset(contentType string) {
	if c.contentType == "" {
		c.contentType = contentType
	}
}

func (c *responseController) Logger() *slog.Logger {
	return c.logger
}
