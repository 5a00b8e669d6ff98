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
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rekby/fixenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"viewrender/pkg/core/config"
	"viewrender/pkg/templating"
	"viewrender/pkg/view"
)

func TestNew_Errors(t *testing.T) {
	env := fixenv.New(t)
	dir := viewsDir(env)
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "unknown format",
			mutate:  func(c *config.Config) { c.Views.Formats = []string{"html", "pdf"} },
			wantErr: `formats[1]: unknown format "pdf"`,
		},
		{
			name:    "missing root",
			mutate:  func(c *config.Config) { c.Views.Roots = []string{dir, filepath.Join(dir, "nope")} },
			wantErr: "roots[1]",
		},
		{
			name:    "root is a file",
			mutate:  func(c *config.Config) { c.Views.Roots = []string{file} },
			wantErr: "is not a directory",
		},
		{
			name:    "unknown handler",
			mutate:  func(c *config.Config) { c.Views.DefaultHandler = "erb" },
			wantErr: "default_handler",
		},
		{
			name:    "invalid locale",
			mutate:  func(c *config.Config) { c.Views.Locales = []string{"not a locale"} },
			wantErr: "locales[0]",
		},
		{
			name: "invalid post-processor",
			mutate: func(c *config.Config) {
				c.PostProcessors = []templating.PostProcessorConfig{{Type: "nope"}}
			},
			wantErr: "post_processors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(dir)
			tt.mutate(cfg)
			_, err := New(cfg, discardLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := New(nil, discardLogger())
	assert.Error(t, err)
}

func TestNew_Accessors(t *testing.T) {
	r := newTestRenderer(t, nil)

	assert.NotNil(t, r.Engine())
	assert.NotNil(t, r.Store())
	assert.NotNil(t, r.Handlers())
	assert.NotNil(t, r.Metrics())
	assert.NotNil(t, r.Registry())
	assert.Same(t, r.Store(), r.Engine().Store())

	h, err := r.Handlers().Default()
	require.NoError(t, err)
	assert.Equal(t, templating.HandlerTypeGonja, h.Type())
}

func TestNew_DefaultHandler(t *testing.T) {
	r := newTestRenderer(t, func(c *config.Config) { c.Views.DefaultHandler = "pongo2" })

	h, err := r.Handlers().Default()
	require.NoError(t, err)
	assert.Equal(t, templating.HandlerTypePongo2, h.Type())
}

func TestRenderer_Render(t *testing.T) {
	r := newTestRenderer(t, nil)
	locals := map[string]any{"params": map[string]any{"id": "7"}}

	tests := []struct {
		name       string
		req        Request
		wantBody   string
		wantLayout string
	}{
		{
			name:       "default layout",
			req:        Request{View: "users/show", Locals: locals},
			wantBody:   "<main>user 7</main>",
			wantLayout: "layouts/application",
		},
		{
			name:     "no layout",
			req:      Request{View: "users/show", Locals: locals, NoLayout: true},
			wantBody: "user 7",
		},
		{
			name:       "explicit layout",
			req:        Request{View: "users/show", Locals: locals, Layout: "layouts/bare"},
			wantBody:   "[user 7]",
			wantLayout: "layouts/bare",
		},
		{
			name:     "default layout missing for format",
			req:      Request{View: "users/show", Locals: locals, Formats: []string{"json"}},
			wantBody: `{"id": "7"}`,
		},
		{
			name:       "locale variant",
			req:        Request{View: "greeting", Locale: language.French},
			wantBody:   "<main>bonjour</main>",
			wantLayout: "layouts/application",
		},
		{
			name:       "no locale",
			req:        Request{View: "greeting"},
			wantBody:   "<main>hello</main>",
			wantLayout: "layouts/application",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Render(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, result.Body)
			assert.Equal(t, tt.wantLayout, result.Layout)
		})
	}
}

func TestRenderer_Render_ContentType(t *testing.T) {
	r := newTestRenderer(t, nil)

	result, err := r.Render(context.Background(), Request{View: "users/show", Formats: []string{"json"}})
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.ContentType)

	result, err = r.Render(context.Background(), Request{View: "users/show"})
	require.NoError(t, err)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestRenderer_Render_Errors(t *testing.T) {
	r := newTestRenderer(t, nil)
	ctx := context.Background()

	_, err := r.Render(ctx, Request{View: "nope"})
	var notFound *view.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "template", notFound.Kind)

	_, err = r.Render(ctx, Request{View: "users/show", Layout: "layouts/nope"})
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "layout", notFound.Kind)

	_, err = r.Render(ctx, Request{View: "users/list"})
	var execErr *view.TemplateExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, []string{"users/list"}, execErr.Chain())

	_, err = r.Render(ctx, Request{View: ""})
	assert.ErrorIs(t, err, view.ErrNoTemplate)
}

func TestRenderer_Render_PostProcessors(t *testing.T) {
	r := newTestRenderer(t, func(c *config.Config) {
		c.PostProcessors = []templating.PostProcessorConfig{{
			Type:   templating.PostProcessorTypeRegexReplace,
			Params: map[string]string{"pattern": "main", "replace": "section"},
		}}
	})

	result, err := r.Render(context.Background(), Request{View: "index"})
	require.NoError(t, err)
	assert.Equal(t, "<section>home</section>", result.Body)
}

func TestRenderer_Render_Metrics(t *testing.T) {
	r := newTestRenderer(t, nil)
	ctx := context.Background()

	_, err := r.Render(ctx, Request{View: "index"})
	require.NoError(t, err)
	_, err = r.Render(ctx, Request{View: "nope"})
	require.Error(t, err)

	m := r.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RendersTotal.WithLabelValues("file")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderErrors.WithLabelValues("file")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("template", "miss")))
	assert.Positive(t, testutil.ToFloat64(m.CachedTemplates))
}

func TestRenderer_Check(t *testing.T) {
	r := newTestRenderer(t, nil)

	issues, err := r.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "broken.html.j2", issues[0].File)
	assert.Equal(t, "{% for %}", issues[0].Source)
	assert.Error(t, issues[0].Err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Check(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_NegotiateLocale(t *testing.T) {
	r := newTestRenderer(t, nil)

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.Und},
		{"fr-CH, en;q=0.5", language.French},
		{"en-US", language.English},
		{"de", language.Und},
		{"!!", language.Und},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, r.NegotiateLocale(tt.header))
		})
	}

	bare := newTestRenderer(t, func(c *config.Config) { c.Views.Locales = nil })
	assert.Equal(t, language.Und, bare.NegotiateLocale("fr"))
}

func TestRenderer_NegotiateFormats(t *testing.T) {
	r := newTestRenderer(t, func(c *config.Config) { c.Views.Formats = []string{"html", "text"} })

	tests := []struct {
		name   string
		accept string
		want   []string
	}{
		{"empty", "", []string{"html", "text"}},
		{"single", "application/json", []string{"json"}},
		{"quality order", "text/html;q=0.5, application/json", []string{"json", "html"}},
		{"wildcard appends configured", "application/xml, */*;q=0.1", []string{"xml", "html", "text"}},
		{"no duplicates", "text/html, */*", []string{"html", "text"}},
		{"unknown types", "image/png", []string{"html", "text"}},
		{"zero quality skipped", "application/json;q=0, text/plain", []string{"text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.NegotiateFormats(tt.accept))
		})
	}
}

func TestRenderer_Render_Inline(t *testing.T) {
	r := newTestRenderer(t, nil)
	ctx := context.Background()

	result, err := r.Render(ctx, Request{Inline: "hi {{ name }}", Locals: map[string]any{"name": "ada"}})
	require.NoError(t, err)
	assert.Equal(t, "hi ada", result.Body, "the default layout is not applied to inline sources")

	result, err = r.Render(ctx, Request{Inline: "hi {{ name }}!", Handler: "pongo2", Layout: "layouts/bare",
		Locals: map[string]any{"name": "bob"}})
	require.NoError(t, err)
	assert.Equal(t, "[hi bob!]", result.Body)

	_, err = r.Render(ctx, Request{Inline: "x", Handler: "erb"})
	assert.Error(t, err)
}
