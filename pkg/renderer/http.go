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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"viewrender/pkg/templating"
	"viewrender/pkg/view"
)

// Handler returns the HTTP handler serving views.
//
// Routes:
//   - GET /healthz: liveness probe
//   - GET /debug/renders: recent template executions as JSON
//   - GET /{view}: renders the view; "/" renders "index"
//
// A known format extension on the path ("/users/show.json") selects the
// format, otherwise the Accept header does. The "locale" query parameter
// overrides Accept-Language. Query parameters are bound as "params".
func (r *Renderer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	mux.HandleFunc("GET /debug/renders", r.serveRecentRenders)
	mux.HandleFunc("GET /", r.serveView)
	return mux
}

// serveRecentRenders lists recent template executions as JSON. Query
// parameters: limit (default 50, 0 for all) and template (logical path
// filter).
func (r *Renderer) serveRecentRenders(w http.ResponseWriter, req *http.Request) {
	limit := 50
	if l := req.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", l), http.StatusBadRequest)
			return
		}
		limit = n
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.RecentRenders(limit, req.URL.Query().Get("template"))); err != nil {
		r.logger.Error("failed to encode recent renders", "error", err)
	}
}

func (r *Renderer) serveView(w http.ResponseWriter, req *http.Request) {
	name := strings.Trim(req.URL.Path, "/")
	if name == "" {
		name = "index"
	}
	if !fs.ValidPath(name) {
		r.writeError(w, http.StatusNotFound, "not found")
		return
	}

	var formats []string
	if ext := path.Ext(name); ext != "" && view.KnownFormat(ext[1:]) {
		formats = []string{ext[1:]}
		name = strings.TrimSuffix(name, ext)
	} else {
		formats = r.NegotiateFormats(req.Header.Get("Accept"))
	}

	query := req.URL.Query()
	locale := r.NegotiateLocale(req.Header.Get("Accept-Language"))
	if l := query.Get("locale"); l != "" {
		tag, err := language.Parse(l)
		if err != nil {
			r.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid locale %q", l))
			return
		}
		locale = tag
	}

	params := make(map[string]any, len(query))
	for key, values := range query {
		params[key] = values[0]
	}

	result, err := r.Render(req.Context(), Request{
		View:    name,
		Formats: formats,
		Locale:  locale,
		Status:  http.StatusOK,
		Locals: map[string]any{
			"params": params,
			"path":   req.URL.Path,
		},
	})
	if err != nil {
		r.handleRenderError(w, name, err)
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	r.metrics.RecordRequest(http.StatusOK)
	_, _ = io.WriteString(w, result.Body)
}

func (r *Renderer) handleRenderError(w http.ResponseWriter, name string, err error) {
	var execErr *view.TemplateExecutionError
	var notFound *view.NotFoundError
	switch {
	case errors.As(err, &execErr):
		templateName := name
		if chain := execErr.Chain(); len(chain) > 0 {
			templateName = chain[0]
		}
		r.logger.Error("render failed",
			"view", name,
			"error", templating.FormatRenderErrorShort(err, templateName))
		r.writeError(w, http.StatusInternalServerError, "internal server error")

	case errors.Is(err, view.ErrNoTemplate), errors.As(err, &notFound) && notFound.Kind != "layout":
		r.logger.Debug("view not found", "view", name, "error", err)
		r.writeError(w, http.StatusNotFound, err.Error())

	default:
		r.logger.Error("render failed", "view", name, "error", err)
		r.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (r *Renderer) writeError(w http.ResponseWriter, status int, msg string) {
	r.metrics.RecordRequest(status)
	http.Error(w, msg, status)
}
