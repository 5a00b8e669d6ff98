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

// Package view resolves logical view names to templates and renders them,
// with layouts, partials and named content captures.
//
// The pipeline is:
//
//	Request -> Engine -> PathResolver -> Store -> templating.Handler
//
// Engine is shared and goroutine-safe. Every top-level render gets its own
// RenderContext, which carries the render stack, the captures and the
// negotiated formats and locale.
package view

import (
	"fmt"
	"path"
	"strings"

	"viewrender/pkg/templating"
)

// Formats understood by the pipeline and their MIME types.
var formatMimeTypes = map[string]string{
	"html": "text/html",
	"xml":  "application/xml",
	"text": "text/plain",
	"json": "application/json",
	"js":   "text/javascript",
}

// layoutExemptFormats never get wrapped in a layout.
var layoutExemptFormats = map[string]bool{
	"js": true,
}

// KnownFormat reports whether format has a registered MIME type.
func KnownFormat(format string) bool {
	_, ok := formatMimeTypes[format]
	return ok
}

// FormatForMimeType maps a MIME type such as "application/xml" to its
// format tag.
func FormatForMimeType(mimeType string) (string, bool) {
	for format, mt := range formatMimeTypes {
		if mt == mimeType {
			return format, true
		}
	}
	return "", false
}

// Template is the immutable descriptor of a located template.
type Template struct {
	// LogicalPath is the path without locale, format and handler extension,
	// e.g. "users/show" or "shared/_header".
	LogicalPath string

	// Format is the output format tag (html, xml, ...). Empty for files
	// without a format segment.
	Format string

	// Locale is the locale segment of the file name, if any.
	Locale string

	// Partial is set for files following the "_name" convention.
	Partial bool

	// ExemptFromLayout templates are never wrapped in a layout.
	ExemptFromLayout bool

	// Filename is the file inside its root, e.g. "users/show.html.j2".
	// Empty for inline templates.
	Filename string

	// Root is the display path of the root the template was loaded from.
	Root string

	// Handler is the handler that compiled the template.
	Handler templating.HandlerType

	executable templating.Executable
}

// Name returns the base name without the partial underscore.
func (t *Template) Name() string {
	return strings.TrimPrefix(path.Base(t.LogicalPath), "_")
}

// Dir returns the namespace of the template ("" for top-level templates).
func (t *Template) Dir() string {
	dir := path.Dir(t.LogicalPath)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// MimeType returns the MIME type derived from the format, or "".
func (t *Template) MimeType() string {
	return formatMimeTypes[t.Format]
}

// Executable returns the compiled template.
func (t *Template) Executable() templating.Executable {
	return t.executable
}

// String returns a short description for logs.
func (t *Template) String() string {
	if t.Filename == "" {
		return fmt.Sprintf("%s (inline)", t.LogicalPath)
	}
	return fmt.Sprintf("%s (%s)", t.LogicalPath, path.Join(t.Root, t.Filename))
}

// fileMeta is what a template file name encodes:
// dir/[_]name[.locale][.format].ext
type fileMeta struct {
	logicalPath string
	format      string
	locale      string
	partial     bool
	ext         string
}

// parseFileName splits a root-relative file name into its parts. ok is false
// when the name has no extension.
func parseFileName(file string) (meta fileMeta, ok bool) {
	dir, base := path.Split(file)
	parts := strings.Split(base, ".")
	if len(parts) < 2 || parts[0] == "" {
		return fileMeta{}, false
	}

	meta.ext = strings.ToLower(parts[len(parts)-1])
	middle := parts[1 : len(parts)-1]
	switch len(middle) {
	case 0:
	case 1:
		meta.format = middle[0]
	default:
		meta.locale = middle[len(middle)-2]
		meta.format = middle[len(middle)-1]
	}
	meta.partial = strings.HasPrefix(parts[0], "_")
	meta.logicalPath = path.Join(dir, parts[0])
	return meta, true
}

// newTemplate builds a descriptor for a compiled file.
func newTemplate(root, file string, meta fileMeta, handler templating.HandlerType, exe templating.Executable) *Template {
	return &Template{
		LogicalPath:      meta.logicalPath,
		Format:           meta.format,
		Locale:           meta.locale,
		Partial:          meta.partial,
		ExemptFromLayout: layoutExemptFormats[meta.format],
		Filename:         file,
		Root:             root,
		Handler:          handler,
		executable:       exe,
	}
}

// newInlineTemplate builds a descriptor for source without a backing file.
func newInlineTemplate(format string, handler templating.HandlerType, exe templating.Executable) *Template {
	return &Template{
		LogicalPath:      "inline",
		Format:           format,
		ExemptFromLayout: layoutExemptFormats[format],
		Handler:          handler,
		executable:       exe,
	}
}
