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

// Package templating provides the compile and execute collaborators used by the
// view pipeline.
//
// Each supported template language is wrapped in a Handler that turns template
// source into an Executable. Executables are invoked against a Scope holding the
// local bindings plus the callbacks a template uses to reach back into the
// pipeline (yield, content_for and nested partial rendering). Currently supports:
// - Gonja (Jinja2-like templating for Go), files ending in .j2 or .jinja
// - Pongo2 (Django-like templating), files ending in .tpl
// - Markdown (static, rendered with goldmark), files ending in .md
package templating

import (
	"fmt"
	"strings"
)

// HandlerType identifies a template language handler.
type HandlerType int

const (
	// HandlerTypeGonja compiles Jinja2-like templates with gonja.
	// This is the default handler for inline templates.
	HandlerTypeGonja HandlerType = iota

	// HandlerTypePongo2 compiles Django-like templates with pongo2.
	HandlerTypePongo2

	// HandlerTypeMarkdown renders Markdown documents to sanitized HTML.
	// Markdown templates are static: locals and callbacks are ignored.
	HandlerTypeMarkdown
)

// String returns the string representation of the handler type.
func (h HandlerType) String() string {
	switch h {
	case HandlerTypeGonja:
		return "gonja"
	case HandlerTypePongo2:
		return "pongo2"
	case HandlerTypeMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// ParseHandlerType maps a handler name (as used in configuration and in the
// Type field of inline render requests) to its HandlerType.
func ParseHandlerType(name string) (HandlerType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gonja", "jinja", "j2":
		return HandlerTypeGonja, nil
	case "pongo2", "django", "tpl":
		return HandlerTypePongo2, nil
	case "markdown", "md":
		return HandlerTypeMarkdown, nil
	default:
		return 0, fmt.Errorf("unknown template handler %q", name)
	}
}
