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

package templating

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownPolicyOnce sync.Once
	markdownPolicy     *bluemonday.Policy
)

// MarkdownHandler renders Markdown documents (.md) to HTML at compile time.
// Raw HTML inside the document is allowed by the converter and then
// sanitized with a user-generated-content policy. The compiled template is
// static: locals and callbacks are ignored.
type MarkdownHandler struct {
	md goldmark.Markdown
}

// NewMarkdownHandler creates a Markdown handler with GitHub flavored
// extensions enabled.
func NewMarkdownHandler() *MarkdownHandler {
	return &MarkdownHandler{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Type implements Handler.
func (h *MarkdownHandler) Type() HandlerType {
	return HandlerTypeMarkdown
}

// Extensions implements Handler.
func (h *MarkdownHandler) Extensions() []string {
	return []string{"md"}
}

// Compile implements Handler.
func (h *MarkdownHandler) Compile(src Source) (Executable, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src.Text), &buf); err != nil {
		return nil, NewCompilationError(src.Name, src.Text, err)
	}
	return staticTemplate(markdownSanitizer().Sanitize(buf.String())), nil
}

// staticTemplate always renders the same output.
type staticTemplate string

// Invoke implements Executable.
func (t staticTemplate) Invoke(Scope) (string, error) {
	return string(t), nil
}

func markdownSanitizer() *bluemonday.Policy {
	markdownPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		// GFM task lists render disabled checkboxes.
		policy.AllowAttrs("type").Matching(bluemonday.SpaceSeparatedTokens).OnElements("input")
		policy.AllowAttrs("checked", "disabled").OnElements("input")
		policy.AllowElements("input")
		markdownPolicy = policy
	})
	return markdownPolicy
}
