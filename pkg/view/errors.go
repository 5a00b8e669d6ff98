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
	"errors"
	"fmt"
	"maps"
	"strings"
)

var (
	// ErrNoTemplate is returned when a request names nothing to render.
	ErrNoTemplate = errors.New("view: nothing to render")

	// ErrContextInUse is returned when a RenderContext is passed to
	// Engine.Render while a top-level render with it is still running.
	// Nested renders go through Engine.RenderNested.
	ErrContextInUse = errors.New("view: render context is already in use")
)

// NotFoundError reports that no root yielded a match for a lookup.
type NotFoundError struct {
	// Name is the requested name as given by the caller.
	Name string

	// Kind is "layout" when the name looks like a layout, else "template".
	Kind string

	// SearchedPaths lists every searched root, in search order.
	SearchedPaths []string

	// Candidates lists the file names tried within each root, in order.
	Candidates []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("missing %s %s in view path %s", e.Kind, e.Name, strings.Join(e.SearchedPaths, ":"))
}

func newNotFoundError(name string, roots, candidates []string) *NotFoundError {
	kind := "template"
	if strings.Contains(strings.ToLower(name), "layouts") {
		kind = "layout"
	}
	return &NotFoundError{
		Name:          name,
		Kind:          kind,
		SearchedPaths: roots,
		Candidates:    candidates,
	}
}

// TemplateExecutionError reports a failure while executing a file-backed
// template. When the failure crosses several nested templates the same error
// value is annotated at each level, so Chain names every template from the
// failing one up to the top-level render.
type TemplateExecutionError struct {
	// Template is the template whose execution failed.
	Template *Template

	// Assigns is a snapshot of the bindings in effect at failure time.
	Assigns map[string]any

	// Cause is the underlying error.
	Cause error

	chain []*Template
}

func newTemplateExecutionError(t *Template, bindings map[string]any, cause error) *TemplateExecutionError {
	return &TemplateExecutionError{
		Template: t,
		Assigns:  maps.Clone(bindings),
		Cause:    cause,
		chain:    []*Template{t},
	}
}

// Error implements the error interface.
func (e *TemplateExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error rendering %s: %v", e.Template.LogicalPath, e.Cause)
	for _, t := range e.chain[1:] {
		fmt.Fprintf(&b, "; also occurred while rendering %s", t.LogicalPath)
	}
	return b.String()
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *TemplateExecutionError) Unwrap() error {
	return e.Cause
}

// Chain returns the logical paths of the templates involved, innermost first.
func (e *TemplateExecutionError) Chain() []string {
	out := make([]string, len(e.chain))
	for i, t := range e.chain {
		out[i] = t.LogicalPath
	}
	return out
}

// Templates returns the templates involved, innermost first.
func (e *TemplateExecutionError) Templates() []*Template {
	out := make([]*Template, len(e.chain))
	copy(out, e.chain)
	return out
}

// subTemplateOf records that the failure also occurred while rendering t.
func (e *TemplateExecutionError) subTemplateOf(t *Template) {
	if last := e.chain[len(e.chain)-1]; last == t {
		return
	}
	e.chain = append(e.chain, t)
}

// attribute attaches a failure to t. Templates without a backing file pass
// the error through untouched; an existing TemplateExecutionError is
// annotated instead of wrapped again.
func attribute(t *Template, bindings map[string]any, err error) error {
	if err == nil || t == nil || t.Filename == "" {
		return err
	}
	var execErr *TemplateExecutionError
	if errors.As(err, &execErr) {
		execErr.subTemplateOf(t)
		return err
	}
	return newTemplateExecutionError(t, bindings, err)
}
