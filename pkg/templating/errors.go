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

import "fmt"

// CompilationError represents a template compilation failure.
// This error occurs when template syntax is invalid or the template
// cannot be parsed by the template engine.
type CompilationError struct {
	// TemplateName is the name of the template that failed to compile
	TemplateName string

	// TemplateSnippet is a truncated snippet of the template content (first 200 chars)
	TemplateSnippet string

	// Cause is the underlying compilation error from the template engine
	Cause error
}

// Error implements the error interface.
func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile template '%s': %v", e.TemplateName, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// RenderError represents a template execution failure raised by the template
// engine itself, typically an undefined variable or a bad expression.
// Failures raised by pipeline callbacks are not wrapped in a RenderError.
type RenderError struct {
	// TemplateName is the name of the template that failed to render
	TemplateName string

	// Cause is the underlying rendering error from the template engine
	Cause error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template '%s': %v", e.TemplateName, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// UnsupportedHandlerError represents a request for a handler that is not
// registered.
type UnsupportedHandlerError struct {
	// Handler is the requested handler name
	Handler string
}

// Error implements the error interface.
func (e *UnsupportedHandlerError) Error() string {
	return fmt.Sprintf("unsupported template handler: %s", e.Handler)
}

// NewCompilationError creates a CompilationError for a template compilation failure.
func NewCompilationError(templateName, templateContent string, cause error) *CompilationError {
	snippet := templateContent
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}

	return &CompilationError{
		TemplateName:    templateName,
		TemplateSnippet: snippet,
		Cause:           cause,
	}
}

// NewRenderError creates a RenderError for a template rendering failure.
func NewRenderError(templateName string, cause error) *RenderError {
	return &RenderError{
		TemplateName: templateName,
		Cause:        cause,
	}
}

// NewUnsupportedHandlerError creates an UnsupportedHandlerError.
func NewUnsupportedHandlerError(handler string) *UnsupportedHandlerError {
	return &UnsupportedHandlerError{Handler: handler}
}
