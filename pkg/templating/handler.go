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
	"fmt"
	"reflect"
	"sort"
)

// ReadFunc returns the source of a template referenced by name from inside
// another template (for example through an include directive).
type ReadFunc func(name string) (string, error)

// Source is the input of a single compilation.
type Source struct {
	// Name identifies the template in error messages. For file-backed
	// templates this is the logical path, for inline templates a short label.
	Name string

	// Text is the raw template source.
	Text string

	// Include resolves names referenced by include directives. Nil disables
	// includes.
	Include ReadFunc
}

// Scope carries everything a template can see while it executes: the local
// bindings plus the callbacks that reach back into the rendering pipeline.
//
// Callback errors are returned unchanged by Invoke so typed errors raised by
// nested renders keep their identity.
type Scope struct {
	// Locals are the variables bound for this execution.
	Locals map[string]any

	// Yield returns captured content. An empty name selects the default
	// capture.
	Yield func(name string) (string, error)

	// ContentFor appends content to a named capture.
	ContentFor func(name, content string)

	// Partial renders a single partial with extra locals.
	Partial func(name string, locals map[string]any) (string, error)

	// Collection renders a partial once per item, joined by the optional
	// spacer partial.
	Collection func(name string, items []any, spacer string) (string, error)
}

// Executable is a compiled template. Implementations are safe for concurrent
// use; all per-execution state lives in the Scope.
type Executable interface {
	Invoke(scope Scope) (string, error)
}

// Handler compiles template source for one template language.
type Handler interface {
	// Type returns the handler type.
	Type() HandlerType

	// Extensions returns the file extensions (without dot) served by this
	// handler, in preference order.
	Extensions() []string

	// Compile turns source into an Executable. Syntax errors are returned as
	// *CompilationError.
	Compile(src Source) (Executable, error)
}

// Callback names exposed to templates.
const (
	FuncYield            = "yield"
	FuncContentFor       = "content_for"
	FuncRenderPartial    = "render_partial"
	FuncRenderCollection = "render_collection"
)

// invocation tracks the first callback failure of a single Invoke call.
// Template engines flatten errors returned from functions into their own
// messages; the recorded error is returned instead so callers can still
// match it with errors.As.
type invocation struct {
	scope Scope
	first error
}

func newInvocation(scope Scope) *invocation {
	return &invocation{scope: scope}
}

func (inv *invocation) record(err error) error {
	if err != nil && inv.first == nil {
		inv.first = err
	}
	return err
}

// result maps an engine execution error to the error returned by Invoke.
func (inv *invocation) result(name string, err error) error {
	if inv.first != nil {
		return inv.first
	}
	if err != nil {
		return NewRenderError(name, err)
	}
	return nil
}

func (inv *invocation) yield(args ...string) (string, error) {
	if inv.scope.Yield == nil {
		return "", nil
	}
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	out, err := inv.scope.Yield(name)
	return out, inv.record(err)
}

func (inv *invocation) contentFor(name, content string) {
	if inv.scope.ContentFor != nil {
		inv.scope.ContentFor(name, content)
	}
}

func (inv *invocation) partial(name string, locals map[string]any) (string, error) {
	if inv.scope.Partial == nil {
		return "", inv.record(fmt.Errorf("%s is not available in this template", FuncRenderPartial))
	}
	out, err := inv.scope.Partial(name, locals)
	return out, inv.record(err)
}

func (inv *invocation) collection(name string, items any, spacer string) (string, error) {
	if inv.scope.Collection == nil {
		return "", inv.record(fmt.Errorf("%s is not available in this template", FuncRenderCollection))
	}
	list, err := toSlice(items)
	if err != nil {
		return "", inv.record(fmt.Errorf("%s: %w", FuncRenderCollection, err))
	}
	out, err := inv.scope.Collection(name, list, spacer)
	return out, inv.record(err)
}

// mergeLocals copies locals into a fresh map and adds extra entries on top.
func mergeLocals(locals map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(locals)+len(extra))
	for k, v := range locals {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// localsFromArgs interprets the trailing arguments of render_partial: either
// a single string-keyed map or alternating key/value pairs.
func localsFromArgs(args []any) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 {
		return toStringMap(args[0])
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%s expects key/value pairs, got %d arguments", FuncRenderPartial, len(args))
	}
	locals := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, fmt.Errorf("%s: key %d must be a string, got %T", FuncRenderPartial, i/2, args[i])
		}
		locals[key] = args[i+1]
	}
	return locals, nil
}

func toStringMap(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected a map of locals, got %T", v)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

func toSlice(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		// Maps iterate in key order so output is deterministic.
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = rv.MapIndex(k).Interface()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}
