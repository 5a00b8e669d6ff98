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

	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
)

// FilterFunc is a custom filter function that can be registered with the gonja handler.
// It receives the input value and optional arguments, and returns the filtered value or an error.
//
// Example:
//
//	func uppercase(in interface{}, args ...interface{}) (interface{}, error) {
//	    str, ok := in.(string)
//	    if !ok {
//	        return nil, fmt.Errorf("uppercase: expected string, got %T", in)
//	    }
//	    return strings.ToUpper(str), nil
//	}
type FilterFunc func(in interface{}, args ...interface{}) (interface{}, error)

// GlobalFunc is a custom global function that can be called from templates.
// It receives variadic arguments and returns a result or an error.
type GlobalFunc func(args ...interface{}) (interface{}, error)

// GonjaHandler compiles Jinja2-like templates (.j2, .jinja) with gonja.
//
// Templates call back into the pipeline through four global functions:
//
//	{{ yield() }}                                 default capture (the layout body)
//	{{ yield("sidebar") }}                        a named capture
//	{{ content_for("sidebar", "<p>x</p>") }}      append to a capture
//	{{ render_partial("shared/item", title=t) }}  render a partial with locals
//	{{ render_collection("item", items, spacer="shared/divider") }}
type GonjaHandler struct {
	cfg *config.Config
	env *exec.Environment
}

// NewGonjaHandler creates a gonja handler with optional custom filters and
// global functions. Custom functions may not shadow the pipeline callbacks.
func NewGonjaHandler(customFilters map[string]FilterFunc, customFunctions map[string]GlobalFunc) (*GonjaHandler, error) {
	// TrimBlocks removes the first newline after a block (e.g., {% if %})
	// LeftStripBlocks strips leading spaces/tabs before a block
	// Output is not auto-escaped; captures and partials are already rendered markup.
	cfg := &config.Config{
		BlockStartString:    "{%",
		BlockEndString:      "%}",
		VariableStartString: "{{",
		VariableEndString:   "}}",
		CommentStartString:  "{#",
		CommentEndString:    "#}",
		AutoEscape:          false,
		StrictUndefined:     false,
		TrimBlocks:          true,
		LeftStripBlocks:     true,
	}

	filters := builtins.Filters
	if len(customFilters) > 0 {
		filterMap := make(map[string]exec.FilterFunction, len(customFilters))
		for name, customFilter := range customFilters {
			filterMap[name] = wrapCustomFilter(customFilter)
		}
		filters = filters.Update(exec.NewFilterSet(filterMap))
	}

	globalFunctions := builtins.GlobalFunctions
	if len(customFunctions) > 0 {
		functionMap := make(map[string]interface{}, len(customFunctions))
		for name, customFunc := range customFunctions {
			switch name {
			case FuncYield, FuncContentFor, FuncRenderPartial, FuncRenderCollection:
				return nil, fmt.Errorf("templating: global function %q is reserved", name)
			}
			functionMap[name] = wrapGlobalFunction(customFunc)
		}
		globalFunctions = globalFunctions.Update(exec.NewContext(functionMap))
	}

	return &GonjaHandler{
		cfg: cfg,
		env: &exec.Environment{
			Filters:           filters,
			Tests:             builtins.Tests,
			ControlStructures: builtins.ControlStructures,
			Methods:           builtins.Methods,
			Context:           globalFunctions,
		},
	}, nil
}

// Type implements Handler.
func (h *GonjaHandler) Type() HandlerType {
	return HandlerTypeGonja
}

// Extensions implements Handler.
func (h *GonjaHandler) Extensions() []string {
	return []string{"j2", "jinja"}
}

// Compile implements Handler. Includes are resolved while compiling through
// src.Include.
func (h *GonjaHandler) Compile(src Source) (Executable, error) {
	name := src.Name
	if name == "" {
		name = "template"
	}

	loader := newIncludeLoader(name, src.Text, src.Include)
	compiled, err := exec.NewTemplate(name, h.cfg, loader, h.env)
	if err != nil {
		return nil, NewCompilationError(name, src.Text, err)
	}
	return &gonjaTemplate{name: name, tpl: compiled}, nil
}

type gonjaTemplate struct {
	name string
	tpl  *exec.Template
}

// Invoke implements Executable.
func (t *gonjaTemplate) Invoke(scope Scope) (string, error) {
	inv := newInvocation(scope)
	data := mergeLocals(scope.Locals, map[string]any{
		FuncYield:            gonjaYield(inv),
		FuncContentFor:       gonjaContentFor(inv),
		FuncRenderPartial:    gonjaRenderPartial(inv),
		FuncRenderCollection: gonjaRenderCollection(inv),
	})

	output, err := t.tpl.ExecuteToString(exec.NewContext(data))
	if err := inv.result(t.name, err); err != nil {
		return "", err
	}
	return output, nil
}

// gonjaFunc is the calling convention gonja uses for Go functions in the context.
type gonjaFunc = func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value

func gonjaYield(inv *invocation) gonjaFunc {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		var args []string
		if params != nil && len(params.Args) > 0 {
			args = append(args, params.Args[0].String())
		}
		out, err := inv.yield(args...)
		if err != nil {
			return exec.AsValue(exec.ErrInvalidCall(err))
		}
		return exec.AsValue(out)
	}
}

func gonjaContentFor(inv *invocation) gonjaFunc {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		if params == nil || len(params.Args) != 2 {
			err := inv.record(fmt.Errorf("%s() requires a name and the content", FuncContentFor))
			return exec.AsValue(exec.ErrInvalidCall(err))
		}
		inv.contentFor(params.Args[0].String(), params.Args[1].String())
		return exec.AsValue("")
	}
}

func gonjaRenderPartial(inv *invocation) gonjaFunc {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		if params == nil || len(params.Args) == 0 {
			err := inv.record(fmt.Errorf("%s() requires a partial name", FuncRenderPartial))
			return exec.AsValue(exec.ErrInvalidCall(err))
		}

		rest := make([]any, 0, len(params.Args)-1)
		for _, arg := range params.Args[1:] {
			rest = append(rest, arg.Interface())
		}
		locals, err := localsFromArgs(rest)
		if err != nil {
			return exec.AsValue(exec.ErrInvalidCall(inv.record(err)))
		}
		if len(params.KwArgs) > 0 {
			kw := make(map[string]any, len(params.KwArgs))
			for key, value := range params.KwArgs {
				kw[key] = value.Interface()
			}
			locals = mergeLocals(locals, kw)
		}

		out, err := inv.partial(params.Args[0].String(), locals)
		if err != nil {
			return exec.AsValue(exec.ErrInvalidCall(err))
		}
		return exec.AsValue(out)
	}
}

func gonjaRenderCollection(inv *invocation) gonjaFunc {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		if params == nil || len(params.Args) < 2 {
			err := inv.record(fmt.Errorf("%s() requires a partial name and a list", FuncRenderCollection))
			return exec.AsValue(exec.ErrInvalidCall(err))
		}

		spacer := ""
		if len(params.Args) > 2 {
			spacer = params.Args[2].String()
		}
		if v, ok := params.KwArgs["spacer"]; ok {
			spacer = v.String()
		}

		out, err := inv.collection(params.Args[0].String(), params.Args[1].Interface(), spacer)
		if err != nil {
			return exec.AsValue(exec.ErrInvalidCall(err))
		}
		return exec.AsValue(out)
	}
}

// wrapCustomFilter wraps a FilterFunc into Gonja's FilterFunction signature.
func wrapCustomFilter(customFilter FilterFunc) exec.FilterFunction {
	return func(e *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		inputValue := in.Interface()

		var args []interface{}
		if params != nil {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}

		result, err := customFilter(inputValue, args...)
		if err != nil {
			return exec.AsValue(err)
		}
		return exec.AsValue(result)
	}
}

// wrapGlobalFunction wraps a GlobalFunc into a function callable from Gonja templates.
func wrapGlobalFunction(customFunc GlobalFunc) gonjaFunc {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		var args []interface{}
		if params != nil {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}

		result, err := customFunc(args...)
		if err != nil {
			// ErrInvalidCall makes rendering fail with the error message
			return exec.AsValue(exec.ErrInvalidCall(err))
		}
		return exec.AsValue(result)
	}
}
