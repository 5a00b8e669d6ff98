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
	"io"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Pongo2Handler compiles Django-like templates (.tpl) with pongo2. The
// pipeline callbacks use the same names as in gonja templates; locals for
// render_partial are passed as a map or as key/value pairs:
//
//	{{ render_partial("shared/item", "title", title) }}
//	{{ render_collection("item", items, "shared/divider") }}
//
// Callback output is marked safe; every other value is auto-escaped.
type Pongo2Handler struct{}

// NewPongo2Handler creates a pongo2 handler.
func NewPongo2Handler() *Pongo2Handler {
	return &Pongo2Handler{}
}

// Type implements Handler.
func (h *Pongo2Handler) Type() HandlerType {
	return HandlerTypePongo2
}

// Extensions implements Handler.
func (h *Pongo2Handler) Extensions() []string {
	return []string{"tpl"}
}

// Compile implements Handler. Every compilation gets its own template set so
// includes resolve against src.Include only.
func (h *Pongo2Handler) Compile(src Source) (Executable, error) {
	name := src.Name
	if name == "" {
		name = "template"
	}

	set := pongo2.NewSet(name, &pongo2Loader{include: src.Include})
	compiled, err := set.FromString(src.Text)
	if err != nil {
		return nil, NewCompilationError(name, src.Text, err)
	}
	return &pongo2Template{name: name, tpl: compiled}, nil
}

type pongo2Template struct {
	name string
	tpl  *pongo2.Template
}

// Invoke implements Executable.
func (t *pongo2Template) Invoke(scope Scope) (string, error) {
	inv := newInvocation(scope)

	data := pongo2.Context{}
	for k, v := range scope.Locals {
		data[k] = v
	}
	data[FuncYield] = func(args ...string) (*pongo2.Value, error) {
		out, err := inv.yield(args...)
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}
	data[FuncContentFor] = func(name, content string) (*pongo2.Value, error) {
		inv.contentFor(name, content)
		return pongo2.AsSafeValue(""), nil
	}
	data[FuncRenderPartial] = func(name string, args ...any) (*pongo2.Value, error) {
		locals, err := localsFromArgs(args)
		if err != nil {
			return nil, inv.record(err)
		}
		out, err := inv.partial(name, locals)
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}
	data[FuncRenderCollection] = func(name string, items any, spacer ...string) (*pongo2.Value, error) {
		sp := ""
		if len(spacer) > 0 {
			sp = spacer[0]
		}
		out, err := inv.collection(name, items, sp)
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}

	output, err := t.tpl.Execute(data)
	if err := inv.result(t.name, err); err != nil {
		return "", err
	}
	return output, nil
}

// pongo2Loader adapts a ReadFunc to pongo2.TemplateLoader. Names are logical
// template paths and are never joined with the including template's path.
type pongo2Loader struct {
	include ReadFunc
}

// Abs implements pongo2.TemplateLoader.
func (l *pongo2Loader) Abs(base, name string) string {
	return name
}

// Get implements pongo2.TemplateLoader.
func (l *pongo2Loader) Get(path string) (io.Reader, error) {
	if l.include == nil {
		return nil, fmt.Errorf("template not found: %s", path)
	}
	content, err := l.include(path)
	if err != nil {
		return nil, fmt.Errorf("template not found: %s: %w", path, err)
	}
	return strings.NewReader(content), nil
}
