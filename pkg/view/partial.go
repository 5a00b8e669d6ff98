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
	"context"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"unicode"
)

// ObjectLocal is the generic name every partial object or collection item
// is bound to, next to the partial's implicit name.
const ObjectLocal = "object"

// PartialPather is implemented by values that know which partial renders
// them, e.g. "posts/post".
type PartialPather interface {
	PartialPath() string
}

// PartialRenderer renders partials for single objects and collections. It
// never applies a layout; the engine wraps the combined output instead.
type PartialRenderer struct {
	engine *Engine
}

// RenderPartial renders r within rc.
//
// With a collection the partial is resolved once and executed per item,
// binding the item to the implicit name, to "object" and the index to
// "<name>_counter". The spacer partial is rendered once and inserted
// between items. With an object the partial renders once bound to it. With
// neither, only the explicit locals are bound.
func (p *PartialRenderer) RenderPartial(ctx context.Context, rc *RenderContext, r Partial) (string, error) {
	if r.Collection != nil {
		return p.renderCollection(ctx, rc, r)
	}

	name := r.Name
	if name == "" {
		if r.Object == nil {
			return "", ErrNoTemplate
		}
		var err error
		if name, err = DefaultPartialName(r.Object); err != nil {
			return "", err
		}
	}

	tmpl, err := p.resolve(ctx, rc, name)
	if err != nil {
		return "", err
	}

	locals := r.Locals
	if r.Object != nil {
		locals = withObject(r.Locals, implicitName(tmpl, r.As), r.Object, -1)
	}
	return p.engine.execute(ctx, rc, tmpl, locals)
}

func (p *PartialRenderer) renderCollection(ctx context.Context, rc *RenderContext, r Partial) (string, error) {
	items, err := collectionItems(r.Collection)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}

	name := r.Name
	if name == "" {
		if name, err = DefaultPartialName(items[0]); err != nil {
			return "", err
		}
	}
	tmpl, err := p.resolve(ctx, rc, name)
	if err != nil {
		return "", err
	}

	var spacer string
	if r.Spacer != "" {
		spacerTmpl, err := p.resolve(ctx, rc, r.Spacer)
		if err != nil {
			return "", err
		}
		if spacer, err = p.engine.execute(ctx, rc, spacerTmpl, r.Locals); err != nil {
			return "", err
		}
	}

	implicit := implicitName(tmpl, r.As)
	var b strings.Builder
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(spacer)
		}
		out, err := p.engine.execute(ctx, rc, tmpl, withObject(r.Locals, implicit, item, i))
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// resolve looks a partial up with the current namespace as prefix.
func (p *PartialRenderer) resolve(ctx context.Context, rc *RenderContext, name string) (*Template, error) {
	return p.engine.resolve(ctx, rc, "partial", Lookup{
		Name:    name,
		Formats: rc.Formats,
		Prefix:  rc.namespace(),
		Partial: true,
		Locale:  rc.locale(),
	})
}

func implicitName(tmpl *Template, as string) string {
	if as != "" {
		return as
	}
	return tmpl.Name()
}

// withObject copies locals and binds obj; counter < 0 binds no counter.
func withObject(locals map[string]any, name string, obj any, counter int) map[string]any {
	out := make(map[string]any, len(locals)+3)
	maps.Copy(out, locals)
	out[name] = obj
	out[ObjectLocal] = obj
	if counter >= 0 {
		out[name+"_counter"] = counter
	}
	return out
}

func collectionItems(collection any) ([]any, error) {
	if items, ok := collection.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(collection)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	default:
		return nil, fmt.Errorf("view: partial collection must be a slice or array, got %T", collection)
	}
}

// DefaultPartialName derives the partial rendering obj: its PartialPath, or
// "<type>s/<type>" from the snake_cased Go type name (BlogPost renders
// "blog_posts/blog_post").
func DefaultPartialName(obj any) (string, error) {
	if p, ok := obj.(PartialPather); ok {
		return p.PartialPath(), nil
	}
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "", fmt.Errorf("view: cannot derive a partial name for %T", obj)
	}
	name := snakeCase(t.Name())
	return name + "s/" + name, nil
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
