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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewRenderContext(t *testing.T) {
	rc := newRenderContext([]string{"html"})
	assert.NotEmpty(t, rc.ID)
	assert.Equal(t, []string{"html"}, rc.Formats)
	assert.Equal(t, language.Und, rc.Locale)
	assert.Empty(t, rc.locale())
	assert.Nil(t, rc.Current())
	assert.Equal(t, 0, rc.Depth())

	other := newRenderContext([]string{"html"},
		WithFormats("xml", "html"),
		WithLocale(language.MustParse("de-CH")),
		WithNamespace("users"))
	assert.NotEqual(t, rc.ID, other.ID)
	assert.Equal(t, []string{"xml", "html"}, other.Formats)
	assert.Equal(t, "de-CH", other.locale())
	assert.Equal(t, "users", other.namespace())
}

func TestRenderContext_Stack(t *testing.T) {
	rc := newRenderContext(nil)
	outer := &Template{LogicalPath: "users/show", Filename: "users/show.html.j2"}
	inner := &Template{LogicalPath: "shared/_row", Filename: "shared/_row.html.j2"}

	rc.push(outer)
	rc.push(inner)
	assert.Same(t, inner, rc.Current())
	assert.Equal(t, []string{"users/show", "shared/_row"}, rc.Stack())
	assert.Equal(t, "shared", rc.namespace())

	rc.pop()
	assert.Same(t, outer, rc.Current())
	assert.Equal(t, "users", rc.namespace())

	rc.pop()
	assert.Nil(t, rc.Current())
}

func TestRenderContext_Namespace(t *testing.T) {
	rc := newRenderContext(nil, WithController(&fakeController{path: "admin/users"}))
	assert.Equal(t, "admin/users", rc.namespace())

	rc.Namespace = "posts"
	assert.Equal(t, "posts", rc.namespace())

	rc.push(&Template{LogicalPath: "page"})
	assert.Equal(t, "posts", rc.namespace(), "top-level templates fall back to the namespace")
}

func TestRenderContext_ContentFor(t *testing.T) {
	rc := newRenderContext(nil)

	rc.ContentFor("head", "<a>")
	rc.ContentFor("head", "<b>")
	rc.ContentFor("", "body")

	head, ok := rc.Capture("head")
	assert.True(t, ok)
	assert.Equal(t, "<a><b>", head)

	body, ok := rc.Capture(DefaultCapture)
	assert.True(t, ok)
	assert.Equal(t, "body", body)

	_, ok = rc.Capture("missing")
	assert.False(t, ok)
}

func TestRenderContext_Yield(t *testing.T) {
	rc := newRenderContext(nil)

	out, err := rc.yield("")
	require.NoError(t, err)
	assert.Empty(t, out)

	var calls []string
	restore := rc.withPending(func(name string) (string, error) {
		calls = append(calls, name)
		nested, err := rc.yield(name)
		return "pending" + nested, err
	})

	out, err = rc.yield("sidebar")
	require.NoError(t, err)
	assert.Equal(t, "pending", out, "the pending function does not recurse into itself")
	assert.Equal(t, []string{"sidebar"}, calls)

	rc.ContentFor("sidebar", "captured")
	out, err = rc.yield("sidebar")
	require.NoError(t, err)
	assert.Equal(t, "captured", out, "named captures win over the pending function")

	restore()
	out, err = rc.yield("other")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderContext_YieldError(t *testing.T) {
	rc := newRenderContext(nil)
	boom := errors.New("boom")
	restore := rc.withPending(func(string) (string, error) { return "", boom })
	defer restore()

	_, err := rc.yield("")
	assert.ErrorIs(t, err, boom)
}

func TestRenderContext_WithLayoutContent(t *testing.T) {
	rc := newRenderContext(nil)

	restore := rc.withLayoutContent("outer")
	inner := rc.withLayoutContent("inner")
	content, _ := rc.Capture(DefaultCapture)
	assert.Equal(t, "inner", content)

	inner()
	content, ok := rc.Capture(DefaultCapture)
	assert.True(t, ok)
	assert.Equal(t, "outer", content)

	restore()
	_, ok = rc.Capture(DefaultCapture)
	assert.False(t, ok)
}

func TestRenderContext_Assigns(t *testing.T) {
	explicit := map[string]any{"title": "T"}
	rc := newRenderContext(nil, WithAssigns(explicit))
	explicit["title"] = "changed"

	assert.Empty(t, rc.Assigns(), "assigns are applied by the first template")

	rc.applyAssigns()
	assert.Equal(t, map[string]any{"title": "T"}, rc.Assigns())

	bindings := rc.bindings(map[string]any{"title": "local", "extra": 1})
	assert.Equal(t, map[string]any{"title": "local", "extra": 1}, bindings)
	assert.Equal(t, "T", rc.Assigns()["title"])
}
