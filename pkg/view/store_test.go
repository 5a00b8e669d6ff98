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
	"errors"
	"sync"
	"testing"

	"github.com/rekby/fixenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Validation(t *testing.T) {
	env := fixenv.New(t)
	registry := handlerRegistry(env)

	_, err := NewStore(nil, registry)
	assert.Error(t, err)

	_, err = NewStore([]Root{mapRoot("views", nil)}, nil)
	assert.Error(t, err)

	_, err = NewStore([]Root{{Path: "broken"}}, registry)
	assert.Error(t, err)
}

func TestStore_LoadCachesTemplates(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"users/show.html.j2": "show",
	})})
	ctx := context.Background()

	first, err := store.Load(ctx, 0, "users/show.html.j2")
	require.NoError(t, err)
	second, err := store.Load(ctx, 0, "users/show.html.j2")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "users/show", first.LogicalPath)
	assert.Equal(t, "views", first.Root)
	assert.Equal(t, "gonja", first.Handler.String())
	assert.NotNil(t, first.Executable())
}

func TestStore_LoadWithoutCache(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"page.html.j2": "page",
	})}, WithCache(false))
	ctx := context.Background()

	first, err := store.Load(ctx, 0, "page.html.j2")
	require.NoError(t, err)
	second, err := store.Load(ctx, 0, "page.html.j2")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 0, store.Len())
}

func TestStore_ConcurrentLoadsShareOneCompile(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"page.html.j2": "{{ x }}",
	})})

	const workers = 32
	results := make([]*Template, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tmpl, err := store.Load(context.Background(), 0, "page.html.j2")
			if err == nil {
				results[i] = tmpl
			}
		}()
	}
	wg.Wait()

	for _, tmpl := range results {
		require.NotNil(t, tmpl)
		assert.Same(t, results[0], tmpl)
	}
}

func TestStore_ConcurrentCompileFailuresAreNotShared(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"broken.html.j2": "{% for %}",
	})})

	const workers = 16
	errs := make([]*TemplateExecutionError, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(context.Background(), 0, "broken.html.j2")
			var execErr *TemplateExecutionError
			if errors.As(err, &execErr) {
				errs[i] = execErr
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NotNil(t, err)
		assert.Equal(t, []string{"broken"}, err.Chain())
		for _, other := range errs[i+1:] {
			assert.NotSame(t, err, other)
		}
	}
}

func TestStore_LoadErrors(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"broken.html.j2": "{% if %}",
		"page.html.erb":  "<%= x %>",
	})})
	ctx := context.Background()

	_, err := store.Load(ctx, 3, "page.html.j2")
	assert.Error(t, err)

	_, err = store.Load(ctx, 0, "missing.html.j2")
	assert.Error(t, err)

	_, err = store.Load(ctx, 0, "page.html.erb")
	assert.Error(t, err)

	_, err = store.Load(ctx, 0, "broken.html.j2")
	var execErr *TemplateExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "broken", execErr.Template.LogicalPath)
	assert.Equal(t, 0, store.Len())
}

func TestStore_Exists(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"users/show.html.j2": "show",
	})})

	assert.True(t, store.Exists(0, "users/show.html.j2"))
	assert.False(t, store.Exists(0, "users"))
	assert.False(t, store.Exists(0, "users/edit.html.j2"))
	assert.False(t, store.Exists(1, "users/show.html.j2"))
	assert.False(t, store.Exists(-1, "users/show.html.j2"))
}

func TestStore_Includes(t *testing.T) {
	store := newTestStore(t, []Root{
		mapRoot("A", map[string]string{
			"page.html.j2": `{% include "shared/_header" %}|{% include "shared/_footer.html.j2" %}`,
		}),
		mapRoot("B", map[string]string{
			"shared/_header.html.j2": "H",
			"shared/_footer.html.j2": "F",
		}),
	})
	e := NewEngine(store, WithLogger(discardLogger()))

	out, _, err := renderOnce(t, e, File{Name: "page"})
	require.NoError(t, err)
	assert.Equal(t, "H|F", out)
}

func TestStore_InvalidateDropsIncluders(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"page.html.j2":           `{% include "shared/_header" %}`,
		"other.html.j2":          "other",
		"shared/_header.html.j2": "H",
	})})
	ctx := context.Background()

	_, err := store.Load(ctx, 0, "page.html.j2")
	require.NoError(t, err)
	_, err = store.Load(ctx, 0, "other.html.j2")
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	store.Invalidate(0, "shared/_header.html.j2")
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Exists(0, "other.html.j2"))

	store.Invalidate(0, "other.html.j2")
	assert.Equal(t, 0, store.Len())
}

func TestStore_InvalidateDir(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"users/show.html.j2":       "show",
		"users/admin/edit.html.j2": "edit",
		"users2/show.html.j2":      "other dir",
		"page.html.j2":             `{% include "users/_row" %}`,
		"users/_row.html.j2":       "row",
		"plain.html.j2":            "plain",
	})})
	ctx := context.Background()
	for _, file := range []string{"users/show.html.j2", "users/admin/edit.html.j2", "users2/show.html.j2", "page.html.j2", "plain.html.j2"} {
		_, err := store.Load(ctx, 0, file)
		require.NoError(t, err)
	}
	require.Equal(t, 5, store.Len())

	store.InvalidateDir(0, "users/")
	assert.Equal(t, 2, store.Len(), "files below users and their includers are dropped")

	first, err := store.Load(ctx, 0, "users2/show.html.j2")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len(), "a sibling directory sharing the prefix stays cached")

	store.InvalidateDir(1, "")
	assert.Equal(t, 2, store.Len())

	store.InvalidateDir(0, ".")
	assert.Equal(t, 0, store.Len())

	second, err := store.Load(ctx, 0, "users2/show.html.j2")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t, []Root{mapRoot("views", map[string]string{
		"a.html.j2": "a",
		"b.html.j2": "b",
	})})
	ctx := context.Background()

	for _, f := range []string{"a.html.j2", "b.html.j2"} {
		_, err := store.Load(ctx, 0, f)
		require.NoError(t, err)
	}
	require.Equal(t, 2, store.Len())

	store.Reset()
	assert.Equal(t, 0, store.Len())
}

func TestStore_Files(t *testing.T) {
	store := newTestStore(t, []Root{
		mapRoot("A", map[string]string{
			"users/show.html.j2": "show",
			"README":             "not a template",
			"notes.txt":          "unknown extension",
		}),
		mapRoot("B", map[string]string{
			"feed.xml.tpl": "feed",
		}),
	})

	files, err := store.Files()
	require.NoError(t, err)
	assert.Equal(t, []RootFile{
		{Root: 0, File: "users/show.html.j2"},
		{Root: 1, File: "feed.xml.tpl"},
	}, files)
}

func TestStore_DirRoot(t *testing.T) {
	env := fixenv.New(t)
	dir := viewDir(env)
	writeView(t, dir, "users/show.html.j2", "from disk")

	e := newTestEngine(t, []Root{DirRoot(dir)})
	out, _, err := renderOnce(t, e, File{Name: "users/show"})
	require.NoError(t, err)
	assert.Equal(t, "from disk", out)

	_, _, err = renderOnce(t, e, File{Name: "missing"})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{dir}, notFound.SearchedPaths)
}
