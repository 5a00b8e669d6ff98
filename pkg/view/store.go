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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"viewrender/pkg/templating"
)

// Root is one search root of the store.
type Root struct {
	// Path is the display path used in logs and NotFoundError.
	Path string

	// FS serves the root's files.
	FS fs.FS

	// Dir is the on-disk directory of the root, if any. Only roots with a
	// Dir are watched for changes.
	Dir string
}

// DirRoot returns a root backed by an on-disk directory.
func DirRoot(dir string) Root {
	return Root{Path: dir, FS: os.DirFS(dir), Dir: dir}
}

// FSRoot returns a root backed by an arbitrary file system.
func FSRoot(name string, fsys fs.FS) Root {
	return Root{Path: name, FS: fsys}
}

// Store loads and compiles template files from an ordered list of roots and
// caches the compiled templates. It is safe for concurrent use.
type Store struct {
	roots    []Root
	registry *templating.Registry
	logger   *slog.Logger
	cache    bool

	mu      sync.RWMutex
	entries map[string]*storeEntry
	group   singleflight.Group
}

type storeEntry struct {
	template *Template
	includes *includeSet
}

// includeSet records the cache keys of files a template included. Dynamic
// includes may be read during execution, so it is shared and locked.
type includeSet struct {
	mu   sync.Mutex
	keys []string
}

func (s *includeSet) add(key string) {
	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.mu.Unlock()
}

func (s *includeSet) matches(match func(key string) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.keys, match)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache enables or disables the compile cache. Enabled by default.
func WithCache(enabled bool) StoreOption {
	return func(s *Store) {
		s.cache = enabled
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store over roots, compiling files with the handlers of
// registry.
func NewStore(roots []Root, registry *templating.Registry, opts ...StoreOption) (*Store, error) {
	if len(roots) == 0 {
		return nil, errors.New("view: at least one root is required")
	}
	if registry == nil {
		return nil, errors.New("view: handler registry is required")
	}
	for i, r := range roots {
		if r.FS == nil {
			return nil, fmt.Errorf("view: root %d (%s) has no file system", i, r.Path)
		}
	}

	s := &Store{
		roots:    append([]Root(nil), roots...),
		registry: registry,
		logger:   slog.Default(),
		cache:    true,
		entries:  make(map[string]*storeEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Roots returns the roots in search order.
func (s *Store) Roots() []Root {
	return append([]Root(nil), s.roots...)
}

// Registry returns the handler registry.
func (s *Store) Registry() *templating.Registry {
	return s.registry
}

// Exists reports whether file exists in the given root.
func (s *Store) Exists(root int, file string) bool {
	if root < 0 || root >= len(s.roots) {
		return false
	}
	if s.cache {
		s.mu.RLock()
		_, ok := s.entries[cacheKey(root, file)]
		s.mu.RUnlock()
		if ok {
			return true
		}
	}
	info, err := fs.Stat(s.roots[root].FS, file)
	return err == nil && !info.IsDir()
}

// Load returns the compiled template for file in the given root, compiling
// it on first use. Concurrent first loads of one file compile once.
// Compilation failures are returned as *TemplateExecutionError attributed to
// the file.
func (s *Store) Load(ctx context.Context, root int, file string) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if root < 0 || root >= len(s.roots) {
		return nil, fmt.Errorf("view: root index %d out of range", root)
	}

	key := cacheKey(root, file)
	if s.cache {
		s.mu.RLock()
		entry, ok := s.entries[key]
		s.mu.RUnlock()
		if ok {
			return entry.template, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		entry, err := s.compile(root, file)
		if err != nil {
			return nil, err
		}
		if s.cache {
			s.mu.Lock()
			s.entries[key] = entry
			s.mu.Unlock()
		}
		s.logger.Debug("compiled template",
			"root", s.roots[root].Path,
			"file", file,
			"handler", entry.template.Handler.String())
		return entry.template, nil
	})
	var failed *compileFailure
	if errors.As(err, &failed) {
		// Every caller gets its own error so attribution chains stay separate.
		return nil, newTemplateExecutionError(failed.template, nil, failed.cause)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// compileFailure carries a handler compile error out of the shared
// singleflight call.
type compileFailure struct {
	template *Template
	cause    error
}

func (f *compileFailure) Error() string {
	return fmt.Sprintf("view: compiling %s: %v", f.template.LogicalPath, f.cause)
}

func (f *compileFailure) Unwrap() error {
	return f.cause
}

func (s *Store) compile(root int, file string) (*storeEntry, error) {
	r := s.roots[root]
	meta, ok := parseFileName(file)
	if !ok {
		return nil, fmt.Errorf("view: %s has no handler extension", file)
	}
	handler, ok := s.registry.ForExtension(meta.ext)
	if !ok {
		return nil, templating.NewUnsupportedHandlerError(meta.ext)
	}

	source, err := fs.ReadFile(r.FS, file)
	if err != nil {
		return nil, fmt.Errorf("view: reading %s: %w", path.Join(r.Path, file), err)
	}

	includes := &includeSet{}
	exe, err := handler.Compile(templating.Source{
		Name:    meta.logicalPath,
		Text:    string(source),
		Include: s.includeReader(meta.format, includes),
	})
	if err != nil {
		// Compilation is the first step of executing the file.
		return nil, &compileFailure{template: newTemplate(r.Path, file, meta, handler.Type(), nil), cause: err}
	}

	return &storeEntry{
		template: newTemplate(r.Path, file, meta, handler.Type(), exe),
		includes: includes,
	}, nil
}

// IncludeReader returns the function handlers use to resolve include
// directives for templates of the given format. Include names are logical
// paths ("shared/_header") or explicit file names ("shared/_header.html.j2").
func (s *Store) IncludeReader(format string) templating.ReadFunc {
	return s.includeReader(format, nil)
}

func (s *Store) includeReader(format string, seen *includeSet) templating.ReadFunc {
	return func(name string) (string, error) {
		candidates := s.includeCandidates(name, format)
		for i, r := range s.roots {
			for _, file := range candidates {
				content, err := fs.ReadFile(r.FS, file)
				if err != nil {
					continue
				}
				if seen != nil {
					seen.add(cacheKey(i, file))
				}
				return string(content), nil
			}
		}
		return "", fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
}

func (s *Store) includeCandidates(name, format string) []string {
	name = path.Clean(name)
	out := []string{name}
	for _, ext := range s.registry.Extensions() {
		if format != "" {
			out = append(out, name+"."+format+"."+ext)
		}
		out = append(out, name+"."+ext)
	}
	return out
}

// Invalidate drops the cached template for file and every cached template
// that included it.
func (s *Store) Invalidate(root int, file string) {
	key := cacheKey(root, file)
	s.invalidate(func(k string) bool { return k == key })
}

// InvalidateDir drops every cached template below dir in the given root and
// the templates that included one of them. An empty dir or "." covers the
// whole root.
func (s *Store) InvalidateDir(root int, dir string) {
	dir = strings.Trim(path.Clean(dir), "/")
	prefix := cacheKey(root, "")
	if dir != "." && dir != "" {
		prefix = cacheKey(root, dir+"/")
	}
	s.invalidate(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (s *Store) invalidate(match func(key string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, entry := range s.entries {
		if match(k) || entry.includes.matches(match) {
			delete(s.entries, k)
		}
	}
}

// Reset drops every cached template.
func (s *Store) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]*storeEntry)
	s.mu.Unlock()
}

// Len returns the number of cached templates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Files lists every file in every root that a registered handler can
// compile, as (root index, file) pairs in search order.
func (s *Store) Files() ([]RootFile, error) {
	var out []RootFile
	for i, r := range s.roots {
		err := fs.WalkDir(r.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			meta, ok := parseFileName(p)
			if !ok {
				return nil
			}
			if _, ok := s.registry.ForExtension(meta.ext); ok {
				out = append(out, RootFile{Root: i, File: p})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("view: walking %s: %w", r.Path, err)
		}
	}
	return out, nil
}

// RootFile identifies a file within a root.
type RootFile struct {
	Root int
	File string
}

func cacheKey(root int, file string) string {
	return strconv.Itoa(root) + "|" + file
}
