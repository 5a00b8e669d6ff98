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
	"strings"
	"sync"
)

// Registry maps file extensions to template handlers. Extension order follows
// registration order and drives candidate generation during view lookup.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[HandlerType]Handler
	byExtension map[string]Handler
	extensions  []string
	fallback    HandlerType
}

// NewRegistry creates an empty registry. The default handler is gonja until
// SetDefault is called.
func NewRegistry() *Registry {
	return &Registry{
		handlers:    make(map[HandlerType]Handler),
		byExtension: make(map[string]Handler),
		fallback:    HandlerTypeGonja,
	}
}

// DefaultRegistry returns a registry with the gonja, pongo2 and markdown
// handlers registered in that order.
func DefaultRegistry() (*Registry, error) {
	gonjaHandler, err := NewGonjaHandler(DefaultFilters(), nil)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	for _, h := range []Handler{gonjaHandler, NewPongo2Handler(), NewMarkdownHandler()} {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a handler and claims its extensions. Duplicate handler types
// or extensions return an error.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("templating: handler is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[h.Type()]; exists {
		return fmt.Errorf("templating: handler %q already registered", h.Type())
	}
	for _, ext := range h.Extensions() {
		ext = normalizeExtension(ext)
		if owner, exists := r.byExtension[ext]; exists {
			return fmt.Errorf("templating: extension %q already claimed by %q", ext, owner.Type())
		}
	}

	r.handlers[h.Type()] = h
	for _, ext := range h.Extensions() {
		ext = normalizeExtension(ext)
		r.byExtension[ext] = h
		r.extensions = append(r.extensions, ext)
	}
	return nil
}

// SetDefault selects the handler used for inline templates that name no type.
func (r *Registry) SetDefault(t HandlerType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[t]; !ok {
		return NewUnsupportedHandlerError(t.String())
	}
	r.fallback = t
	return nil
}

// Default returns the default handler.
func (r *Registry) Default() (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[r.fallback]
	if !ok {
		return nil, NewUnsupportedHandlerError(r.fallback.String())
	}
	return h, nil
}

// Get returns the handler of the given type.
func (r *Registry) Get(t HandlerType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[t]
	if !ok {
		return nil, NewUnsupportedHandlerError(t.String())
	}
	return h, nil
}

// Lookup resolves a handler by name. An empty name yields the default
// handler.
func (r *Registry) Lookup(name string) (Handler, error) {
	if strings.TrimSpace(name) == "" {
		return r.Default()
	}
	t, err := ParseHandlerType(name)
	if err != nil {
		return nil, NewUnsupportedHandlerError(name)
	}
	return r.Get(t)
}

// ForExtension returns the handler serving a file extension (with or without
// the leading dot).
func (r *Registry) ForExtension(ext string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byExtension[normalizeExtension(ext)]
	return h, ok
}

// Extensions returns every registered extension in registration order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.extensions))
	copy(out, r.extensions)
	return out
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
