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
	"sync"

	"github.com/nikolalohinski/gonja/v2/loaders"
)

// includeLoader serves the template being compiled from memory and every
// other name through the include ReadFunc. It uses a flat namespace: names
// are logical template paths such as "shared/_header", without the '/' prefix
// gonja's MemoryLoader insists on.
type includeLoader struct {
	root    string
	source  string
	include ReadFunc

	mu      sync.Mutex
	fetched map[string]string
}

// newIncludeLoader creates a loader for the template named root.
func newIncludeLoader(root, source string, include ReadFunc) loaders.Loader {
	return &includeLoader{
		root:    root,
		source:  source,
		include: include,
		fetched: make(map[string]string),
	}
}

// Read returns an io.Reader for the template content.
func (l *includeLoader) Read(path string) (io.Reader, error) {
	content, err := l.lookup(path)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(content), nil
}

// Resolve returns the path unchanged once the template is known to exist.
func (l *includeLoader) Resolve(path string) (string, error) {
	if _, err := l.lookup(path); err != nil {
		return "", err
	}
	return path, nil
}

// Inherit returns the same loader. Relative paths are not supported.
func (l *includeLoader) Inherit(from string) (loaders.Loader, error) {
	return l, nil
}

func (l *includeLoader) lookup(path string) (string, error) {
	if path == l.root {
		return l.source, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if content, ok := l.fetched[path]; ok {
		return content, nil
	}
	if l.include == nil {
		return "", fmt.Errorf("template not found: %s", path)
	}
	content, err := l.include(path)
	if err != nil {
		return "", fmt.Errorf("template not found: %s: %w", path, err)
	}
	l.fetched[path] = content
	return content, nil
}
