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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates cached templates when files under directory roots
// change. It blocks until ctx is cancelled. Roots without a Dir are ignored.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("view: creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, r := range s.roots {
		if r.Dir == "" {
			continue
		}
		if err := addWatchTree(watcher, r.Dir); err != nil {
			return fmt.Errorf("view: watching %s: %w", r.Dir, err)
		}
		watched++
	}
	s.logger.Info("Watching template roots", "roots", watched)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleFileEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("template watcher error", "error", err)
		}
	}
}

func (s *Store) handleFileEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addWatchTree(watcher, event.Name); err != nil {
				s.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	for i, r := range s.roots {
		if r.Dir == "" {
			continue
		}
		rel, err := filepath.Rel(r.Dir, event.Name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		file := filepath.ToSlash(rel)
		s.Invalidate(i, file)
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			// The path may have been a directory; it can no longer be stat'ed.
			s.InvalidateDir(i, file)
		}
		s.logger.Debug("invalidated template", "root", r.Path, "file", file, "op", event.Op.String())
	}
}

func addWatchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
