// Copyright 2025 Kadir Pekel
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

package skill

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// Loader resolves a Ref into a Definition: inline refs are returned as
// is, file refs are read and parsed directly, and by-name refs are
// searched for across a list of template directories as
// "<name>.skill.yaml". Loaded skills are cached by id.
type Loader struct {
	mu          sync.RWMutex
	searchPaths []string
	cache       map[string]Definition

	watcher *fsnotify.Watcher
}

// NewLoader builds a Loader with the conventional default search path.
func NewLoader() *Loader {
	return &Loader{
		searchPaths: []string{filepath.Join("templates", "skills")},
		cache:       make(map[string]Definition),
	}
}

// AddSearchPath appends a directory to search for by-name skill files.
func (l *Loader) AddSearchPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searchPaths = append(l.searchPaths, path)
}

// LoadRefs resolves every ref in order, failing on the first error.
func (l *Loader) LoadRefs(refs []Ref) ([]Definition, error) {
	out := make([]Definition, 0, len(refs))
	for _, ref := range refs {
		def, err := l.LoadRef(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

// LoadRef resolves a single Ref.
func (l *Loader) LoadRef(ref Ref) (Definition, error) {
	switch {
	case ref.Inline != nil:
		return *ref.Inline, nil
	case ref.File != "":
		return l.LoadFromPath(ref.File)
	default:
		return l.LoadByName(ref.Name)
	}
}

// LoadByName searches the configured search paths for "<name>.skill.yaml",
// returning the cached definition if already loaded.
func (l *Loader) LoadByName(name string) (Definition, error) {
	l.mu.RLock()
	if cached, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	paths := append([]string(nil), l.searchPaths...)
	l.mu.RUnlock()

	fileName := name + ".skill.yaml"
	for _, dir := range paths {
		candidate := filepath.Join(dir, fileName)
		if _, err := os.Stat(candidate); err == nil {
			def, err := l.LoadFromPath(candidate)
			if err != nil {
				return Definition{}, err
			}
			l.mu.Lock()
			l.cache[name] = def
			l.mu.Unlock()
			return def, nil
		}
	}

	return Definition{}, agenterr.Newf(agenterr.KindSkill, "skill %q not found in search paths %v", name, paths)
}

// LoadFromPath reads and parses a skill definition file, caching it
// under its declared id.
func (l *Loader) LoadFromPath(path string) (Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, agenterr.Wrapf(agenterr.KindSkill, err, "skill: read %s", path)
	}

	var def Definition
	if err := yaml.Unmarshal(content, &def); err != nil {
		return Definition{}, agenterr.Wrapf(agenterr.KindSkill, err, "skill: parse %s", path)
	}

	l.mu.Lock()
	l.cache[def.ID] = def
	l.mu.Unlock()
	return def, nil
}

// GetCached returns a previously loaded skill by id without touching
// the filesystem.
func (l *Loader) GetCached(id string) (Definition, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.cache[id]
	return def, ok
}

// ClearCache drops every cached skill definition.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]Definition)
}

// Watch starts an fsnotify watch over every configured search path,
// invalidating the whole cache on any write/create/remove under them
// so the next LoadByName re-reads from disk. It returns a stop func;
// callers must call it to release the watcher.
func (l *Loader) Watch(ctx context.Context) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindSkill, "skill: create file watcher", err)
	}

	l.mu.Lock()
	l.watcher = watcher
	paths := append([]string(nil), l.searchPaths...)
	l.mu.Unlock()

	for _, dir := range paths {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("skill loader: failed to watch directory", "dir", dir, "error", err)
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".yaml" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
					slog.Debug("skill loader: reloading cache", "path", event.Name)
					l.ClearCache()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("skill loader: watcher error", "error", err)
			}
		}
	}()

	return func() {
		l.mu.Lock()
		l.watcher = nil
		l.mu.Unlock()
		watcher.Close()
	}, nil
}
