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

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// FileBackend persists one JSON file per session under a root
// directory, the simplest backend for local runs and tests.
type FileBackend struct {
	root string
	mu   sync.Mutex
}

// NewFileBackend builds a FileBackend rooted at dir, creating it if
// necessary.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", dir, err)
	}
	return &FileBackend{root: dir}, nil
}

var unsafeSessionChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// sessionPath sanitises sessionID before joining it onto root, so a
// session id cannot escape the root directory via "../" or an
// absolute path.
func (b *FileBackend) sessionPath(sessionID string) string {
	safe := unsafeSessionChars.ReplaceAllString(sessionID, "_")
	safe = strings.ReplaceAll(safe, "..", "__")
	return filepath.Join(b.root, safe+".json")
}

func (b *FileBackend) Save(ctx context.Context, sessionID string, snap AgentSnapshot) error {
	if sessionID == "" {
		return fmt.Errorf("storage: session id is required")
	}
	data, err := snap.Marshal()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.sessionPath(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", tmp, err)
	}
	return nil
}

func (b *FileBackend) Load(ctx context.Context, sessionID string) (AgentSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.sessionPath(sessionID))
	if os.IsNotExist(err) {
		return AgentSnapshot{}, ErrNotFound
	}
	if err != nil {
		return AgentSnapshot{}, fmt.Errorf("storage: read %s: %w", sessionID, err)
	}
	return UnmarshalSnapshot(data)
}

func (b *FileBackend) Delete(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := os.Remove(b.sessionPath(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete %s: %w", sessionID, err)
	}
	return nil
}

func (b *FileBackend) ListSessions(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", b.root, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (b *FileBackend) Close() error { return nil }

var _ Backend = (*FileBackend)(nil)
