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

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/storage"
)

func TestFileBackend_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	snap := storage.AgentSnapshot{AgentID: "a1", Timestamp: time.Now()}
	require.NoError(t, backend.Save(ctx, "sess-1", snap))

	got, err := backend.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AgentID)

	ids, err := backend.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1"}, ids)

	require.NoError(t, backend.Delete(ctx, "sess-1"))
	_, err = backend.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileBackend_Load_MissingSessionReturnsErrNotFound(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileBackend_Save_RequiresSessionID(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	err = backend.Save(context.Background(), "", storage.AgentSnapshot{})
	assert.Error(t, err)
}

func TestFileBackend_SanitisesSessionIDAgainstTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := storage.NewFileBackend(dir)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Save(ctx, "../../etc/passwd", storage.AgentSnapshot{AgentID: "a"}))

	ids, err := backend.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotContains(t, ids[0], "..")
	assert.NotContains(t, ids[0], "/")
}
