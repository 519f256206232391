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

func newTestSQLBackend(t *testing.T) *storage.SQLBackend {
	t.Helper()
	backend, err := storage.NewSQLBackend(context.Background(), storage.DialectSQLite, "file::memory:?cache=shared", storage.DefaultSQLConfig())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLBackend_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	backend := newTestSQLBackend(t)

	snap := storage.AgentSnapshot{AgentID: "a1", UserID: "u1", Tags: []string{"vip"}, Timestamp: time.Now()}
	require.NoError(t, backend.Save(ctx, "sess-1", snap))

	got, err := backend.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AgentID)

	require.NoError(t, backend.Delete(ctx, "sess-1"))
	_, err = backend.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLBackend_Save_UpsertsOnSameSessionID(t *testing.T) {
	ctx := context.Background()
	backend := newTestSQLBackend(t)

	require.NoError(t, backend.Save(ctx, "sess-2", storage.AgentSnapshot{AgentID: "a1"}))
	require.NoError(t, backend.Save(ctx, "sess-2", storage.AgentSnapshot{AgentID: "a2"}))

	got, err := backend.Load(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AgentID)

	ids, err := backend.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestSQLBackend_Query_FiltersByAgentUserAndTags(t *testing.T) {
	ctx := context.Background()
	backend := newTestSQLBackend(t)

	require.NoError(t, backend.Save(ctx, "s1", storage.AgentSnapshot{
		AgentID: "support", UserID: "u1", Tags: []string{"vip", "billing"}, Timestamp: time.Now(),
	}))
	require.NoError(t, backend.Save(ctx, "s2", storage.AgentSnapshot{
		AgentID: "support", UserID: "u2", Tags: []string{"billing"}, Timestamp: time.Now(),
	}))
	require.NoError(t, backend.Save(ctx, "s3", storage.AgentSnapshot{
		AgentID: "other", UserID: "u1", Timestamp: time.Now(),
	}))

	results, err := backend.Query(ctx, storage.Query{AgentID: "support", Tags: []string{"vip"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].UserID)

	results, err = backend.Query(ctx, storage.Query{AgentID: "support"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSQLBackend_Query_LimitOffset(t *testing.T) {
	ctx := context.Background()
	backend := newTestSQLBackend(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, backend.Save(ctx, string(rune('a'+i)), storage.AgentSnapshot{
			AgentID: "paged", Timestamp: time.Now(),
		}))
	}

	results, err := backend.Query(ctx, storage.Query{AgentID: "paged", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
