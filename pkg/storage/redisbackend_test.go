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
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/storage"
)

// newTestRedisBackend connects to REDIS_TEST_ADDR, skipping the test
// when it is unset: a live Redis server is not assumed to be present
// in every environment this package is tested in.
func newTestRedisBackend(t *testing.T) *storage.RedisBackend {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping redis-backed test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	backend, err := storage.NewRedisBackend(ctx, storage.RedisConfig{Addr: addr, KeyPrefix: "agentrt-test"})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestRedisBackend_SaveLoadDelete(t *testing.T) {
	backend := newTestRedisBackend(t)
	ctx := context.Background()

	snap := storage.AgentSnapshot{AgentID: "a1", Timestamp: time.Now()}
	require.NoError(t, backend.Save(ctx, "sess-redis-1", snap))
	defer backend.Delete(ctx, "sess-redis-1")

	got, err := backend.Load(ctx, "sess-redis-1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AgentID)

	require.NoError(t, backend.Delete(ctx, "sess-redis-1"))
	_, err = backend.Load(ctx, "sess-redis-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisBackend_ListSessions_ScansByPrefix(t *testing.T) {
	backend := newTestRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, "sess-redis-list", storage.AgentSnapshot{AgentID: "a1"}))
	defer backend.Delete(ctx, "sess-redis-list")

	ids, err := backend.ListSessions(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "sess-redis-list")
}
