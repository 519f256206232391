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
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend persists snapshots as plain string values keyed by a
// prefixed session id, with an optional TTL (spec §6). It does not
// implement QueryableBackend: Redis has no relational predicate
// surface worth emulating here, so structured search is SQLBackend's
// job alone.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig configures a RedisBackend's connection and key
// namespacing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces every key this backend writes, so several
	// agents can share one Redis instance without collisions.
	KeyPrefix string
	// TTL expires snapshots automatically; zero means no expiry.
	TTL time.Duration
}

// NewRedisBackend dials addr and verifies connectivity with PING.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("storage: redis ping %s: %w", cfg.Addr, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "agentrt:session:"
	} else if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &RedisBackend{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

func (b *RedisBackend) key(sessionID string) string {
	return b.prefix + sessionID
}

func (b *RedisBackend) Save(ctx context.Context, sessionID string, snap AgentSnapshot) error {
	if sessionID == "" {
		return fmt.Errorf("storage: session id is required")
	}
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key(sessionID), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("storage: redis save %s: %w", sessionID, err)
	}
	return nil
}

func (b *RedisBackend) Load(ctx context.Context, sessionID string) (AgentSnapshot, error) {
	data, err := b.client.Get(ctx, b.key(sessionID)).Bytes()
	if err == redis.Nil {
		return AgentSnapshot{}, ErrNotFound
	}
	if err != nil {
		return AgentSnapshot{}, fmt.Errorf("storage: redis load %s: %w", sessionID, err)
	}
	return UnmarshalSnapshot(data)
}

func (b *RedisBackend) Delete(ctx context.Context, sessionID string) error {
	if err := b.client.Del(ctx, b.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("storage: redis delete %s: %w", sessionID, err)
	}
	return nil
}

// ListSessions scans keys under the backend's prefix rather than
// using KEYS, so it does not block the server on a large keyspace.
func (b *RedisBackend) ListSessions(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := b.client.Scan(ctx, cursor, b.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("storage: redis scan: %w", err)
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, b.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

func (b *RedisBackend) Close() error { return b.client.Close() }

var _ Backend = (*RedisBackend)(nil)
