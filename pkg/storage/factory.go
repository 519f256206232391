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
	"time"

	"github.com/kadirpekel/agentrt/pkg/config"
)

// New constructs the backend named by cfg.Type, dialing or opening
// whatever it needs. StorageNone/"" returns a nil Backend and no
// error; callers treat a nil Backend as "persistence disabled".
func New(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case config.StorageNone, "":
		return nil, nil

	case config.StorageFile:
		path := cfg.Path
		if path == "" {
			path = "./data/sessions"
		}
		return NewFileBackend(path)

	case config.StorageSQLite:
		return NewSQLBackend(ctx, DialectSQLite, cfg.DSN, DefaultSQLConfig())

	case config.StoragePostgres:
		return NewSQLBackend(ctx, DialectPostgres, cfg.DSN, DefaultSQLConfig())

	case config.StorageMySQL:
		return NewSQLBackend(ctx, DialectMySQL, cfg.DSN, DefaultSQLConfig())

	case config.StorageRedis:
		return NewRedisBackend(ctx, RedisConfig{
			Addr:      cfg.Addr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       time.Duration(cfg.TTLSeconds) * time.Second,
		})

	default:
		return nil, fmt.Errorf("storage: unknown backend type %q", cfg.Type)
	}
}
