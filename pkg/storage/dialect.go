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

import "fmt"

// Dialect is the name of a supported database/sql driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// dialectSyntax isolates the handful of places the three SQL dialects
// disagree: bind-parameter placeholders, the upsert clause, and the
// DDL needed for a JSON-ish column (sqlite/mysql have no first-class
// JSON type usable portably; TEXT holds the serialised tags/data
// either way, and each driver parses plain JSON back out fine).
type dialectSyntax struct {
	placeholder func(n int) string
	upsert      string // appended after the INSERT ... VALUES (...) clause
	createTable string
}

func syntaxFor(d Dialect) (dialectSyntax, error) {
	switch d {
	case DialectPostgres:
		return dialectSyntax{
			placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
			upsert: `ON CONFLICT (session_id) DO UPDATE SET
				agent_id = EXCLUDED.agent_id, user_id = EXCLUDED.user_id,
				state = EXCLUDED.state, tags = EXCLUDED.tags,
				created_at = EXCLUDED.created_at, data = EXCLUDED.data`,
			createTable: `CREATE TABLE IF NOT EXISTS snapshots (
				session_id TEXT PRIMARY KEY,
				agent_id TEXT NOT NULL,
				user_id TEXT NOT NULL DEFAULT '',
				state TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMPTZ NOT NULL,
				data TEXT NOT NULL
			)`,
		}, nil

	case DialectMySQL:
		return dialectSyntax{
			placeholder: func(int) string { return "?" },
			upsert: `ON DUPLICATE KEY UPDATE
				agent_id = VALUES(agent_id), user_id = VALUES(user_id),
				state = VALUES(state), tags = VALUES(tags),
				created_at = VALUES(created_at), data = VALUES(data)`,
			createTable: `CREATE TABLE IF NOT EXISTS snapshots (
				session_id VARCHAR(255) PRIMARY KEY,
				agent_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL DEFAULT '',
				state VARCHAR(255) NOT NULL DEFAULT '',
				tags TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				data LONGTEXT NOT NULL
			)`,
		}, nil

	case DialectSQLite, "":
		return dialectSyntax{
			placeholder: func(int) string { return "?" },
			upsert: `ON CONFLICT(session_id) DO UPDATE SET
				agent_id = excluded.agent_id, user_id = excluded.user_id,
				state = excluded.state, tags = excluded.tags,
				created_at = excluded.created_at, data = excluded.data`,
			createTable: `CREATE TABLE IF NOT EXISTS snapshots (
				session_id TEXT PRIMARY KEY,
				agent_id TEXT NOT NULL,
				user_id TEXT NOT NULL DEFAULT '',
				state TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				created_at DATETIME NOT NULL,
				data TEXT NOT NULL
			)`,
		}, nil

	default:
		return dialectSyntax{}, fmt.Errorf("storage: unsupported dialect %q", d)
	}
}

// driverName maps a Dialect to the database/sql driver name registered
// by its import (the blank-imported *_driver package).
func driverName(d Dialect) string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite3"
	}
}
