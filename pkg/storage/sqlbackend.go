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
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLConfig tunes the connection pool behind SQLBackend. Zero-valued
// fields fall back to DefaultSQLConfig's values.
type SQLConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultSQLConfig mirrors the pool sizing a single-process agent
// runtime needs: modest concurrency, short idle recycling.
func DefaultSQLConfig() SQLConfig {
	return SQLConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// SQLBackend persists snapshots to a relational database, one row per
// session in a single "snapshots" table, and additionally supports
// structured queries over agent id, state, user id, tags, and time
// windows (spec §6). The SQL text differs only at the points isolated
// by dialectSyntax; the rest of the backend is dialect-agnostic.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
	syntax  dialectSyntax
}

// NewSQLBackend opens dsn with the driver registered for dialect,
// applies cfg's pool settings, creates the snapshots table if it does
// not exist, and pings the database to fail fast on a bad DSN.
func NewSQLBackend(ctx context.Context, dialect Dialect, dsn string, cfg SQLConfig) (*SQLBackend, error) {
	syntax, err := syntaxFor(dialect)
	if err != nil {
		return nil, err
	}

	def := DefaultSQLConfig()
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = def.MaxOpenConns
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}

	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dialect, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", dialect, err)
	}

	b := &SQLBackend{db: db, dialect: dialect, syntax: syntax}
	if _, err := db.ExecContext(ctx, syntax.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return b, nil
}

func (b *SQLBackend) ph(n int) string { return b.syntax.placeholder(n) }

func (b *SQLBackend) Save(ctx context.Context, sessionID string, snap AgentSnapshot) error {
	if sessionID == "" {
		return fmt.Errorf("storage: session id is required")
	}
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	tags, err := json.Marshal(snap.Tags)
	if err != nil {
		return fmt.Errorf("storage: marshal tags: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO snapshots
		(session_id, agent_id, user_id, state, tags, created_at, data)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		%s`,
		b.ph(1), b.ph(2), b.ph(3), b.ph(4), b.ph(5), b.ph(6), b.ph(7), b.syntax.upsert)

	_, err = b.db.ExecContext(ctx, query,
		sessionID, snap.AgentID, snap.UserID, snap.StateName(), string(tags), snap.Timestamp, string(data))
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", sessionID, err)
	}
	return nil
}

func (b *SQLBackend) Load(ctx context.Context, sessionID string) (AgentSnapshot, error) {
	query := fmt.Sprintf(`SELECT data FROM snapshots WHERE session_id = %s`, b.ph(1))
	row := b.db.QueryRowContext(ctx, query, sessionID)

	var data string
	if err := row.Scan(&data); err == sql.ErrNoRows {
		return AgentSnapshot{}, ErrNotFound
	} else if err != nil {
		return AgentSnapshot{}, fmt.Errorf("storage: load %s: %w", sessionID, err)
	}
	return UnmarshalSnapshot([]byte(data))
}

func (b *SQLBackend) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM snapshots WHERE session_id = %s`, b.ph(1))
	if _, err := b.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("storage: delete %s: %w", sessionID, err)
	}
	return nil
}

func (b *SQLBackend) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT session_id FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("storage: list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (b *SQLBackend) Close() error { return b.db.Close() }

// Query runs a structured search over stored snapshots (spec §6): any
// zero-valued Query field is unconstrained. Tags matching is done in
// Go over the tags column rather than pushed into SQL, since the
// three dialects disagree on JSON predicate syntax.
func (b *SQLBackend) Query(ctx context.Context, q Query) ([]AgentSnapshot, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, v any) {
		clauses = append(clauses, fmt.Sprintf(clause, b.ph(len(args)+1)))
		args = append(args, v)
	}
	if q.AgentID != "" {
		add("agent_id = %s", q.AgentID)
	}
	if q.State != "" {
		add("state = %s", q.State)
	}
	if q.UserID != "" {
		add("user_id = %s", q.UserID)
	}
	if !q.From.IsZero() {
		add("created_at >= %s", q.From)
	}
	if !q.To.IsZero() {
		add("created_at <= %s", q.To)
	}

	sqlText := "SELECT data, tags FROM snapshots"
	if len(clauses) > 0 {
		sqlText += " WHERE " + strings.Join(clauses, " AND ")
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at desc"
	}
	sqlText += " ORDER BY " + orderBy

	rows, err := b.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	var out []AgentSnapshot
	for rows.Next() {
		var data, tags string
		if err := rows.Scan(&data, &tags); err != nil {
			return nil, fmt.Errorf("storage: scan query row: %w", err)
		}
		if len(q.Tags) > 0 && !hasAllTags(tags, q.Tags) {
			continue
		}
		snap, err := UnmarshalSnapshot([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out = paginate(out, q.Limit, q.Offset)
	return out, nil
}

func hasAllTags(tagsJSON string, want []string) bool {
	var have []string
	if err := json.Unmarshal([]byte(tagsJSON), &have); err != nil {
		return false
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func paginate(snaps []AgentSnapshot, limit, offset int) []AgentSnapshot {
	if offset > 0 {
		if offset >= len(snaps) {
			return nil
		}
		snaps = snaps[offset:]
	}
	if limit > 0 && limit < len(snaps) {
		snaps = snaps[:limit]
	}
	return snaps
}

var (
	_ Backend          = (*SQLBackend)(nil)
	_ QueryableBackend = (*SQLBackend)(nil)
)
