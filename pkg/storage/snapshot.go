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

// Package storage implements the persistence contract: a versioned,
// JSON snapshot of one session's memory/state/context, and three
// concrete backends (file, SQL, Redis) behind a single save/load/
// delete/list contract. Readers must tolerate unknown fields; writers
// always emit the current snapshot version.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/state"
)

// CurrentSnapshotVersion is the version AgentSnapshot writers emit.
// Bump it when the on-disk shape changes in a way old readers cannot
// tolerate; readers otherwise ignore unknown fields regardless of
// version.
const CurrentSnapshotVersion = 1

// AgentSnapshot is the persistable record of one session (spec §6): a
// schema version, identity, wall-clock time, the optional state-
// machine snapshot, the memory snapshot, and a free-form context map.
// AgentID/UserID/Tags/StateName are carried alongside the payload so
// SQLBackend's structured query can filter without deserialising the
// JSON blob.
type AgentSnapshot struct {
	Version      int             `json:"version"`
	AgentID      string          `json:"agent_id"`
	UserID       string          `json:"user_id,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	StateMachine *state.Snapshot `json:"state_machine,omitempty"`
	Memory       memory.Snapshot `json:"memory"`
	Context      map[string]any  `json:"context,omitempty"`
}

// StateName returns the current state name, or "" if no state
// machine snapshot is carried, for structured queries that filter on
// it.
func (s AgentSnapshot) StateName() string {
	if s.StateMachine == nil {
		return ""
	}
	return s.StateMachine.CurrentState
}

// Marshal serialises the snapshot to JSON, stamping the current
// version regardless of what Version was previously set to.
func (s AgentSnapshot) Marshal() ([]byte, error) {
	s.Version = CurrentSnapshotVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes JSON bytes into an AgentSnapshot. Unknown
// fields are silently ignored by encoding/json's default behaviour,
// satisfying the forward-compatibility requirement.
func UnmarshalSnapshot(data []byte) (AgentSnapshot, error) {
	var s AgentSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return AgentSnapshot{}, fmt.Errorf("storage: unmarshal snapshot: %w", err)
	}
	return s, nil
}
