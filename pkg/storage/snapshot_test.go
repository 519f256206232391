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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/state"
	"github.com/kadirpekel/agentrt/pkg/storage"
)

func TestAgentSnapshot_MarshalUnmarshalRoundTrip(t *testing.T) {
	snap := storage.AgentSnapshot{
		AgentID:   "support-agent",
		UserID:    "user-1",
		Tags:      []string{"vip", "billing"},
		Timestamp: time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
		StateMachine: &state.Snapshot{
			CurrentState: "triage",
		},
		Memory: memory.Snapshot{
			Summary: "user asked about a refund",
		},
		Context: map[string]any{"locale": "en-US"},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)

	got, err := storage.UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, storage.CurrentSnapshotVersion, got.Version)
	assert.Equal(t, "support-agent", got.AgentID)
	assert.Equal(t, "triage", got.StateName())
	assert.Equal(t, "user asked about a refund", got.Memory.Summary)
	assert.Equal(t, []string{"vip", "billing"}, got.Tags)
}

func TestAgentSnapshot_StateName_NoStateMachine(t *testing.T) {
	snap := storage.AgentSnapshot{}
	assert.Equal(t, "", snap.StateName())
}

func TestUnmarshalSnapshot_TolerantOfUnknownFields(t *testing.T) {
	data := []byte(`{"version":1,"agent_id":"a","memory":{},"future_field":{"x":1}}`)
	got, err := storage.UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AgentID)
}
