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

// Package session defines the data exchanged across one agent turn: the
// read-only TaskContext handed to capability calls, the AgentResponse and
// streaming StreamChunk taxonomy returned to the caller, and the Plan/
// PlanStep data model used by the (unexecuted) reasoning subsystem.
package session

import "github.com/kadirpekel/agentrt/pkg/message"

// TaskContext is the per-turn read-only bundle handed to capability calls
// (tool selection, skill triggers, disambiguation, state transitions): the
// current state id, the tool ids available in this state, named memory
// slots holding arbitrary JSON-able values, and the recent message window.
// Callers must treat a TaskContext as a snapshot: mutating its maps/slices
// does not affect the orchestrator's live state.
type TaskContext struct {
	StateID        string
	AvailableTools []string
	Slots          map[string]any
	RecentMessages []message.ChatMessage
}

// Slot returns the named memory slot and whether it was present.
func (c TaskContext) Slot(name string) (any, bool) {
	v, ok := c.Slots[name]
	return v, ok
}
