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

package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/session"
)

func TestTaskContext_Slot(t *testing.T) {
	ctx := session.TaskContext{
		StateID:        "triage",
		AvailableTools: []string{"search"},
		Slots:          map[string]any{"user_name": "Jane"},
		RecentMessages: []message.ChatMessage{message.User("hi")},
	}

	v, ok := ctx.Slot("user_name")
	assert.True(t, ok)
	assert.Equal(t, "Jane", v)

	_, ok = ctx.Slot("missing")
	assert.False(t, ok)
}

func TestAgentResponse_ErrorKind(t *testing.T) {
	r := session.AgentResponse{
		FinishReason: session.FinishError,
		Metadata:     map[string]any{"error_kind": "llm"},
	}
	assert.Equal(t, "llm", r.ErrorKind())

	assert.Equal(t, "", session.AgentResponse{}.ErrorKind())
}

func TestStreamChunk_Terminal(t *testing.T) {
	assert.True(t, session.NewDoneChunk().Terminal())
	assert.True(t, session.NewErrorChunk("boom").Terminal())
	assert.False(t, session.NewContentChunk("hi").Terminal())
}

func TestStreamChunk_Constructors(t *testing.T) {
	start := session.NewToolCallStartChunk("id-1", "calculator")
	assert.Equal(t, session.ChunkToolCallStart, start.Kind)
	assert.Equal(t, "id-1", start.ToolCallID)

	transition := session.NewStateTransitionChunk("greeting", "support")
	assert.Equal(t, "greeting", transition.From)
	assert.Equal(t, "support", transition.To)
}
