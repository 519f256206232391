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

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/state"
)

func TestConfig_Validate_Valid(t *testing.T) {
	cfg := state.Config{
		Initial: "greeting",
		States: map[string]state.Definition{
			"greeting": {
				Prompt: "Welcome!",
				Transitions: []state.Transition{
					{To: "support", When: "user needs help", Auto: true},
				},
			},
			"support": {Prompt: "How can I help?", LLM: "fast", Tools: []string{"search"}},
		},
	}
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate_EmptyInitial(t *testing.T) {
	cfg := state.Config{States: map[string]state.Definition{}}
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_UnknownInitial(t *testing.T) {
	cfg := state.Config{Initial: "nonexistent", States: map[string]state.Definition{}}
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_UnknownTransitionTarget(t *testing.T) {
	cfg := state.Config{
		Initial: "start",
		States: map[string]state.Definition{
			"start": {Transitions: []state.Transition{{To: "nonexistent", When: "always", Auto: true}}},
		},
	}
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_UnknownTimeoutTarget(t *testing.T) {
	cfg := state.Config{
		Initial: "start",
		States: map[string]state.Definition{
			"start": {TimeoutTo: "nonexistent"},
		},
	}
	assert.Error(t, cfg.Validate())
}

func TestDefinition_DefaultPromptModeIsAppend(t *testing.T) {
	var def state.Definition
	assert.Equal(t, state.PromptMode(""), def.PromptMode)
	assert.Equal(t, "base\n\nfragment", def.PromptMode.Compose("base", "fragment"))
}

func TestPromptMode_Compose(t *testing.T) {
	assert.Equal(t, "base\n\nfragment", state.PromptAppend.Compose("base", "fragment"))
	assert.Equal(t, "fragment", state.PromptReplace.Compose("base", "fragment"))
	assert.Equal(t, "fragment\n\nbase", state.PromptPrepend.Compose("base", "fragment"))
	assert.Equal(t, "base", state.PromptAppend.Compose("base", ""))
}
