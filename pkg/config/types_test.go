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

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/config"
)

const fullSpecYAML = `
name: support-agent
version: "1.0"
description: handles support tickets

system_prompt: You are a helpful support agent.

llm:
  default: fast
  router: smart

llms:
  fast:
    model: gpt-4o-mini
  smart:
    model: gpt-4o
    temperature: 0.2

memory:
  type: conversation
  max_recent_messages: 20
  compress_threshold: 15

skills:
  - triage
  - file: skills/refund.yaml
  - id: inline-skill
    description: an inline one
    steps: []

tools:
  - name: search
    type: builtin
  - name: ticket-api
    type: mcp
    command: ticket-mcp-server
    args: ["--port", "8181"]

state_machine:
  initial: greeting
  states:
    greeting:
      prompt: Greet the user.
      transitions:
        - to: triage
          when: user described an issue
          auto: true

recovery:
  default:
    max_retries: 3

disambiguation:
  enabled: true

hitl:
  enabled: true

storage:
  type: file
  path: ./data

streaming:
  enabled: true

context:
  now:
    kind: builtin
    builtin: now
    refresh: per_turn
`

func TestAgentSpec_ParsesFullDocument(t *testing.T) {
	var spec config.AgentSpec
	require.NoError(t, yaml.Unmarshal([]byte(fullSpecYAML), &spec))

	assert.Equal(t, "support-agent", spec.Name)
	assert.Equal(t, "fast", spec.LLM.Default)
	assert.Equal(t, "smart", spec.LLM.Router)
	assert.Len(t, spec.LLMs, 2)
	assert.Equal(t, "gpt-4o", spec.LLMs["smart"].Model)

	require.Len(t, spec.Skills, 3)
	assert.Equal(t, "triage", spec.Skills[0].Name)
	assert.Equal(t, "skills/refund.yaml", spec.Skills[1].File)
	require.NotNil(t, spec.Skills[2].Inline)
	assert.Equal(t, "inline-skill", spec.Skills[2].Inline.ID)

	require.Len(t, spec.Tools, 2)
	assert.Equal(t, config.ToolTypeMCP, spec.Tools[1].Type)
	assert.Equal(t, "ticket-mcp-server", spec.Tools[1].Command)

	assert.Equal(t, "greeting", spec.StateMachine.Initial)
	assert.EqualValues(t, 3, spec.Recovery.Default.MaxRetries)
	assert.True(t, spec.Disambiguation.Enabled)
	assert.True(t, spec.HITL.Enabled)
	assert.Equal(t, config.StorageFile, spec.Storage.Type)
	assert.True(t, spec.Streaming.Enabled)
	assert.Equal(t, config.ContextBuiltin, spec.Context["now"].Kind)
}

func TestLLMSelector_BareScalarIsDefaultAlias(t *testing.T) {
	var sel config.LLMSelector
	require.NoError(t, yaml.Unmarshal([]byte("my-alias"), &sel))
	assert.Equal(t, "my-alias", sel.Default)
	assert.False(t, sel.IsInline())
}

func TestLLMSelector_InlineProviderConfig(t *testing.T) {
	var sel config.LLMSelector
	require.NoError(t, yaml.Unmarshal([]byte("model: gpt-4o\ntemperature: 0.3\n"), &sel))
	require.True(t, sel.IsInline())
	assert.Equal(t, "gpt-4o", sel.Inline.Model)
}

func TestMemoryConfig_ToMemoryConfig_PrefersMaxRecentMessages(t *testing.T) {
	m := config.MemoryConfig{MaxMessages: 100, MaxRecentMessages: 20, CompressThreshold: 15, SummarizeBatchSize: 5}
	mc := m.ToMemoryConfig()
	assert.EqualValues(t, 20, mc.MaxRecentMessages)
	assert.EqualValues(t, 15, mc.CompressThreshold)
	assert.EqualValues(t, 5, mc.SummarizeBatchSize)
}

func TestMemoryConfig_Budget_ZeroWhenUnset(t *testing.T) {
	m := config.MemoryConfig{}
	assert.EqualValues(t, 0, m.Budget().Total)
}

func TestMemoryConfig_Budget_BuildsDefaultSplit(t *testing.T) {
	m := config.MemoryConfig{TokenBudget: 1000}
	budget := m.Budget()
	assert.EqualValues(t, 1000, budget.Total)
	assert.True(t, budget.Components.Recent > budget.Components.Summary)
}
