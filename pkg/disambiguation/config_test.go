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

package disambiguation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/disambiguation"
)

func TestDefaultConfig(t *testing.T) {
	cfg := disambiguation.DefaultConfig()
	assert.False(t, cfg.IsEnabled())
	assert.Equal(t, float32(0.7), cfg.Detection.Threshold)
	assert.Equal(t, uint32(2), cfg.Clarification.MaxAttempts)
	assert.Equal(t, disambiguation.StyleAuto, cfg.Clarification.Style)
}

func TestParseMinimalConfig(t *testing.T) {
	var cfg disambiguation.Config
	require.NoError(t, yaml.Unmarshal([]byte("enabled: true\n"), &cfg))

	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "router", cfg.Detection.LLM)
	assert.Equal(t, float32(0.7), cfg.Detection.Threshold)
}

func TestParseFullConfig(t *testing.T) {
	doc := `
enabled: true
detection:
  llm: fast
  threshold: 0.8
  aspects:
    - missing_target
    - vague_references
clarification:
  style: options
  max_options: 3
  max_attempts: 3
  on_max_attempts: escalate
context:
  recent_messages: 10
  include_state: true
skip_when:
  - type: social
  - type: short_input
    max_chars: 5
cache:
  enabled: true
  ttl_seconds: 7200
`
	var cfg disambiguation.Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "fast", cfg.Detection.LLM)
	assert.Equal(t, float32(0.8), cfg.Detection.Threshold)
	assert.Len(t, cfg.Detection.Aspects, 2)
	assert.Equal(t, disambiguation.StyleOptions, cfg.Clarification.Style)
	assert.Equal(t, uint32(3), cfg.Clarification.MaxAttempts)
	assert.Equal(t, disambiguation.OnMaxEscalate, cfg.Clarification.OnMaxAttempts)
	assert.Equal(t, 10, cfg.Context.RecentMessages)
	require.Len(t, cfg.SkipWhen, 2)
	assert.Equal(t, 5, cfg.SkipWhen[1].MaxChars)
	assert.True(t, cfg.Cache.Enabled)
}

func TestSkipCondition_ShortInputDefaultsMaxChars(t *testing.T) {
	var cond disambiguation.SkipCondition
	require.NoError(t, yaml.Unmarshal([]byte("type: short_input\n"), &cond))
	assert.Equal(t, 10, cond.MaxChars)
}

func TestStateOverride_Parse(t *testing.T) {
	doc := `
threshold: 0.95
require_confirmation: true
required_clarity:
  - recipient
  - amount
`
	var override disambiguation.StateOverride
	require.NoError(t, yaml.Unmarshal([]byte(doc), &override))

	require.NotNil(t, override.Threshold)
	assert.Equal(t, float32(0.95), *override.Threshold)
	assert.True(t, override.RequireConfirmation)
	assert.Len(t, override.RequiredClarity, 2)
	assert.False(t, override.IsEmpty())
}

func TestSkillOverride_Parse(t *testing.T) {
	doc := `
enabled: true
threshold: 0.9
required_clarity:
  - from_account
  - to_account
clarification_templates:
  missing_recipient: "Who would you like to transfer to?"
  missing_amount: "How much would you like to transfer?"
`
	var override disambiguation.SkillOverride
	require.NoError(t, yaml.Unmarshal([]byte(doc), &override))

	require.NotNil(t, override.Enabled)
	assert.True(t, *override.Enabled)
	assert.Len(t, override.RequiredClarity, 2)
	assert.Len(t, override.ClarificationTemplates, 2)
	assert.False(t, override.IsEmpty())
}

func TestAmbiguityAspect_Descriptions(t *testing.T) {
	assert.Equal(t, "WHO or WHAT is the action for", disambiguation.AspectMissingTarget.Description())
	assert.Contains(t, disambiguation.AspectVagueReferences.Description(), "그거")
}
