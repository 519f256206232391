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

package hitl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/hitl"
)

func TestDefaultHITLConfig(t *testing.T) {
	cfg := hitl.DefaultHITLConfig()
	assert.False(t, cfg.IsEnabled())
	assert.EqualValues(t, 30, cfg.DefaultTimeoutSeconds)
	assert.Equal(t, hitl.TimeoutReject, cfg.DefaultTimeoutAction)
	assert.Equal(t, hitl.LanguagePreferHandler, cfg.Language.Strategy)
}

func TestParseMinimalHITLConfig(t *testing.T) {
	var cfg hitl.HITLConfig
	require.NoError(t, yaml.Unmarshal([]byte("enabled: true\n"), &cfg))

	assert.True(t, cfg.IsEnabled())
	assert.EqualValues(t, 30, cfg.DefaultTimeoutSeconds)
}

func TestParseFullHITLConfig(t *testing.T) {
	doc := `
enabled: true
default_timeout_seconds: 45
default_timeout_action: escalate
tools:
  - tool: send_payment
    condition: "args.amount > 1000"
    message:
      template: "Approve payment of {{ .Context.args.amount }}?"
    timeout_seconds: 120
    timeout_action: reject
states:
  - state: escalation
    trigger: on_enter
    message:
      template: "Approve escalation?"
conditions:
  - name: high_value
    predicate: "the request involves a large monetary amount"
    message:
      template: "Approve high-value action?"
language:
  strategy: prefer_handler
  default: en
`
	var cfg hitl.HITLConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.True(t, cfg.IsEnabled())
	assert.EqualValues(t, 45, cfg.DefaultTimeoutSeconds)
	assert.Equal(t, hitl.TimeoutEscalate, cfg.DefaultTimeoutAction)
	require.Len(t, cfg.Tools, 1)
	assert.Equal(t, "send_payment", cfg.Tools[0].Tool)
	assert.EqualValues(t, 120, cfg.Tools[0].TimeoutSeconds)
	require.Len(t, cfg.States, 1)
	assert.Equal(t, hitl.StateTriggerOnEnter, cfg.States[0].Trigger)
	require.Len(t, cfg.Conditions, 1)
	assert.Equal(t, "high_value", cfg.Conditions[0].Name)
}

func TestApprovalMessage_Translations(t *testing.T) {
	doc := `
template: "Approve?"
translations:
  ko: "승인하시겠습니까?"
`
	var msg hitl.ApprovalMessage
	require.NoError(t, yaml.Unmarshal([]byte(doc), &msg))
	assert.Equal(t, "Approve?", msg.Template)
	assert.Equal(t, "승인하시겠습니까?", msg.Translations["ko"])
}

func TestLlmGenerateConfig_Parse(t *testing.T) {
	doc := `
generate:
  llm: router
  prompt: "Summarize this tool call for approval: {{ .Context.args }}"
`
	var msg hitl.ApprovalMessage
	require.NoError(t, yaml.Unmarshal([]byte(doc), &msg))
	require.NotNil(t, msg.Generate)
	assert.Equal(t, "router", msg.Generate.LLM)
}
