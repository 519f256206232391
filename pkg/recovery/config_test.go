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

package recovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/recovery"
)

func TestRetryConfig_DefaultsAppliedFromPartialYAML(t *testing.T) {
	var cfg recovery.RetryConfig
	require.NoError(t, yaml.Unmarshal([]byte(`max_retries: 3`), &cfg))

	assert.Equal(t, uint32(3), cfg.MaxRetries)
	assert.Equal(t, recovery.BackoffExponential, cfg.Backoff.Type)
	assert.Equal(t, uint64(100), cfg.Backoff.InitialMS)
	assert.Contains(t, cfg.NoRetryOn, recovery.ErrorInvalidAPIKey)
}

func TestContextOverflowAction_SummarizeYAML(t *testing.T) {
	data := `
action: summarize
summarizer_llm: fast
max_summary_tokens: 300
keep_recent: 5
filter:
  type: by_role
  keep_roles: [user, assistant]
`
	var action recovery.ContextOverflowAction
	require.NoError(t, yaml.Unmarshal([]byte(data), &action))

	assert.Equal(t, recovery.OverflowSummarize, action.Action)
	assert.Equal(t, "fast", action.SummarizerLLM)
	assert.Equal(t, uint32(300), action.MaxSummaryTokens)
	assert.Equal(t, 5, action.KeepRecent)
	require.NotNil(t, action.Filter)
	assert.Equal(t, recovery.FilterByRole, action.Filter.Type)
	assert.Equal(t, []string{"user", "assistant"}, action.Filter.KeepRoles)
}

func TestFilterConfig_SkipPatternYAML(t *testing.T) {
	data := `
type: skip_pattern
skip_if_contains: ["[DEBUG]", "[TOOL]"]
`
	var fc recovery.FilterConfig
	require.NoError(t, yaml.Unmarshal([]byte(data), &fc))

	assert.Equal(t, recovery.FilterSkipPattern, fc.Type)
	assert.Equal(t, []string{"[DEBUG]", "[TOOL]"}, fc.SkipIfContains)
}

func TestRateLimitAction_DefaultsMaxWait(t *testing.T) {
	var action recovery.RateLimitAction
	require.NoError(t, yaml.Unmarshal([]byte(`action: wait_and_retry`), &action))
	assert.Equal(t, uint64(30000), action.MaxWaitMS)
}

func TestParseErrorAction_DefaultsMaxRetries(t *testing.T) {
	var action recovery.ParseErrorAction
	require.NoError(t, yaml.Unmarshal([]byte(`action: retry_with_hint`), &action))
	assert.Equal(t, uint32(2), action.MaxRetries)
}
