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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/recovery"
)

func TestWithRetry_SucceedsOnFirstAttempt(t *testing.T) {
	m := recovery.NewManager(recovery.Config{Default: recovery.RetryConfig{MaxRetries: 3}})

	calls := 0
	result, err := recovery.WithRetry(context.Background(), m, "op", nil, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesTransientThenSucceeds(t *testing.T) {
	cfg := recovery.RetryConfig{
		MaxRetries: 5,
		Backoff:    recovery.BackoffConfig{Type: recovery.BackoffFixed, InitialMS: 1, MaxMS: 10},
	}
	m := recovery.NewManager(recovery.Config{Default: cfg})

	calls := 0
	result, err := recovery.WithRetry(context.Background(), m, "op", &cfg, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, agenterr.New(agenterr.KindLLM, "rate limited")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	cfg := recovery.RetryConfig{MaxRetries: 5}
	m := recovery.NewManager(recovery.Config{Default: cfg})

	calls := 0
	_, err := recovery.WithRetry(context.Background(), m, "op", &cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, agenterr.New(agenterr.KindLLM, "invalid api key")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var re *recovery.RecoveryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, recovery.FailureNonRetryable, re.Kind)
}

func TestWithRetry_ExhaustsMaxRetries(t *testing.T) {
	cfg := recovery.RetryConfig{
		MaxRetries: 2,
		Backoff:    recovery.BackoffConfig{Type: recovery.BackoffFixed, InitialMS: 1, MaxMS: 10},
	}
	m := recovery.NewManager(recovery.Config{Default: cfg})

	calls := 0
	_, err := recovery.WithRetry(context.Background(), m, "op", &cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, agenterr.New(agenterr.KindLLM, "server error")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	var re *recovery.RecoveryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, recovery.FailureMaxRetriesExceeded, re.Kind)
}

func TestManager_GetToolConfig_FallsBackToDefault(t *testing.T) {
	cfg := recovery.Config{
		Tools: recovery.ToolRecoveryConfig{
			Default: recovery.ToolRetryConfig{MaxRetries: 1},
			PerTool: map[string]recovery.ToolRetryConfig{
				"search": {MaxRetries: 5},
			},
		},
	}
	m := recovery.NewManager(cfg)

	assert.Equal(t, uint32(5), m.GetToolConfig("search").MaxRetries)
	assert.Equal(t, uint32(1), m.GetToolConfig("unknown_tool").MaxRetries)
}

type stubSummarizer struct {
	summary string
}

func (s stubSummarizer) Summarize(ctx context.Context, msgs []message.ChatMessage, maxLen int) (string, error) {
	return s.summary, nil
}

func (s stubSummarizer) MergeSummaries(ctx context.Context, existing, incoming string, maxLen int) (string, error) {
	if existing == "" {
		return incoming, nil
	}
	return existing + " " + incoming, nil
}

func TestManager_HandleContextOverflow_Truncate(t *testing.T) {
	mem := memory.New(memory.Config{MaxRecentMessages: 10}, nil, nil)
	for i := 0; i < 5; i++ {
		mem.Add(message.User("m"))
	}
	m := recovery.NewManager(recovery.Config{
		LLM: recovery.LLMRecoveryConfig{
			OnContextOverflow: recovery.ContextOverflowAction{Action: recovery.OverflowTruncate, KeepRecent: 2},
		},
	})

	require.NoError(t, m.HandleContextOverflow(context.Background(), mem, nil))
	assert.Len(t, mem.Context().Recent, 2)
}

func TestManager_HandleContextOverflow_SummarizeFoldsFilteredMessages(t *testing.T) {
	mem := memory.New(memory.Config{MaxRecentMessages: 10}, nil, nil)
	for i := 0; i < 5; i++ {
		mem.Add(message.User("m"))
	}
	m := recovery.NewManager(recovery.Config{
		LLM: recovery.LLMRecoveryConfig{
			OnContextOverflow: recovery.ContextOverflowAction{Action: recovery.OverflowSummarize, KeepRecent: 2},
		},
	})

	require.NoError(t, m.HandleContextOverflow(context.Background(), mem, stubSummarizer{summary: "folded"}))
	ctx := mem.Context()
	assert.Equal(t, "folded", ctx.Summary)
	assert.Len(t, ctx.Recent, 2)
}

func TestManager_HandleContextOverflow_SummarizeWithoutSummarizerErrors(t *testing.T) {
	mem := memory.New(memory.Config{}, nil, nil)
	m := recovery.NewManager(recovery.Config{
		LLM: recovery.LLMRecoveryConfig{
			OnContextOverflow: recovery.ContextOverflowAction{Action: recovery.OverflowSummarize},
		},
	})

	err := m.HandleContextOverflow(context.Background(), mem, nil)
	require.Error(t, err)
}

func TestManager_HandleContextOverflow_ErrorActionReturnsNoFallback(t *testing.T) {
	mem := memory.New(memory.Config{}, nil, nil)
	m := recovery.NewManager(recovery.Config{})

	err := m.HandleContextOverflow(context.Background(), mem, nil)
	require.Error(t, err)
	var re *recovery.RecoveryError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, recovery.FailureNoFallback, re.Kind)
}
