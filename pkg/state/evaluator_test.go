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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/llm/llmtest"
	"github.com/kadirpekel/agentrt/pkg/state"
)

func TestSelectTransition_ZeroMeansNone(t *testing.T) {
	provider := llmtest.New("judge", "0")
	eval := state.NewLLMTransitionEvaluator(provider)

	transitions := []state.Transition{{To: "next", When: "user says goodbye", Auto: true}}
	tc := state.TransitionContext{UserMessage: "hello", AssistantResponse: "hi there", CurrentState: "greeting"}

	_, ok, err := eval.SelectTransition(context.Background(), transitions, tc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectTransition_MatchesByNumber(t *testing.T) {
	provider := llmtest.New("judge", "1")
	eval := state.NewLLMTransitionEvaluator(provider)

	transitions := []state.Transition{
		{To: "support", When: "user needs help", Auto: true, Priority: 10},
		{To: "sales", When: "user wants to buy", Auto: true, Priority: 5},
	}
	tc := state.TransitionContext{UserMessage: "I need help", AssistantResponse: "Sure!", CurrentState: "greeting"}

	idx, ok, err := eval.SelectTransition(context.Background(), transitions, tc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestSelectTransition_EmptyTransitionsShortCircuits(t *testing.T) {
	provider := llmtest.New("judge", "should not be read")
	eval := state.NewLLMTransitionEvaluator(provider)

	_, ok, err := eval.SelectTransition(context.Background(), nil, state.TransitionContext{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, provider.Calls)
}

func TestSelectTransition_OutOfRangeMeansNone(t *testing.T) {
	provider := llmtest.New("judge", "7")
	eval := state.NewLLMTransitionEvaluator(provider)

	transitions := []state.Transition{{To: "next", When: "cond", Auto: true}}
	_, ok, err := eval.SelectTransition(context.Background(), transitions, state.TransitionContext{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectTransition_UnparsableReplyDefaultsToNone(t *testing.T) {
	provider := llmtest.New("judge", "I'm not sure")
	eval := state.NewLLMTransitionEvaluator(provider)

	transitions := []state.Transition{{To: "next", When: "cond", Auto: true}}
	_, ok, err := eval.SelectTransition(context.Background(), transitions, state.TransitionContext{})
	require.NoError(t, err)
	assert.False(t, ok)
}
