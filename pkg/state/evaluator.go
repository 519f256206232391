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

package state

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// TransitionContext is what the evaluator needs to judge which (if any)
// auto transition condition is met after a turn completes.
type TransitionContext struct {
	UserMessage       string
	AssistantResponse string
	CurrentState      string
}

// TransitionEvaluator picks at most one of the given transitions as the
// one whose condition is met, given the just-completed turn, returning
// its index. An ok == false result means "no transition".
type TransitionEvaluator interface {
	SelectTransition(ctx context.Context, transitions []Transition, tc TransitionContext) (int, bool, error)
}

// LLMTransitionEvaluator asks a judge LLM to pick a transition by number.
// It deliberately bypasses llm.Router's JSON-extraction dispatch: the
// judge prompt asks for a single bare integer, not a JSON object, so the
// response is parsed directly.
type LLMTransitionEvaluator struct {
	Provider llm.Provider
}

// NewLLMTransitionEvaluator builds an evaluator backed by provider.
func NewLLMTransitionEvaluator(provider llm.Provider) *LLMTransitionEvaluator {
	return &LLMTransitionEvaluator{Provider: provider}
}

// SelectTransition renders a numbered-conditions prompt and parses the
// judge's reply as an integer. 0 or any out-of-range reply means no
// transition; the prompt already orders transitions by descending
// priority (the caller passes AutoTransitions(), already sorted), so
// equal-priority ties resolve via declaration order.
func (e *LLMTransitionEvaluator) SelectTransition(ctx context.Context, transitions []Transition, tc TransitionContext) (int, bool, error) {
	if len(transitions) == 0 {
		return 0, false, nil
	}

	var b strings.Builder
	b.WriteString("Based on the conversation, which condition is met?\n\n")
	fmt.Fprintf(&b, "Current state: %s\n", tc.CurrentState)
	fmt.Fprintf(&b, "User message: %s\n", tc.UserMessage)
	fmt.Fprintf(&b, "Assistant response: %s\n\n", tc.AssistantResponse)
	b.WriteString("Conditions:\n")
	for i, t := range transitions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.When)
	}
	b.WriteString("0. None of the above\n\n")
	fmt.Fprintf(&b, "Reply with ONLY the number (0-%d).", len(transitions))

	resp, err := e.Provider.Complete(ctx, []message.ChatMessage{message.User(b.String())}, llm.Config{})
	if err != nil {
		return 0, false, err
	}

	choice, parseErr := strconv.Atoi(strings.TrimSpace(resp.Text))
	if parseErr != nil {
		choice = 0
	}
	if choice <= 0 || choice > len(transitions) {
		return 0, false, nil
	}
	return choice - 1, true, nil
}
