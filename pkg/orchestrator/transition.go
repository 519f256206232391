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

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/state"
)

// transitionChoice is the judge LLM's answer: the 1-based index into
// the offered transition list, or 0 for "none of the above" (spec
// §4.2's transition evaluation).
type transitionChoice struct {
	Choice int `json:"choice"`
}

// evaluateTransition asks the judge LLM to pick at most one matching
// auto transition out of the ones offered (already sorted by
// descending priority by the caller). It returns the zero-based index
// into transitions, or -1 if none was chosen or the judge's answer
// could not be parsed. A judge failure is treated the same as
// choosing "none of the above": a transition is never forced by a
// broken evaluator.
func (o *Orchestrator) evaluateTransition(ctx context.Context, stateID, userInput, response string, transitions []state.Transition) int {
	if len(transitions) == 0 {
		return -1
	}

	provider, err := o.llmRegistry.Router()
	if err != nil {
		return -1
	}

	prompt := buildTransitionPrompt(stateID, userInput, response, transitions)
	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(prompt)}, llm.Config{})
	if err != nil {
		return -1
	}

	var choice transitionChoice
	if err := llm.ExtractJSON(resp.Text, &choice); err != nil {
		return -1
	}
	if choice.Choice <= 0 || choice.Choice > len(transitions) {
		return -1
	}
	return choice.Choice - 1
}

func buildTransitionPrompt(stateID, userInput, response string, transitions []state.Transition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current state: %s\nUser input: %s\nAssistant response: %s\n\n", stateID, userInput, response)
	b.WriteString("Should the conversation move to a different state? Pick the number of the first condition that applies.\n\n")
	for i, t := range transitions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.When)
	}
	b.WriteString("0. None of the above\n\n")
	b.WriteString(`Respond with JSON only: {"choice": <integer>}`)
	return b.String()
}
