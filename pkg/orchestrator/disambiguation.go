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

	"github.com/kadirpekel/agentrt/pkg/disambiguation"
	"github.com/kadirpekel/agentrt/pkg/hitl"
)

// pendingClarification remembers an outstanding clarification exchange
// across the turn boundary: the next Chat call is treated as the
// user's answer rather than a fresh input (spec §4.8's multi-turn
// clarification loop).
type pendingClarification struct {
	originalInput string
	question      disambiguation.ClarificationQuestion
}

// resolveAmbiguity implements spec §4.1 step 3. It returns the input
// text the rest of the turn should proceed with, whether the turn
// should short-circuit with an immediate response (a clarification
// question or a give-up apology), and that response's text.
func (o *Orchestrator) resolveAmbiguity(ctx context.Context, stateID, userInput string) (effectiveInput string, shortCircuit bool, response string) {
	if o.disambiguator == nil {
		return userInput, false, ""
	}

	o.dctx.WithState(stateID)

	var result disambiguation.Result
	var err error
	if o.pending != nil {
		result, err = o.disambiguator.Resolve(ctx, o.pending.originalInput, o.pending.question, userInput, o.dctx)
	} else {
		result, err = o.disambiguator.Evaluate(ctx, userInput, o.dctx)
	}
	if err != nil {
		// Detection/generation failure degrades to "proceed as-is"
		// rather than stalling the turn on an unavailable LLM.
		o.pending = nil
		return userInput, false, ""
	}

	switch result.Kind {
	case disambiguation.ResultNeedsClarification:
		question, _ := result.GetQuestion()
		o.pending = &pendingClarification{originalInput: result.OriginalInput, question: question}
		if o.pending.originalInput == "" {
			o.pending.originalInput = userInput
		}
		return userInput, true, question.Question

	case disambiguation.ResultEscalate:
		o.pending = nil
		if o.hitlEngine != nil {
			check := hitl.RequireApproval(hitl.ConditionTrigger("disambiguation_escalation", result.Reason), nil, result.Reason, 0)
			req, _ := check.IntoRequest()
			approval, aerr := o.hitlEngine.RequestApproval(ctx, req, hitl.TimeoutReject)
			if aerr == nil && approval.IsApproved() {
				return result.OriginalInput, false, ""
			}
		}
		return "", true, "I'm not confident I understood correctly, so I'll stop here rather than guess: " + result.Reason

	case disambiguation.ResultGiveUp:
		o.pending = nil
		return "", true, "I wasn't able to understand your request after a few tries: " + result.Reason

	case disambiguation.ResultClarified, disambiguation.ResultProceedWithBestGuess:
		o.pending = nil
		input := result.EnrichedInput
		if input == "" {
			input = result.OriginalInput
		}
		return input, false, ""

	default: // ResultClear
		o.pending = nil
		return userInput, false, ""
	}
}
