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

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/state"
)

// reflectionScore is the evaluator LLM's judgement of one candidate
// response: a 0..1 score against the configured criteria, and
// feedback to fold into a retry prompt when the score falls short.
type reflectionScore struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// reflectionAttempt pairs a candidate response with its score, so the
// caller can fall back to the best-scoring attempt when the retry cap
// is reached without ever producing a passing score (spec §4.1's "If
// reflection is configured... accept the best-scoring attempt when the
// cap is reached").
type reflectionAttempt struct {
	text  string
	score reflectionScore
}

// score asks the router LLM to grade candidate against cfg.Criteria.
// A judge failure scores the candidate at 0 with no feedback rather
// than aborting the turn: reflection is a quality gate, not a
// required step.
func (o *Orchestrator) score(ctx context.Context, cfg *state.ReflectionConfig, candidate string) reflectionScore {
	provider, err := o.llmRegistry.Router()
	if err != nil {
		return reflectionScore{}
	}

	prompt := buildReflectionPrompt(cfg.Criteria, candidate)
	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(prompt)}, llm.Config{})
	if err != nil {
		return reflectionScore{}
	}

	var out reflectionScore
	if err := llm.ExtractJSON(resp.Text, &out); err != nil {
		return reflectionScore{}
	}
	return out
}

func buildReflectionPrompt(criteria []string, candidate string) string {
	var b strings.Builder
	b.WriteString("Evaluate the following response against these criteria:\n")
	for _, c := range criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	fmt.Fprintf(&b, "\nResponse to evaluate:\n%s\n\n", candidate)
	b.WriteString(`Respond with JSON only: {"score": <float 0..1>, "feedback": <string>}`)
	return b.String()
}

// bestOf returns the highest-scoring attempt, preferring the earliest
// attempt on a tie (so a cheaper, earlier retry wins rather than
// churning further for no quality gain).
func bestOf(attempts []reflectionAttempt) reflectionAttempt {
	best := attempts[0]
	for _, a := range attempts[1:] {
		if a.score.Score > best.score.Score {
			best = a
		}
	}
	return best
}

// applyReflection scores initial and, if it falls short of
// cfg.PassThreshold, fans out up to cfg.MaxRetries concurrent
// regenerate+score attempts via errgroup (spec §9's concurrency note:
// reflection may score multiple candidate retries at once rather than
// a strictly sequential retry chain) and returns the best-scoring
// candidate once the cap is reached. A regenerate failure simply drops
// that candidate; it never aborts the turn.
func (o *Orchestrator) applyReflection(ctx context.Context, cfg *state.ReflectionConfig, initial string, regenerate func(ctx context.Context) (string, error)) string {
	attempts := []reflectionAttempt{{text: initial, score: o.score(ctx, cfg, initial)}}
	if attempts[0].score.Score >= cfg.PassThreshold || cfg.MaxRetries <= 0 {
		return bestOf(attempts).text
	}

	results := make([]reflectionAttempt, cfg.MaxRetries)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.MaxRetries; i++ {
		i := i
		g.Go(func() error {
			text, err := regenerate(gctx)
			if err != nil {
				return nil
			}
			results[i] = reflectionAttempt{text: text, score: o.score(gctx, cfg, text)}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.text != "" {
			attempts = append(attempts, r)
		}
	}
	return bestOf(attempts).text
}
