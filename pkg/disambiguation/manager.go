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

package disambiguation

import (
	"context"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
)

// Manager is the orchestrator-facing entry point for disambiguation:
// it decides whether a turn's input needs clarification and, across
// the following turn(s), resolves a pending clarification exchange.
type Manager struct {
	Config    Config
	Detector  *Detector
	Clarifier *Clarifier
}

// NewManager builds a Manager from a Config and the shared LLM
// registry.
func NewManager(cfg Config, registry *llm.Registry) *Manager {
	return &Manager{
		Config:    cfg,
		Detector:  NewDetector(cfg.Detection, registry),
		Clarifier: NewClarifier(cfg.Clarification, registry),
	}
}

// Evaluate decides how to handle a fresh (non-clarification-reply)
// user input: Clear to proceed normally, or NeedsClarification to ask
// the user a question before proceeding.
func (m *Manager) Evaluate(ctx context.Context, input string, dctx *Context) (Result, error) {
	if !m.Config.Enabled {
		return Result{Kind: ResultClear}, nil
	}

	skip, err := m.Detector.ShouldSkip(ctx, input, dctx, m.Config.SkipWhen)
	if err != nil {
		return Result{}, err
	}
	if skip {
		return Result{Kind: ResultClear}, nil
	}

	detection, err := m.Detector.Detect(ctx, input, dctx)
	if err != nil {
		return Result{}, err
	}
	if !detection.IsAmbiguous {
		return Result{Kind: ResultClear}, nil
	}

	return m.askClarification(ctx, input, detection, dctx, "")
}

// Resolve interprets a user's reply to a previously-issued
// clarification question (originalInput is the input that triggered
// the original question).
func (m *Manager) Resolve(ctx context.Context, originalInput string, question ClarificationQuestion, userResponse string, dctx *Context) (Result, error) {
	dctx.IncrementAttempts()
	dctx.AddPreviousQuestion(question.Question)

	parsed, err := m.Clarifier.ParseResponse(ctx, originalInput, question, userResponse)
	if err != nil {
		return Result{}, err
	}

	if parsed.Understood {
		dctx.Reset()
		return Result{
			Kind:          ResultClarified,
			OriginalInput: originalInput,
			EnrichedInput: parsed.EnrichedInput,
			Resolved:      parsed.Resolved,
		}, nil
	}

	if dctx.ClarificationAttempts >= m.Config.Clarification.MaxAttempts {
		return m.applyMaxAttemptsAction(originalInput, dctx)
	}

	return m.askClarification(ctx, originalInput, dctx.LastDetection, dctx, "")
}

// askClarification generates (or re-generates) a clarifying question
// and wraps it in a NeedsClarification result, recording the
// detection that produced it for a later re-ask.
func (m *Manager) askClarification(ctx context.Context, input string, detection DetectionResult, dctx *Context, customTemplate string) (Result, error) {
	question, err := m.Clarifier.Generate(ctx, input, detection, dctx, customTemplate)
	if err != nil {
		return Result{}, err
	}
	dctx.LastDetection = detection
	return Result{Kind: ResultNeedsClarification, Question: question, Detection: detection}, nil
}

func (m *Manager) applyMaxAttemptsAction(originalInput string, dctx *Context) (Result, error) {
	action := m.Config.Clarification.OnMaxAttempts
	dctx.Reset()

	switch action {
	case OnMaxApologizeAndStop:
		return Result{Kind: ResultGiveUp, Reason: "Unable to understand the request after multiple attempts."}, nil
	case OnMaxEscalate:
		return Result{Kind: ResultEscalate, Reason: "Disambiguation exhausted clarification attempts."}, nil
	case OnMaxProceedWithBestGuess:
		return Result{Kind: ResultProceedWithBestGuess, EnrichedInput: originalInput}, nil
	default:
		return Result{}, agenterr.Newf(agenterr.KindConfig, "disambiguation: unknown on_max_attempts action %q", action)
	}
}
