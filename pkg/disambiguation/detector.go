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
	"fmt"
	"log/slog"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// Detector runs the LLM classifier that decides whether a user input
// is ambiguous.
type Detector struct {
	Config   DetectionConfig
	Registry *llm.Registry
}

// NewDetector builds a Detector.
func NewDetector(cfg DetectionConfig, registry *llm.Registry) *Detector {
	return &Detector{Config: cfg, Registry: registry}
}

// ShouldSkip evaluates skip conditions in order, short-circuiting on
// the first that matches.
func (d *Detector) ShouldSkip(ctx context.Context, input string, dctx *Context, conditions []SkipCondition) (bool, error) {
	for _, cond := range conditions {
		switch cond.Type {
		case SkipShortInput:
			if len([]rune(input)) <= cond.MaxChars {
				slog.Debug("disambiguation: skipping, short input", "len", len(input), "max_chars", cond.MaxChars)
				return true, nil
			}
		case SkipInState:
			if dctx.CurrentState != "" && contains(cond.States, dctx.CurrentState) {
				slog.Debug("disambiguation: skipping, excluded state", "state", dctx.CurrentState)
				return true, nil
			}
		case SkipSocial:
			ok, err := d.isSocialMessage(ctx, input)
			if err != nil {
				return false, err
			}
			if ok {
				slog.Debug("disambiguation: skipping, social message")
				return true, nil
			}
		case SkipAnsweringAgentQuestion:
			if len(dctx.PreviousQuestions) > 0 {
				slog.Debug("disambiguation: skipping, answering agent question")
				return true, nil
			}
		case SkipCompleteToolCall:
			ok, err := d.isCompleteToolResponse(ctx, input)
			if err != nil {
				return false, err
			}
			if ok {
				slog.Debug("disambiguation: skipping, complete tool response")
				return true, nil
			}
		case SkipCustom:
			ok, err := d.evaluateCustomCondition(ctx, input, dctx, cond.Condition)
			if err != nil {
				return false, err
			}
			if ok {
				slog.Debug("disambiguation: skipping, custom condition", "condition", cond.Condition)
				return true, nil
			}
		}
	}
	return false, nil
}

// Detect asks the configured LLM whether input is ambiguous.
func (d *Detector) Detect(ctx context.Context, input string, dctx *Context) (DetectionResult, error) {
	provider, err := d.Registry.Resolve(d.Config.LLM)
	if err != nil {
		return DetectionResult{}, agenterr.Newf(agenterr.KindConfig, "disambiguation: LLM %q not found for detection", d.Config.LLM)
	}

	prompt := d.buildDetectionPrompt(input, dctx)
	messages := []message.ChatMessage{
		message.System("You are an expert at analyzing user intent clarity. Respond only with valid JSON."),
		message.User(prompt),
	}

	resp, err := provider.Complete(ctx, messages, llm.Config{})
	if err != nil {
		return DetectionResult{}, agenterr.Wrap(agenterr.KindLLM, "disambiguation: detection call failed", err)
	}

	return d.parseDetectionResponse(resp.Text)
}

func (d *Detector) buildDetectionPrompt(input string, dctx *Context) string {
	if d.Config.Prompt != "" {
		return d.renderCustomPrompt(d.Config.Prompt, input, dctx)
	}

	var aspectsList strings.Builder
	for i, aspect := range d.Config.Aspects {
		fmt.Fprintf(&aspectsList, "%d. %s\n", i+1, aspect.Description())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze if the following user message is ambiguous or unclear.\n\n")
	fmt.Fprintf(&b, "User message: %q\n\n", input)
	fmt.Fprintf(&b, "Check for these aspects of ambiguity:\n%s\n", aspectsList.String())

	if len(dctx.RecentMessages) > 0 {
		fmt.Fprintf(&b, "Recent conversation context:\n")
		for _, m := range dctx.RecentMessages {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	if len(dctx.AvailableTools) > 0 {
		fmt.Fprintf(&b, "Available actions/tools: %s\n\n", strings.Join(dctx.AvailableTools, ", "))
	}

	if dctx.CurrentState != "" {
		fmt.Fprintf(&b, "Current state: %s\n\n", dctx.CurrentState)
	}

	b.WriteString(`Respond in JSON format:
{
  "is_ambiguous": true/false,
  "confidence": 0.0-1.0 (how confident the user's intent is clear),
  "ambiguity_type": "missing_target|missing_action|missing_parameters|multiple_intents|vague_reference|implicit_context|null",
  "reasoning": "brief explanation",
  "what_is_unclear": ["list", "of", "unclear", "parts"],
  "detected_language": "language code (e.g., en, ko, ja, zh)"
}

IMPORTANT: Output ONLY valid JSON, no other text.`)

	return b.String()
}

func (d *Detector) renderCustomPrompt(tmpl, input string, dctx *Context) string {
	result := tmpl
	result = strings.ReplaceAll(result, "{{ user_input }}", input)
	result = strings.ReplaceAll(result, "{{ recent_messages }}", strings.Join(dctx.RecentMessages, "\n"))
	result = strings.ReplaceAll(result, "{{ available_actions }}", strings.Join(dctx.AvailableTools, ", "))
	state := dctx.CurrentState
	if state == "" {
		state = "none"
	}
	result = strings.ReplaceAll(result, "{{ current_state }}", state)
	return result
}

type rawDetectionResponse struct {
	IsAmbiguous      bool     `json:"is_ambiguous"`
	Confidence       *float32 `json:"confidence"`
	AmbiguityType    string   `json:"ambiguity_type"`
	Reasoning        string   `json:"reasoning"`
	WhatIsUnclear    []string `json:"what_is_unclear"`
	DetectedLanguage string   `json:"detected_language"`
}

func (d *Detector) parseDetectionResponse(content string) (DetectionResult, error) {
	var raw rawDetectionResponse
	if err := llm.ExtractJSON(content, &raw); err != nil {
		return DetectionResult{}, agenterr.Wrap(agenterr.KindOther, "disambiguation: failed to parse detection response", err)
	}

	confidence := float32(1.0)
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}

	isAmbiguous := raw.IsAmbiguous || confidence < d.Config.Threshold
	if !isAmbiguous {
		return Clear(), nil
	}

	kind := parseAmbiguityType(raw.AmbiguityType)
	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = "Ambiguity detected"
	}

	result := Ambiguous(confidence, kind, reasoning, raw.WhatIsUnclear)
	if raw.DetectedLanguage != "" {
		result = result.WithLanguage(raw.DetectedLanguage)
	}
	return result, nil
}

func parseAmbiguityType(s string) AmbiguityType {
	switch s {
	case "missing_target":
		return TypeMissingTarget
	case "missing_action":
		return TypeMissingAction
	case "missing_parameters":
		return TypeMissingParameters
	case "multiple_intents":
		return TypeMultipleIntents
	case "vague_reference":
		return TypeVagueReference
	case "implicit_context":
		return TypeImplicitContext
	default:
		return TypeUnknown
	}
}

func (d *Detector) yesNoCheck(ctx context.Context, prompt string) (bool, error) {
	provider, err := d.Registry.Resolve(d.Config.LLM)
	if err != nil {
		return false, nil
	}
	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(prompt)}, llm.Config{})
	if err != nil {
		slog.Warn("disambiguation: yes/no check failed", "error", err)
		return false, agenterr.Wrap(agenterr.KindLLM, "disambiguation: yes/no check failed", err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(resp.Text)), "yes"), nil
}

func (d *Detector) isSocialMessage(ctx context.Context, input string) (bool, error) {
	prompt := fmt.Sprintf("Is this message a social/greeting message (hello, thanks, bye, etc.) that doesn't require any action?\nMessage: %q\nAnswer only \"yes\" or \"no\".", input)
	return d.yesNoCheck(ctx, prompt)
}

func (d *Detector) isCompleteToolResponse(ctx context.Context, input string) (bool, error) {
	prompt := fmt.Sprintf("Is this message a direct, complete answer to a question (e.g. providing a specific value, ID, name, or structured data) rather than a new request?\nMessage: %q\nAnswer only \"yes\" or \"no\".", input)
	return d.yesNoCheck(ctx, prompt)
}

func (d *Detector) evaluateCustomCondition(ctx context.Context, input string, dctx *Context, condition string) (bool, error) {
	state := dctx.CurrentState
	if state == "" {
		state = "none"
	}
	prompt := fmt.Sprintf("Evaluate if this condition is true for the given input:\nCondition: %s\nUser input: %q\nContext state: %s\nAnswer only \"yes\" or \"no\".", condition, input, state)
	return d.yesNoCheck(ctx, prompt)
}

func contains(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
