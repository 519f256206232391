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

// Clarifier generates clarifying questions and parses the user's
// replies to them.
type Clarifier struct {
	Config   ClarificationConfig
	Registry *llm.Registry
}

// NewClarifier builds a Clarifier.
func NewClarifier(cfg ClarificationConfig, registry *llm.Registry) *Clarifier {
	return &Clarifier{Config: cfg, Registry: registry}
}

func (c *Clarifier) resolveLLM() string {
	if c.Config.LLM != "" {
		return c.Config.LLM
	}
	return "router"
}

// Generate produces a clarifying question for the given detection
// result. If customTemplate is non-empty (a skill-level override), it
// is used verbatim as an open question instead of calling the LLM.
func (c *Clarifier) Generate(ctx context.Context, input string, detection DetectionResult, dctx *Context, customTemplate string) (ClarificationQuestion, error) {
	if customTemplate != "" {
		return OpenQuestion(customTemplate), nil
	}

	alias := c.resolveLLM()
	provider, err := c.Registry.Resolve(alias)
	if err != nil {
		return ClarificationQuestion{}, agenterr.Newf(agenterr.KindConfig, "disambiguation: LLM %q not found for clarification", alias)
	}

	style := c.determineStyle(detection)
	prompt := c.buildGenerationPrompt(input, detection, dctx, style)

	messages := []message.ChatMessage{
		message.System("You are a helpful assistant that asks clarifying questions. Be concise and friendly. Match the user's language. Respond only with valid JSON."),
		message.User(prompt),
	}

	resp, err := provider.Complete(ctx, messages, llm.Config{})
	if err != nil {
		return ClarificationQuestion{}, agenterr.Wrap(agenterr.KindLLM, "disambiguation: clarification generation failed", err)
	}

	return c.parseGenerationResponse(resp.Text, style, detection.WhatIsUnclear)
}

// ParseResponse interprets a user's reply to a previously-asked
// clarification question.
func (c *Clarifier) ParseResponse(ctx context.Context, originalInput string, question ClarificationQuestion, userResponse string) (ParseResult, error) {
	alias := c.resolveLLM()
	provider, err := c.Registry.Resolve(alias)
	if err != nil {
		return ParseResult{}, agenterr.Newf(agenterr.KindConfig, "disambiguation: LLM %q not found for parsing", alias)
	}

	prompt := c.buildParsePrompt(originalInput, question, userResponse)
	messages := []message.ChatMessage{
		message.System("You are an expert at understanding user intent. Respond only with valid JSON."),
		message.User(prompt),
	}

	resp, err := provider.Complete(ctx, messages, llm.Config{})
	if err != nil {
		return ParseResult{}, agenterr.Wrap(agenterr.KindLLM, "disambiguation: clarification parsing failed", err)
	}

	return c.parseResponseResult(resp.Text, originalInput)
}

func (c *Clarifier) determineStyle(detection DetectionResult) ClarificationStyle {
	if c.Config.Style != StyleAuto {
		return c.Config.Style
	}
	switch detection.AmbiguityType {
	case TypeMultipleIntents, TypeVagueReference:
		return StyleOptions
	case TypeMissingTarget:
		return StyleHybrid
	case TypeMissingParameters:
		return StyleOpen
	default:
		return StyleOpen
	}
}

func (c *Clarifier) buildGenerationPrompt(input string, detection DetectionResult, dctx *Context, style ClarificationStyle) string {
	languageHint := "Match the user's language."
	if detection.DetectedLanguage != "" {
		languageHint = fmt.Sprintf("Respond in %s language.", languageName(detection.DetectedLanguage))
	}

	var styleInstruction string
	switch style {
	case StyleOptions:
		styleInstruction = fmt.Sprintf("Provide %d clear options for the user to choose from.", c.Config.MaxOptions)
	case StyleYesNo:
		styleInstruction = "Ask a yes/no question."
	case StyleHybrid:
		styleInstruction = fmt.Sprintf("Provide up to %d options but also allow free-form input.", c.Config.MaxOptions)
	default:
		styleInstruction = "Ask an open-ended clarifying question."
	}

	otherOption := ""
	if c.Config.IncludeOtherOption && (style == StyleOptions || style == StyleHybrid) {
		otherOption = "Include an 'Other' option for free-form input."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user said: %q\n\n", input)
	fmt.Fprintf(&b, "This message is ambiguous because: %s\n", detection.Reasoning)
	fmt.Fprintf(&b, "What is unclear: %s\n\n", strings.Join(detection.WhatIsUnclear, ", "))
	fmt.Fprintf(&b, "%s\n%s\n%s\n", languageHint, styleInstruction, otherOption)

	if len(dctx.RecentMessages) > 0 {
		fmt.Fprintf(&b, "\nRecent conversation:\n%s\n", strings.Join(dctx.RecentMessages, "\n"))
	}

	if len(dctx.PreviousQuestions) > 0 {
		fmt.Fprintf(&b, "\nPrevious clarification questions asked:\n%s\n", strings.Join(dctx.PreviousQuestions, "\n"))
		b.WriteString("Ask something different from the previous questions.\n")
	}

	b.WriteString(`
Respond in JSON format:
{
  "question": "The clarifying question to ask",
  "options": [
    {"id": "1", "label": "First option"},
    {"id": "2", "label": "Second option"}
  ] // Only include if style requires options, otherwise null
}

IMPORTANT: Output ONLY valid JSON, no other text.`)

	return b.String()
}

func (c *Clarifier) buildParsePrompt(originalInput string, question ClarificationQuestion, userResponse string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original user request: %q\n\n", originalInput)
	fmt.Fprintf(&b, "We asked for clarification: %q\n", question.Question)

	if len(question.Options) > 0 {
		b.WriteString("Available options:\n")
		for _, opt := range question.Options {
			fmt.Fprintf(&b, "- %s: %s\n", opt.ID, opt.Label)
		}
	}

	fmt.Fprintf(&b, `
User responded: %q

Parse the user's response and provide:
1. Whether they made a clear choice
2. The enriched/clarified version of their original request

Respond in JSON format:
{
  "understood": true/false,
  "selected_option": "option_id if applicable, null otherwise",
  "enriched_input": "The original request with clarifications incorporated",
  "resolved": {} // Key-value pairs of what was clarified
}

IMPORTANT: Output ONLY valid JSON, no other text.`, userResponse)

	return b.String()
}

type rawOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type rawGenerationResponse struct {
	Question string      `json:"question"`
	Options  []rawOption `json:"options"`
}

func (c *Clarifier) parseGenerationResponse(content string, style ClarificationStyle, clarifying []string) (ClarificationQuestion, error) {
	var raw rawGenerationResponse
	if err := llm.ExtractJSON(content, &raw); err != nil {
		return ClarificationQuestion{}, agenterr.Wrap(agenterr.KindOther, "disambiguation: failed to parse clarification response", err)
	}
	if raw.Question == "" {
		return ClarificationQuestion{}, agenterr.New(agenterr.KindOther, "disambiguation: missing question in response")
	}

	var options []ClarificationOption
	for _, o := range raw.Options {
		if o.ID == "" || o.Label == "" {
			continue
		}
		opt := NewOption(o.ID, o.Label)
		if o.Description != "" {
			opt = opt.WithDescription(o.Description)
		}
		options = append(options, opt)
	}

	slog.Debug("disambiguation: generated clarification question", "question", raw.Question, "options", len(options))

	return ClarificationQuestion{
		Question:   raw.Question,
		Options:    options,
		Style:      style,
		Clarifying: clarifying,
	}, nil
}

type rawParseResponse struct {
	Understood    bool           `json:"understood"`
	EnrichedInput string         `json:"enriched_input"`
	Resolved      map[string]any `json:"resolved"`
}

func (c *Clarifier) parseResponseResult(content, originalInput string) (ParseResult, error) {
	var raw rawParseResponse
	if err := llm.ExtractJSON(content, &raw); err != nil {
		return ParseResult{}, agenterr.Wrap(agenterr.KindOther, "disambiguation: failed to parse clarification result", err)
	}

	if !raw.Understood {
		return ParseResult{Understood: false}, nil
	}

	enriched := raw.EnrichedInput
	if enriched == "" {
		enriched = originalInput
	}

	return ParseResult{
		Understood:    true,
		EnrichedInput: enriched,
		Resolved:      raw.Resolved,
	}, nil
}

func languageName(code string) string {
	switch code {
	case "en":
		return "English"
	case "ko":
		return "Korean"
	case "ja":
		return "Japanese"
	case "zh":
		return "Chinese"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "pt":
		return "Portuguese"
	case "ru":
		return "Russian"
	case "ar":
		return "Arabic"
	case "hi":
		return "Hindi"
	case "vi":
		return "Vietnamese"
	case "th":
		return "Thai"
	default:
		return "the same"
	}
}
