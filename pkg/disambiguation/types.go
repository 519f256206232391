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

// AmbiguityType classifies why an input was flagged ambiguous.
type AmbiguityType string

const (
	TypeMissingTarget     AmbiguityType = "missing_target"
	TypeMissingAction     AmbiguityType = "missing_action"
	TypeMissingParameters AmbiguityType = "missing_parameters"
	TypeMultipleIntents   AmbiguityType = "multiple_intents"
	TypeVagueReference    AmbiguityType = "vague_reference"
	TypeImplicitContext   AmbiguityType = "implicit_context"
	TypeUnknown           AmbiguityType = "unknown"
)

// DetectionResult is the LLM classifier's verdict on one input.
type DetectionResult struct {
	IsAmbiguous      bool          `json:"is_ambiguous"`
	Confidence       float32       `json:"confidence"`
	AmbiguityType    AmbiguityType `json:"ambiguity_type,omitempty"`
	Reasoning        string        `json:"reasoning"`
	WhatIsUnclear    []string      `json:"what_is_unclear"`
	DetectedLanguage string        `json:"detected_language,omitempty"`
}

// Clear builds the canonical "nothing wrong" detection result.
func Clear() DetectionResult {
	return DetectionResult{IsAmbiguous: false, Confidence: 1.0, Reasoning: "Input is clear"}
}

// Ambiguous builds a positive detection result.
func Ambiguous(confidence float32, kind AmbiguityType, reasoning string, unclear []string) DetectionResult {
	return DetectionResult{
		IsAmbiguous:   true,
		Confidence:    confidence,
		AmbiguityType: kind,
		Reasoning:     reasoning,
		WhatIsUnclear: unclear,
	}
}

// WithLanguage attaches a detected language code, returning the
// modified copy (mirrors the original's builder-style with_language).
func (d DetectionResult) WithLanguage(lang string) DetectionResult {
	d.DetectedLanguage = lang
	return d
}

// ClarificationOption is one choice offered in a clarification
// question.
type ClarificationOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// NewOption builds a ClarificationOption.
func NewOption(id, label string) ClarificationOption {
	return ClarificationOption{ID: id, Label: label}
}

// WithDescription attaches a description to the option.
func (o ClarificationOption) WithDescription(desc string) ClarificationOption {
	o.Description = desc
	return o
}

// ClarificationQuestion is the question posed back to the user.
type ClarificationQuestion struct {
	Question   string                 `json:"question"`
	Options    []ClarificationOption  `json:"options,omitempty"`
	Style      ClarificationStyle     `json:"style"`
	Clarifying []string               `json:"clarifying,omitempty"`
}

// OpenQuestion builds a free-form clarification question.
func OpenQuestion(question string) ClarificationQuestion {
	return ClarificationQuestion{Question: question, Style: StyleOpen}
}

// OptionsQuestion builds a multiple-choice clarification question.
func OptionsQuestion(question string, options []ClarificationOption) ClarificationQuestion {
	return ClarificationQuestion{Question: question, Options: options, Style: StyleOptions}
}

// YesNoQuestion builds a yes/no clarification question.
func YesNoQuestion(question string) ClarificationQuestion {
	return ClarificationQuestion{
		Question: question,
		Options:  []ClarificationOption{NewOption("yes", "Yes"), NewOption("no", "No")},
		Style:    StyleYesNo,
	}
}

// WithClarifying attaches the list of aspects this question targets.
func (q ClarificationQuestion) WithClarifying(clarifying []string) ClarificationQuestion {
	q.Clarifying = clarifying
	return q
}

// HasOptions reports whether the question carries a non-empty option
// list.
func (q ClarificationQuestion) HasOptions() bool {
	return len(q.Options) > 0
}

// ResultKind discriminates Result's variant, mirroring the original's
// DisambiguationResult enum (Go has no sum type, so Result carries one
// populated payload per Kind).
type ResultKind string

const (
	ResultClear               ResultKind = "clear"
	ResultNeedsClarification  ResultKind = "needs_clarification"
	ResultClarified           ResultKind = "clarified"
	ResultProceedWithBestGuess ResultKind = "proceed_with_best_guess"
	ResultGiveUp              ResultKind = "give_up"
	ResultEscalate            ResultKind = "escalate"
)

// Result is the outcome of running the disambiguation manager over one
// turn's input.
type Result struct {
	Kind ResultKind

	Question  ClarificationQuestion
	Detection DetectionResult

	OriginalInput string
	EnrichedInput string
	Resolved      map[string]any

	Reason string
}

// IsClear reports the Clear variant.
func (r Result) IsClear() bool { return r.Kind == ResultClear }

// NeedsClarification reports the NeedsClarification variant.
func (r Result) NeedsClarification() bool { return r.Kind == ResultNeedsClarification }

// IsResolved reports whether the turn can proceed with some input:
// Clear, Clarified, or ProceedWithBestGuess.
func (r Result) IsResolved() bool {
	switch r.Kind {
	case ResultClear, ResultClarified, ResultProceedWithBestGuess:
		return true
	default:
		return false
	}
}

// GetQuestion returns the pending clarification question, if any.
func (r Result) GetQuestion() (ClarificationQuestion, bool) {
	if r.Kind == ResultNeedsClarification {
		return r.Question, true
	}
	return ClarificationQuestion{}, false
}

// Context is the per-turn evaluation context threaded into detection
// and clarification prompts, and mutated across a multi-turn
// clarification exchange.
type Context struct {
	RecentMessages       []string
	CurrentState         string
	AvailableTools       []string
	AvailableSkills      []string
	UserContext          map[string]any
	ClarificationAttempts uint32
	PreviousQuestions    []string

	// LastDetection carries the detection result a pending
	// NeedsClarification question was generated from, so a follow-up
	// "still not understood" turn can regenerate a question without
	// re-running detection.
	LastDetection DetectionResult
}

// NewContext builds an empty Context.
func NewContext() *Context { return &Context{} }

// WithRecentMessages sets the recent-messages window.
func (c *Context) WithRecentMessages(messages []string) *Context {
	c.RecentMessages = messages
	return c
}

// WithState sets the current orchestrator state id.
func (c *Context) WithState(state string) *Context {
	c.CurrentState = state
	return c
}

// WithTools sets the available tool names.
func (c *Context) WithTools(tools []string) *Context {
	c.AvailableTools = tools
	return c
}

// WithSkills sets the available skill ids.
func (c *Context) WithSkills(skills []string) *Context {
	c.AvailableSkills = skills
	return c
}

// WithUserContext sets free-form user context.
func (c *Context) WithUserContext(ctx map[string]any) *Context {
	c.UserContext = ctx
	return c
}

// IncrementAttempts bumps the clarification attempt counter.
func (c *Context) IncrementAttempts() { c.ClarificationAttempts++ }

// AddPreviousQuestion records a question already asked this exchange.
func (c *Context) AddPreviousQuestion(question string) {
	c.PreviousQuestions = append(c.PreviousQuestions, question)
}

// Reset clears attempt state, e.g. once an exchange resolves.
func (c *Context) Reset() {
	c.ClarificationAttempts = 0
	c.PreviousQuestions = nil
}

// ParseResult is the outcome of parsing a user's reply to a
// clarification question.
type ParseResult struct {
	Understood    bool
	EnrichedInput string
	Resolved      map[string]any
}
