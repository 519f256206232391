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

package hitl

import "gopkg.in/yaml.v3"

// TimeoutAction decides what the engine does when an ApprovalRequest's
// handler call does not resolve before its timeout elapses.
type TimeoutAction string

const (
	// TimeoutReject treats an unanswered request as rejected. The
	// default: a gated action must never proceed on silence.
	TimeoutReject TimeoutAction = "reject"
	// TimeoutApprove treats an unanswered request as approved.
	TimeoutApprove TimeoutAction = "approve"
	// TimeoutEscalate surfaces the timeout as its own ApprovalResult
	// status so the orchestrator can route it to a secondary channel.
	TimeoutEscalate TimeoutAction = "escalate"
)

// StateApprovalTrigger selects which edge of a state transition an
// approval gate watches.
type StateApprovalTrigger string

const (
	StateTriggerOnEnter     StateApprovalTrigger = "on_enter"
	StateTriggerOnExit      StateApprovalTrigger = "on_exit"
	StateTriggerTransition  StateApprovalTrigger = "transition"
)

// MessageLanguageStrategy decides how the engine picks the language an
// approval message is rendered in.
type MessageLanguageStrategy string

const (
	// LanguageFixed always uses Config.Language.Default.
	LanguageFixed MessageLanguageStrategy = "fixed"
	// LanguagePreferHandler uses the handler's PreferredLanguage when
	// set and supported, falling back to Default otherwise.
	LanguagePreferHandler MessageLanguageStrategy = "prefer_handler"
)

// LlmGenerateConfig asks an LLM to compose the approval message instead
// of rendering a static template, useful when the message should
// summarise arbitrary tool arguments in prose.
type LlmGenerateConfig struct {
	LLM    string `yaml:"llm"`
	Prompt string `yaml:"prompt"`
}

// ApprovalMessage is either a static Go template string (rendered
// against the trigger's context via pkg/template) or an LLM generation
// spec. Exactly one of Template/Generate is set.
type ApprovalMessage struct {
	Template string             `yaml:"template"`
	Generate *LlmGenerateConfig `yaml:"generate"`
	// Translations maps a language code to an alternate Template,
	// consulted by MessageResolver before the default Template.
	Translations map[string]string `yaml:"translations"`
}

// ToolApprovalConfig gates a single tool behind approval. Tool is
// matched against the tool name exactly; glob patterns are not
// expanded.
type ToolApprovalConfig struct {
	Tool           string          `yaml:"tool"`
	Condition      string          `yaml:"condition"` // optional LLM-evaluated predicate over args
	Message        ApprovalMessage `yaml:"message"`
	TimeoutSeconds uint64          `yaml:"timeout_seconds"`
	TimeoutAction  TimeoutAction   `yaml:"timeout_action"`
}

// StateApprovalConfig gates entry to, exit from, or any transition into
// a named state.
type StateApprovalConfig struct {
	State          string               `yaml:"state"`
	From           string               `yaml:"from"` // only meaningful for StateTriggerTransition
	Trigger        StateApprovalTrigger `yaml:"trigger"`
	Message        ApprovalMessage      `yaml:"message"`
	TimeoutSeconds uint64               `yaml:"timeout_seconds"`
	TimeoutAction  TimeoutAction        `yaml:"timeout_action"`
}

// ApprovalCondition gates a named, free-form, LLM-evaluated predicate
// unrelated to any specific tool or state (e.g. "the request involves
// a monetary amount over 1000").
type ApprovalCondition struct {
	Name           string          `yaml:"name"`
	Predicate      string          `yaml:"predicate"`
	Message        ApprovalMessage `yaml:"message"`
	TimeoutSeconds uint64          `yaml:"timeout_seconds"`
	TimeoutAction  TimeoutAction   `yaml:"timeout_action"`
}

// MessageLanguageConfig configures localized approval messages.
type MessageLanguageConfig struct {
	Strategy MessageLanguageStrategy `yaml:"strategy"`
	Default  string                  `yaml:"default"`
}

// HITLConfig is the top-level `hitl` agent-spec section.
type HITLConfig struct {
	Enabled               bool                   `yaml:"enabled"`
	Tools                 []ToolApprovalConfig   `yaml:"tools"`
	States                []StateApprovalConfig  `yaml:"states"`
	Conditions            []ApprovalCondition    `yaml:"conditions"`
	DefaultTimeoutSeconds uint64                 `yaml:"default_timeout_seconds"`
	DefaultTimeoutAction  TimeoutAction          `yaml:"default_timeout_action"`
	Language              MessageLanguageConfig  `yaml:"language"`
}

// DefaultHITLConfig returns HITL disabled, a 30s default timeout that
// rejects on expiry, and messages rendered in English unless a
// handler's preferred language is supported.
func DefaultHITLConfig() HITLConfig {
	return HITLConfig{
		Enabled:               false,
		DefaultTimeoutSeconds: 30,
		DefaultTimeoutAction:  TimeoutReject,
		Language: MessageLanguageConfig{
			Strategy: LanguagePreferHandler,
			Default:  "en",
		},
	}
}

// IsEnabled reports whether any gate is active.
func (c HITLConfig) IsEnabled() bool { return c.Enabled }

// UnmarshalYAML seeds defaults before decoding, so a document that
// only sets a handful of fields still gets sane timeouts and a
// language strategy.
func (c *HITLConfig) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig HITLConfig
	raw := rawConfig(DefaultHITLConfig())
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = HITLConfig(raw)
	return nil
}

// effectiveTimeoutSeconds returns seconds, falling back to the config's
// default when the gate itself did not set one.
func (c HITLConfig) effectiveTimeoutSeconds(gate uint64) uint64 {
	if gate > 0 {
		return gate
	}
	return c.DefaultTimeoutSeconds
}

func (c HITLConfig) effectiveTimeoutAction(gate TimeoutAction) TimeoutAction {
	if gate != "" {
		return gate
	}
	if c.DefaultTimeoutAction != "" {
		return c.DefaultTimeoutAction
	}
	return TimeoutReject
}
