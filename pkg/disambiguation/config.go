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

// Package disambiguation implements the disambiguation manager (spec
// §4.9): an LLM classifier flags ambiguous user input, an LLM generator
// asks a clarifying question, and the manager threads attempt state
// across turns until the input resolves, a fallback action runs, or the
// turn escalates to HITL.
package disambiguation

import "gopkg.in/yaml.v3"

// AmbiguityAspect is one dimension of ambiguity the detector checks for.
type AmbiguityAspect string

const (
	AspectMissingTarget     AmbiguityAspect = "missing_target"
	AspectMissingAction     AmbiguityAspect = "missing_action"
	AspectMissingParameters AmbiguityAspect = "missing_parameters"
	AspectMultipleIntents   AmbiguityAspect = "multiple_intents"
	AspectVagueReferences   AmbiguityAspect = "vague_references"
	AspectImplicitContext   AmbiguityAspect = "implicit_context"
)

// Description renders a human-readable hint for the detection prompt.
func (a AmbiguityAspect) Description() string {
	switch a {
	case AspectMissingTarget:
		return "WHO or WHAT is the action for"
	case AspectMissingAction:
		return "WHAT action to perform"
	case AspectMissingParameters:
		return "Required information missing"
	case AspectMultipleIntents:
		return "Could mean different things"
	case AspectVagueReferences:
		return "Vague references like 'it', 'that', '그거', 'あれ'"
	case AspectImplicitContext:
		return "Assumes shared knowledge we don't have"
	default:
		return string(a)
	}
}

func defaultAspects() []AmbiguityAspect {
	return []AmbiguityAspect{
		AspectMissingTarget,
		AspectMissingAction,
		AspectMissingParameters,
		AspectVagueReferences,
	}
}

// DetectionConfig controls how ambiguous input is identified.
type DetectionConfig struct {
	LLM       string            `yaml:"llm" json:"llm"`
	Threshold float32           `yaml:"threshold" json:"threshold"`
	Aspects   []AmbiguityAspect `yaml:"aspects" json:"aspects"`
	Prompt    string            `yaml:"prompt,omitempty" json:"prompt,omitempty"`
}

// DefaultDetectionConfig returns the original's defaults: router LLM,
// 0.7 threshold, the four most common aspects.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{LLM: "router", Threshold: 0.7, Aspects: defaultAspects()}
}

// ClarificationStyle selects how a clarifying question is framed.
type ClarificationStyle string

const (
	StyleAuto    ClarificationStyle = "auto"
	StyleOptions ClarificationStyle = "options"
	StyleOpen    ClarificationStyle = "open"
	StyleYesNo   ClarificationStyle = "yes_no"
	StyleHybrid  ClarificationStyle = "hybrid"
)

// MaxAttemptsAction decides what happens when clarification attempts
// are exhausted without a resolved input.
type MaxAttemptsAction string

const (
	OnMaxProceedWithBestGuess MaxAttemptsAction = "proceed_with_best_guess"
	OnMaxApologizeAndStop     MaxAttemptsAction = "apologize_and_stop"
	OnMaxEscalate             MaxAttemptsAction = "escalate"
)

// ClarificationConfig controls how clarifying questions are generated.
type ClarificationConfig struct {
	Style              ClarificationStyle `yaml:"style" json:"style"`
	MaxOptions         int                `yaml:"max_options" json:"max_options"`
	IncludeOtherOption bool               `yaml:"include_other_option" json:"include_other_option"`
	MaxAttempts        uint32             `yaml:"max_attempts" json:"max_attempts"`
	OnMaxAttempts      MaxAttemptsAction  `yaml:"on_max_attempts" json:"on_max_attempts"`
	LLM                string             `yaml:"llm,omitempty" json:"llm,omitempty"`
}

// DefaultClarificationConfig returns the original's defaults.
func DefaultClarificationConfig() ClarificationConfig {
	return ClarificationConfig{
		Style:              StyleAuto,
		MaxOptions:         4,
		IncludeOtherOption: true,
		MaxAttempts:        2,
		OnMaxAttempts:      OnMaxProceedWithBestGuess,
	}
}

// ContextConfig controls what conversational context is fed into
// detection/clarification prompts.
type ContextConfig struct {
	RecentMessages          int  `yaml:"recent_messages" json:"recent_messages"`
	IncludeState            bool `yaml:"include_state" json:"include_state"`
	IncludeAvailableTools   bool `yaml:"include_available_tools" json:"include_available_tools"`
	IncludeAvailableSkills  bool `yaml:"include_available_skills" json:"include_available_skills"`
	IncludeUserContext      bool `yaml:"include_user_context" json:"include_user_context"`
}

// DefaultContextConfig returns the original's defaults.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		RecentMessages:         5,
		IncludeState:           true,
		IncludeAvailableTools:  true,
		IncludeAvailableSkills: true,
		IncludeUserContext:     true,
	}
}

// SkipConditionKind discriminates SkipCondition's variant.
type SkipConditionKind string

const (
	SkipSocial                  SkipConditionKind = "social"
	SkipCompleteToolCall        SkipConditionKind = "complete_tool_call"
	SkipAnsweringAgentQuestion  SkipConditionKind = "answering_agent_question"
	SkipShortInput              SkipConditionKind = "short_input"
	SkipInState                 SkipConditionKind = "in_state"
	SkipCustom                  SkipConditionKind = "custom"
)

// SkipCondition is one rule under which disambiguation is bypassed
// entirely for a turn.
type SkipCondition struct {
	Type         SkipConditionKind `yaml:"type" json:"type"`
	ExamplesHint string            `yaml:"examples_hint,omitempty" json:"examples_hint,omitempty"`
	MaxChars     int               `yaml:"max_chars,omitempty" json:"max_chars,omitempty"`
	States       []string          `yaml:"states,omitempty" json:"states,omitempty"`
	Condition    string            `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// UnmarshalYAML applies the short_input variant's default max_chars
// (10) when the document omits it.
func (s *SkipCondition) UnmarshalYAML(node *yaml.Node) error {
	type rawSkipCondition SkipCondition
	raw := rawSkipCondition{MaxChars: 10}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = SkipCondition(raw)
	return nil
}

// CacheConfig controls the (currently unimplemented — see DESIGN.md)
// similarity cache for repeated ambiguous inputs.
type CacheConfig struct {
	Enabled             bool    `yaml:"enabled" json:"enabled"`
	SimilarityThreshold float32 `yaml:"similarity_threshold" json:"similarity_threshold"`
	TTLSeconds          uint64  `yaml:"ttl_seconds" json:"ttl_seconds"`
}

// DefaultCacheConfig returns the original's defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Enabled: false, SimilarityThreshold: 0.9, TTLSeconds: 3600}
}

// Config is the top-level disambiguation configuration, the YAML shape
// named by the agent spec's `disambiguation` key.
type Config struct {
	Enabled       bool                 `yaml:"enabled" json:"enabled"`
	Detection     DetectionConfig      `yaml:"detection" json:"detection"`
	Clarification ClarificationConfig  `yaml:"clarification" json:"clarification"`
	Context       ContextConfig        `yaml:"context" json:"context"`
	SkipWhen      []SkipCondition      `yaml:"skip_when,omitempty" json:"skip_when,omitempty"`
	Cache         CacheConfig          `yaml:"cache" json:"cache"`
}

// DefaultConfig returns a disabled configuration with the original's
// nested defaults, matching DisambiguationConfig::default().
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		Detection:     DefaultDetectionConfig(),
		Clarification: DefaultClarificationConfig(),
		Context:       DefaultContextConfig(),
		Cache:         DefaultCacheConfig(),
	}
}

// IsEnabled reports whether disambiguation should run at all.
func (c Config) IsEnabled() bool { return c.Enabled }

// UnmarshalYAML fills in nested defaults for any field the YAML
// document omits, mirroring serde's per-field #[serde(default = ...)].
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	raw := rawConfig(DefaultConfig())
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = Config(raw)
	return nil
}

// StateOverride lets a single state tighten or relax disambiguation
// relative to the agent-wide Config.
type StateOverride struct {
	Enabled             *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Threshold           *float32 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	RequireConfirmation bool     `yaml:"require_confirmation,omitempty" json:"require_confirmation,omitempty"`
	RequiredClarity     []string `yaml:"required_clarity,omitempty" json:"required_clarity,omitempty"`
}

// IsEmpty reports whether the override carries no actual change.
func (s StateOverride) IsEmpty() bool {
	return s.Enabled == nil && s.Threshold == nil && !s.RequireConfirmation && len(s.RequiredClarity) == 0
}

// SkillOverride lets a single skill tighten or relax disambiguation
// and supply its own clarification question templates.
type SkillOverride struct {
	Enabled                 *bool             `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Threshold               *float32          `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	RequiredClarity         []string          `yaml:"required_clarity,omitempty" json:"required_clarity,omitempty"`
	ClarificationTemplates  map[string]string `yaml:"clarification_templates,omitempty" json:"clarification_templates,omitempty"`
}

// IsEmpty reports whether the override carries no actual change.
func (s SkillOverride) IsEmpty() bool {
	return s.Enabled == nil && s.Threshold == nil && len(s.RequiredClarity) == 0 && len(s.ClarificationTemplates) == 0
}
