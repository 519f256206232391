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

// Package state implements the declarative, LLM-evaluated state machine:
// per-state prompt/tool/skill scoping, timeouts, and an append-only
// transition history.
package state

import (
	"sort"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// PromptMode controls how a state's prompt fragment composes with the
// agent-wide system prompt.
type PromptMode string

const (
	PromptAppend  PromptMode = "append"
	PromptReplace PromptMode = "replace"
	PromptPrepend PromptMode = "prepend"
)

// Compose combines the agent-wide base prompt with this state's fragment
// according to the mode. An empty fragment always yields base unchanged.
func (m PromptMode) Compose(base, fragment string) string {
	if fragment == "" {
		return base
	}
	switch m {
	case PromptReplace:
		return fragment
	case PromptPrepend:
		if base == "" {
			return fragment
		}
		return fragment + "\n\n" + base
	case PromptAppend:
		fallthrough
	default:
		if base == "" {
			return fragment
		}
		return base + "\n\n" + fragment
	}
}

// Transition is one outgoing edge from a state: a named destination, a
// natural-language condition the evaluator judges against, whether it is
// eligible for automatic (judge-driven) selection, and a priority used to
// order candidates (higher first).
type Transition struct {
	To       string `yaml:"to" json:"to"`
	When     string `yaml:"when" json:"when"`
	Auto     bool   `yaml:"auto" json:"auto"`
	Priority uint8  `yaml:"priority" json:"priority"`
}

// ReflectionConfig governs the turn orchestrator's post-response
// quality pass (spec §4.1 step 7): the main LLM path's response is
// scored by an evaluator LLM against Criteria and retried up to
// MaxRetries when it falls below PassThreshold. Unlike a skill's own
// reflection config, this one gates the state's direct LLM path, not
// a skill execution, so it lives on the state rather than being
// reused from pkg/skill.
type ReflectionConfig struct {
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	Criteria      []string `yaml:"criteria" json:"criteria,omitempty"`
	MaxRetries    int      `yaml:"max_retries" json:"max_retries,omitempty"`
	PassThreshold float64  `yaml:"pass_threshold" json:"pass_threshold,omitempty"`
}

// IsEnabled reports whether reflection applies, tolerating a nil
// config.
func (r *ReflectionConfig) IsEnabled() bool {
	return r != nil && r.Enabled
}

// Definition is one named state: its prompt fragment and composition
// mode, an optional LLM alias override, the tool/skill ids it scopes
// access to (empty means "all"), its outgoing transitions, an
// optional turn-count timeout, and an optional reflection pass over
// the main LLM path's response.
type Definition struct {
	Prompt      string            `yaml:"prompt" json:"prompt,omitempty"`
	PromptMode  PromptMode        `yaml:"prompt_mode" json:"prompt_mode,omitempty"`
	LLM         string            `yaml:"llm" json:"llm,omitempty"`
	Skills      []string          `yaml:"skills" json:"skills,omitempty"`
	Tools       []string          `yaml:"tools" json:"tools,omitempty"`
	Transitions []Transition      `yaml:"transitions" json:"transitions,omitempty"`
	MaxTurns    *uint32           `yaml:"max_turns" json:"max_turns,omitempty"`
	TimeoutTo   string            `yaml:"timeout_to" json:"timeout_to,omitempty"`
	Reflection  *ReflectionConfig `yaml:"reflection" json:"reflection,omitempty"`
}

// Config is the declarative state machine: an initial state id and the
// full map of named state definitions.
type Config struct {
	Initial string                `yaml:"initial" json:"initial"`
	States  map[string]Definition `yaml:"states" json:"states"`
}

// Validate checks the structural invariants a Config must satisfy before
// a StateMachine can be built from it: a non-empty declared initial
// state, and every transition/timeout target referencing a declared
// state.
func (c Config) Validate() error {
	if c.Initial == "" {
		return agenterr.Invalid("state machine initial state cannot be empty")
	}
	if _, ok := c.States[c.Initial]; !ok {
		return agenterr.Invalid("initial state %q not found in states", c.Initial)
	}
	for name, def := range c.States {
		for _, t := range def.Transitions {
			if _, ok := c.States[t.To]; !ok {
				return agenterr.Invalid("state %q has transition to unknown state %q", name, t.To)
			}
		}
		if def.TimeoutTo != "" {
			if _, ok := c.States[def.TimeoutTo]; !ok {
				return agenterr.Invalid("state %q has timeout_to unknown state %q", name, def.TimeoutTo)
			}
		}
	}
	return nil
}

// sortedTransitions returns a copy of transitions sorted by descending
// priority; equal-priority entries keep their declaration order (a
// stable sort).
func sortedTransitions(transitions []Transition) []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
