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

// Package skill implements the skill subsystem (spec §4.7): a skill is
// a declarative sequence of tool and prompt steps, loaded from YAML or
// declared inline, routed to by an LLM skill router, and run by an
// executor that threads a shared, template-visible context through each
// step.
package skill

import (
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// ReasoningMode selects the (optional) chain-of-thought style a skill's
// prompt steps are rendered with. The reasoning executor itself is out
// of scope (see DESIGN.md); only the declarative knob is carried.
type ReasoningMode string

const (
	ReasoningNone ReasoningMode = "none"
	ReasoningCoT  ReasoningMode = "cot"
)

// ReasoningConfig is a skill's optional reasoning-mode override.
type ReasoningConfig struct {
	Mode ReasoningMode `yaml:"mode" json:"mode"`
}

// ReflectionConfig is a skill's optional post-response quality check:
// evaluate the output against criteria and retry up to MaxRetries,
// accepting the best-scoring attempt at the cap.
type ReflectionConfig struct {
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	Criteria      []string `yaml:"criteria" json:"criteria,omitempty"`
	MaxRetries    int      `yaml:"max_retries" json:"max_retries,omitempty"`
	PassThreshold float64  `yaml:"pass_threshold" json:"pass_threshold,omitempty"`
}

// IsEnabled reports whether reflection should run; a nil *ReflectionConfig
// is always disabled.
func (r *ReflectionConfig) IsEnabled() bool {
	return r != nil && r.Enabled
}

// DisambiguationOverride lets a skill opt out of (or force) the
// orchestrator's disambiguation pass regardless of the agent-wide
// setting; nil means "use the agent-wide policy".
type DisambiguationOverride struct {
	Skip bool `yaml:"skip" json:"skip"`
}

// ToolStep invokes a named tool with template-rendered arguments.
type ToolStep struct {
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"args,omitempty"`
	OutputAs string         `json:"output_as,omitempty"`
}

// PromptStep renders a template and calls an LLM, optionally by alias.
type PromptStep struct {
	Prompt string `json:"prompt"`
	LLM    string `json:"llm,omitempty"`
}

// Step is a tagged union of ToolStep | PromptStep, matching the
// original's untagged-enum YAML shape: a step with a "tool" key is a
// tool step, one with a "prompt" key is a prompt step.
type Step struct {
	Tool   *ToolStep
	Prompt *PromptStep
}

// IsTool reports whether this is a tool step.
func (s Step) IsTool() bool { return s.Tool != nil }

// IsPrompt reports whether this is a prompt step.
func (s Step) IsPrompt() bool { return s.Prompt != nil }

type rawStep struct {
	Tool     string         `yaml:"tool"`
	Args     map[string]any `yaml:"args"`
	OutputAs string         `yaml:"output_as"`
	Prompt   string         `yaml:"prompt"`
	LLM      string         `yaml:"llm"`
}

// UnmarshalYAML decodes a Step, dispatching on whether "tool" or
// "prompt" is present.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw rawStep
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.Prompt != "":
		s.Prompt = &PromptStep{Prompt: raw.Prompt, LLM: raw.LLM}
	case raw.Tool != "":
		s.Tool = &ToolStep{Tool: raw.Tool, Args: raw.Args, OutputAs: raw.OutputAs}
	default:
		return agenterr.Invalid("skill step must set either 'tool' or 'prompt'")
	}
	return nil
}

// Definition is a complete skill: identity, trigger hint, ordered
// steps, and optional reasoning/reflection/disambiguation overrides.
type Definition struct {
	ID             string                  `yaml:"id" json:"id"`
	Description    string                  `yaml:"description" json:"description"`
	Trigger        string                  `yaml:"trigger" json:"trigger"`
	Steps          []Step                  `yaml:"steps" json:"steps"`
	Reasoning      *ReasoningConfig        `yaml:"reasoning,omitempty" json:"reasoning,omitempty"`
	Reflection     *ReflectionConfig       `yaml:"reflection,omitempty" json:"reflection,omitempty"`
	Disambiguation *DisambiguationOverride `yaml:"disambiguation,omitempty" json:"disambiguation,omitempty"`
}

// Ref is a reference to a skill: by name (resolved via the Loader's
// search paths), by file path, or inline (a full Definition).
type Ref struct {
	Name   string
	File   string
	Inline *Definition
}

// NameRef builds a by-name Ref.
func NameRef(name string) Ref { return Ref{Name: name} }

// FileRef builds a by-path Ref.
func FileRef(path string) Ref { return Ref{File: path} }

// InlineRef builds an inline Ref.
func InlineRef(def Definition) Ref { return Ref{Inline: &def} }

type rawFileRef struct {
	File string `yaml:"file"`
}

// UnmarshalYAML decodes a Ref: a bare scalar is a by-name reference, a
// mapping with a "file" key is a by-path reference, anything else is
// decoded as an inline Definition.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Name = node.Value
		return nil
	}

	var fileWrap rawFileRef
	if err := node.Decode(&fileWrap); err == nil && fileWrap.File != "" {
		r.File = fileWrap.File
		return nil
	}

	var def Definition
	if err := node.Decode(&def); err != nil {
		return err
	}
	r.Inline = &def
	return nil
}

// StepResult is one step's recorded outcome: the (already-rendered)
// arguments it ran with, if any, and its parsed result value.
type StepResult struct {
	StepIndex int
	Args      any
	Result    any
}

// Context is the shared, mutable state threaded through a skill's step
// sequence: the user's input, results recorded so far, and a free-form
// extra context map available to every template as `.Context`.
type Context struct {
	UserInput   string
	StepResults []StepResult
	Extra       any
}

// NewContext builds a Context for one skill invocation.
func NewContext(userInput string, extra any) *Context {
	return &Context{UserInput: userInput, Extra: extra}
}

// AddResult records step index's outcome.
func (c *Context) AddResult(index int, args, result any) {
	c.StepResults = append(c.StepResults, StepResult{StepIndex: index, Args: args, Result: result})
}

// GetResult returns the recorded result for step index, if any.
func (c *Context) GetResult(index int) (StepResult, bool) {
	for _, r := range c.StepResults {
		if r.StepIndex == index {
			return r, true
		}
	}
	return StepResult{}, false
}
