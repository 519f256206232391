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

package config

import (
	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
	defaultTimeoutMS   = 60_000

	defaultMaxIterations = 10
)

// SetDefaults fills every unset knob in the spec, the way building an
// agent from a hand-written YAML file should: explicit values always
// win, omitted ones get a sane default rather than a zero value
// silently propagating into the runtime (an empty model name, a
// temperature of 0, a nil memory config).
func (s *AgentSpec) SetDefaults() {
	if s.LLM.Default == "" && s.LLM.Router == "" && s.LLM.Inline == nil && len(s.LLMs) > 0 {
		for alias := range s.LLMs {
			s.LLM.Default = alias
			break
		}
	}
	if s.LLM.Inline != nil {
		s.LLM.Inline.SetDefaults()
		if s.LLMs == nil {
			s.LLMs = map[string]LLMConfig{}
		}
		s.LLMs["default"] = *s.LLM.Inline
		s.LLM.Default = "default"
		s.LLM.Inline = nil
	}
	for alias, llmCfg := range s.LLMs {
		llmCfg.SetDefaults()
		s.LLMs[alias] = llmCfg
	}

	s.Memory.SetDefaults()

	if s.Streaming.BufferSize == 0 {
		s.Streaming.BufferSize = 64
	}

	for i := range s.Tools {
		s.Tools[i].SetDefaults()
	}

	if s.MaxIterations == 0 {
		s.MaxIterations = defaultMaxIterations
	}
}

// SetDefaults fills unset LLMConfig fields. Provider defaults to the
// one concrete wire codec this runtime ships; APIKey falls back to the
// provider-conventional environment variable when unset. BaseURL is
// left as given.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = LLMProviderOpenAICompatible
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.APIKey == "" {
		c.APIKey = GetProviderAPIKey(string(c.Provider))
	}
	if c.Temperature == nil {
		temp := defaultTemperature
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = defaultTimeoutMS
	}
}

// SetDefaults fills unset MemoryConfig fields with conservative
// defaults of its own; pkg/memory.Config documents none.
func (m *MemoryConfig) SetDefaults() {
	if m.Type == "" {
		m.Type = "conversation"
	}
	if m.MaxMessages == 0 && m.MaxRecentMessages == 0 {
		m.MaxRecentMessages = 40
	}
	if m.CompressThreshold == 0 {
		m.CompressThreshold = 30
	}
	if m.SummarizeBatchSize == 0 {
		m.SummarizeBatchSize = 10
	}
}

// SetDefaults fills unset ToolRef fields.
func (t *ToolRef) SetDefaults() {
	if t.Type == "" {
		t.Type = ToolTypeBuiltin
	}
}

// Validate checks the structural invariants an AgentSpec must satisfy
// before an orchestrator can be built from it. Every failure is
// reported as a KindInvalidSpec error: a malformed agent spec is a
// configuration-time defect, not a runtime one.
func (s *AgentSpec) Validate() error {
	if s.Name == "" {
		return agenterr.Invalid("agent spec: name is required")
	}

	if err := s.validateLLMs(); err != nil {
		return err
	}
	if err := s.validateSkillsAndTools(); err != nil {
		return err
	}
	if s.StateMachine.Initial != "" {
		if err := s.StateMachine.Validate(); err != nil {
			return agenterr.Wrapf(agenterr.KindInvalidSpec, err, "agent spec: state machine")
		}
		for name, def := range s.StateMachine.States {
			if def.LLM != "" {
				if _, ok := s.LLMs[def.LLM]; !ok {
					return agenterr.Invalid("state %q references unknown llm alias %q", name, def.LLM)
				}
			}
		}
	}

	return nil
}

func (s *AgentSpec) validateLLMs() error {
	if len(s.LLMs) == 0 {
		return agenterr.Invalid("agent spec: at least one llm must be configured")
	}
	if s.LLM.Default == "" {
		return agenterr.Invalid("agent spec: llm.default is required")
	}
	if _, ok := s.LLMs[s.LLM.Default]; !ok {
		return agenterr.Invalid("agent spec: llm default alias %q not found in llms", s.LLM.Default)
	}
	if s.LLM.Router != "" {
		if _, ok := s.LLMs[s.LLM.Router]; !ok {
			return agenterr.Invalid("agent spec: llm router alias %q not found in llms", s.LLM.Router)
		}
	}
	for alias, cfg := range s.LLMs {
		if err := cfg.Validate(); err != nil {
			return agenterr.Invalid("agent spec: llm %q: %v", alias, err)
		}
	}
	return nil
}

func (s *AgentSpec) validateSkillsAndTools() error {
	seenSkills := make(map[string]bool, len(s.Skills))
	for _, ref := range s.Skills {
		name := ref.Name
		if name == "" && ref.Inline != nil {
			name = ref.Inline.ID
		}
		if name == "" {
			continue
		}
		if seenSkills[name] {
			return agenterr.Invalid("agent spec: duplicate skill id %q", name)
		}
		seenSkills[name] = true
	}

	seenTools := make(map[string]bool, len(s.Tools))
	for _, ref := range s.Tools {
		if ref.Name == "" {
			return agenterr.Invalid("agent spec: tool entry missing name")
		}
		if seenTools[ref.Name] {
			return agenterr.Invalid("agent spec: duplicate tool id %q", ref.Name)
		}
		seenTools[ref.Name] = true

		switch ref.Type {
		case ToolTypeMCP:
			if ref.Command == "" {
				return agenterr.Invalid("agent spec: tool %q: mcp tools require command", ref.Name)
			}
		case ToolTypePlugin:
			if ref.Path == "" {
				return agenterr.Invalid("agent spec: tool %q: plugin tools require path", ref.Name)
			}
		}
	}
	return nil
}

// Validate checks LLMConfig invariants.
func (c LLMConfig) Validate() error {
	if c.Model == "" {
		return agenterr.Invalid("model is required")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return agenterr.Invalid("temperature must be between 0 and 2")
	}
	return nil
}
