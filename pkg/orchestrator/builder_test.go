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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/config"
	"github.com/kadirpekel/agentrt/pkg/skill"
	"github.com/kadirpekel/agentrt/pkg/state"
)

func minimalSpec() *config.AgentSpec {
	return &config.AgentSpec{
		Name: "test-agent",
		LLM:  config.LLMSelector{Default: "chat"},
		LLMs: map[string]config.LLMConfig{
			"chat": {Provider: config.LLMProviderOpenAICompatible, Model: "gpt-4o-mini", BaseURL: "http://localhost:9999/v1"},
		},
	}
}

func TestBuild_RejectsMissingName(t *testing.T) {
	spec := minimalSpec()
	spec.Name = ""
	_, err := Build(context.Background(), spec, Dependencies{})
	assert.Error(t, err)
}

func TestBuild_RejectsEmptyLLMs(t *testing.T) {
	spec := minimalSpec()
	spec.LLMs = nil
	_, err := Build(context.Background(), spec, Dependencies{})
	assert.Error(t, err)
}

func TestBuild_RejectsUnknownDefaultAlias(t *testing.T) {
	spec := minimalSpec()
	spec.LLM.Default = "nope"
	_, err := Build(context.Background(), spec, Dependencies{})
	assert.Error(t, err)
}

func TestBuild_RejectsUnknownRouterAlias(t *testing.T) {
	spec := minimalSpec()
	spec.LLM.Router = "nope"
	_, err := Build(context.Background(), spec, Dependencies{})
	assert.Error(t, err)
}

func TestBuild_RejectsDuplicateToolNames(t *testing.T) {
	spec := minimalSpec()
	spec.Tools = []config.ToolRef{
		{Name: "calculator", Type: config.ToolTypeBuiltin},
		{Name: "calculator", Type: config.ToolTypeBuiltin},
	}
	_, err := Build(context.Background(), spec, Dependencies{})
	assert.Error(t, err)
}

func TestBuild_RejectsSkillsWithoutLoader(t *testing.T) {
	spec := minimalSpec()
	spec.Skills = []skill.Ref{skill.NameRef("greeter")}
	_, err := Build(context.Background(), spec, Dependencies{})
	assert.Error(t, err)
}

func TestBuild_MinimalSpecWiresOrchestrator(t *testing.T) {
	spec := minimalSpec()
	spec.Version = "1.0.0"
	spec.Description = "a test agent"
	spec.Tools = []config.ToolRef{{Name: "calculator", Type: config.ToolTypeBuiltin}}

	agent, err := Build(context.Background(), spec, Dependencies{})
	require.NoError(t, err)
	require.NotNil(t, agent)

	info := agent.Info()
	assert.Equal(t, "test-agent", info.Name)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "a test agent", info.Description)

	assert.Equal(t, 1, agent.tools.Count())
	assert.Nil(t, agent.machine, "no state_machine.initial was set")
	assert.Nil(t, agent.skillRouter, "no skills were declared")
	assert.Nil(t, agent.disambiguator, "disambiguation was not enabled")
	assert.Nil(t, agent.hitlEngine, "hitl was not enabled")
	assert.Nil(t, agent.storageBackend, "storage.type defaults to none")
	assert.NotZero(t, agent.spec.MaxIterations, "SetDefaults must fill max_iterations")
}

func TestBuild_StateMachineIsWiredWhenDeclared(t *testing.T) {
	spec := minimalSpec()
	spec.StateMachine.Initial = "greeting"
	spec.StateMachine.States = map[string]state.Definition{
		"greeting": {},
	}

	agent, err := Build(context.Background(), spec, Dependencies{})
	require.NoError(t, err)
	require.NotNil(t, agent.machine)
	assert.Equal(t, "greeting", agent.machine.Current())
}
