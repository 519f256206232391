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

package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/llm/llmtest"
)

func TestRouter_ProcessTaskUsesPrimary(t *testing.T) {
	primary := llmtest.New("primary", "main answer")
	r := llm.NewRouter(primary)

	resp, err := r.ProcessTask(context.Background(), nil, llm.Config{})
	require.NoError(t, err)
	assert.Equal(t, "main answer", resp.Text)
}

func TestRouter_SelectTool_UsesSpecialisedProvider(t *testing.T) {
	primary := llmtest.New("primary", "should not be used")
	selector := llmtest.New("selector", `{"tool_id": "calculator", "confidence": 0.9}`)
	r := llm.NewRouter(primary)
	r.ToolSelector = selector

	sel, err := r.SelectTool(context.Background(), "what is 2+2", []llm.ToolCatalogEntry{{ID: "calculator"}})
	require.NoError(t, err)
	assert.Equal(t, "calculator", sel.ToolID)
	assert.Equal(t, 0.9, sel.Confidence)
	assert.Len(t, selector.Calls, 1)
	assert.Empty(t, primary.Calls)
}

func TestRouter_FallsBackToPrimaryOnSpecialisedFailure(t *testing.T) {
	primary := llmtest.New("primary", `{"category": "billing", "confidence": 0.7}`)
	classifier := llmtest.New("classifier")
	classifier.Err = agenterr.New(agenterr.KindLLM, "boom")

	r := llm.NewRouter(primary)
	r.Classifier = classifier
	r.EnableFallback = true

	cls, err := r.Classify(context.Background(), "my invoice is wrong", []string{"billing", "support"})
	require.NoError(t, err)
	assert.Equal(t, "billing", cls.Category)
	assert.Len(t, primary.Calls, 1)
}

func TestRouter_NoFallback_PropagatesError(t *testing.T) {
	primary := llmtest.New("primary")
	evaluator := llmtest.New("evaluator")
	evaluator.Err = agenterr.New(agenterr.KindLLM, "down")

	r := llm.NewRouter(primary)
	r.GuardEvaluator = evaluator

	_, err := r.EvaluateYesNo(context.Background(), "is it done?", "")
	require.Error(t, err)
	assert.Empty(t, primary.Calls)
}

func TestRouter_NoProviderConfigured(t *testing.T) {
	r := &llm.Router{}
	_, err := r.ProcessTask(context.Background(), nil, llm.Config{})
	require.Error(t, err)
	assert.Equal(t, agenterr.KindConfig, agenterr.KindOf(err))
}
