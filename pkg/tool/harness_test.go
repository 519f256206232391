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

package tool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/tool"
)

type slowTool struct{ delay time.Duration }

func (s slowTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{ID: "slow", DisplayName: "slow"}
}

func (s slowTool) Execute(ctx context.Context, _ map[string]any) (tool.Result, error) {
	select {
	case <-time.After(s.delay):
		return tool.Result{Success: true}, nil
	case <-ctx.Done():
		return tool.Result{}, ctx.Err()
	}
}

func TestHarness_ExecuteSuccess(t *testing.T) {
	h := tool.NewHarness(0)
	res, err := h.Execute(context.Background(), stubTool{id: "calculator"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestHarness_TimeoutEnforced(t *testing.T) {
	h := tool.NewHarness(10 * time.Millisecond)
	_, err := h.Execute(context.Background(), slowTool{delay: 100 * time.Millisecond}, nil)
	require.Error(t, err)
}

func TestHarness_RespectsDisabledPolicy(t *testing.T) {
	h := tool.NewHarness(0)
	disabled := tool.SecurityPolicy{Enabled: false}
	h.SetPolicy("calculator", &disabled)

	_, err := h.Execute(context.Background(), stubTool{id: "calculator"}, nil)
	require.Error(t, err)
}

func TestHarness_NeedsApproval(t *testing.T) {
	h := tool.NewHarness(0)
	gated := tool.SecurityPolicy{Enabled: true, RequireApproval: true}
	h.SetPolicy("calculator", &gated)

	assert.True(t, h.NeedsApproval("calculator"))
	assert.False(t, h.NeedsApproval("other"))
}
