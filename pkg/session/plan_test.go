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

package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/session"
)

func linearPlan() session.Plan {
	return session.NewPlan([]session.PlanStep{
		{ID: "a", Action: session.ActionToolCall, Status: session.StepPending},
		{ID: "b", Action: session.ActionToolCall, Status: session.StepPending, DependsOn: []string{"a"}},
		{ID: "c", Action: session.ActionDirectResponse, Status: session.StepPending, DependsOn: []string{"b"}},
	})
}

func TestPlan_Acyclic_DetectsCycle(t *testing.T) {
	p := session.NewPlan([]session.PlanStep{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", DependsOn: []string{"a"}},
	})
	assert.False(t, p.Acyclic())
}

func TestPlan_Acyclic_AcceptsDAG(t *testing.T) {
	assert.True(t, linearPlan().Acyclic())
}

func TestPlan_Ready_OnlyRootInitially(t *testing.T) {
	p := linearPlan()
	ready := p.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, "a", ready[0].ID)
}

func TestPlan_Ready_UnblocksAfterDependencyCompletes(t *testing.T) {
	p := linearPlan()
	require.NoError(t, p.Advance("a", session.StepCompleted, 42, ""))

	ready := p.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, "b", ready[0].ID)
}

func TestPlan_Ready_SkippedDependencyAlsoUnblocks(t *testing.T) {
	p := linearPlan()
	require.NoError(t, p.Advance("a", session.StepSkipped, nil, "not needed"))

	ready := p.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, "b", ready[0].ID)
}

func TestPlan_Ready_FailedDependencyDoesNotUnblock(t *testing.T) {
	p := linearPlan()
	require.NoError(t, p.Advance("a", session.StepFailed, nil, "boom"))

	assert.Empty(t, p.Ready())
}

func TestPlan_Advance_UnknownStepErrors(t *testing.T) {
	p := linearPlan()
	err := p.Advance("ghost", session.StepCompleted, nil, "")
	assert.Error(t, err)
}

func TestPlan_Done_FalseUntilAllTerminal(t *testing.T) {
	p := linearPlan()
	assert.False(t, p.Done())

	require.NoError(t, p.Advance("a", session.StepCompleted, nil, ""))
	require.NoError(t, p.Advance("b", session.StepCompleted, nil, ""))
	assert.False(t, p.Done())

	require.NoError(t, p.Advance("c", session.StepFailed, nil, "bad input"))
	assert.True(t, p.Done())
}
