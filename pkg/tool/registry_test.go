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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/tool"
)

type stubTool struct {
	id string
}

func (s stubTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{ID: s.id, DisplayName: s.id, Description: "stub " + s.id}
}

func (s stubTool) Execute(context.Context, map[string]any) (tool.Result, error) {
	return tool.Result{Output: "ok", Success: true}, nil
}

type stubProvider struct {
	name  string
	trust tool.TrustLevel
	tools []tool.Tool
}

func (p stubProvider) Name() string              { return p.name }
func (p stubProvider) TrustLevel() tool.TrustLevel { return p.trust }
func (p stubProvider) Tools(context.Context) ([]tool.Tool, error) { return p.tools, nil }

func TestRegistry_RegisterAndFind(t *testing.T) {
	r := tool.NewRegistry()
	p := stubProvider{name: "builtin", trust: tool.TrustFull, tools: []tool.Tool{stubTool{id: "calculator"}}}

	require.NoError(t, r.RegisterProvider(context.Background(), p))

	found, err := r.Find("calculator")
	require.NoError(t, err)
	assert.Equal(t, "calculator", found.Descriptor().ID)
}

func TestRegistry_DuplicateIDFails(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, r.RegisterTool(stubTool{id: "calculator"}, stubProvider{name: "a"}))
	err := r.RegisterTool(stubTool{id: "calculator"}, stubProvider{name: "b"})
	require.Error(t, err)
}

func TestRegistry_FindMissingIsToolError(t *testing.T) {
	r := tool.NewRegistry()
	_, err := r.Find("nope")
	require.Error(t, err)
}

func TestCatalogue_FiltersToAllowedIDs(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, r.RegisterTool(stubTool{id: "calculator"}, stubProvider{name: "a"}))
	require.NoError(t, r.RegisterTool(stubTool{id: "httpfetch"}, stubProvider{name: "a"}))

	out := tool.Catalogue(r, []string{"calculator"})
	assert.Contains(t, out, "calculator")
	assert.NotContains(t, out, "httpfetch")
}

func TestCatalogue_EmptyAllowListIncludesEverything(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, r.RegisterTool(stubTool{id: "calculator"}, stubProvider{name: "a"}))
	require.NoError(t, r.RegisterTool(stubTool{id: "httpfetch"}, stubProvider{name: "a"}))

	out := tool.Catalogue(r, nil)
	assert.Contains(t, out, "calculator")
	assert.Contains(t, out, "httpfetch")
}
