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

package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/registry"
)

// Entry pairs a registered Tool with the Provider and trust level it
// came from, mirroring the teacher's ToolEntry{Tool,Source,SourceType}
// shape.
type Entry struct {
	Tool       Tool
	Provider   string
	TrustLevel TrustLevel
}

// Registry maps tool id to a shared Entry. Registration is exclusive:
// a duplicate id is an error.
type Registry struct {
	*registry.BaseRegistry[Entry]
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Entry]()}
}

// RegisterTool registers t, sourced from provider p, under its
// descriptor id. Duplicate ids are rejected.
func (r *Registry) RegisterTool(t Tool, p Provider) error {
	id := t.Descriptor().ID
	if id == "" {
		return agenterr.New(agenterr.KindInvalidSpec, "tool: descriptor id cannot be empty")
	}
	entry := Entry{Tool: t, Provider: p.Name(), TrustLevel: p.TrustLevel()}
	if err := r.Register(id, entry); err != nil {
		return agenterr.Wrapf(agenterr.KindInvalidSpec, err, "tool: register %q", id)
	}
	return nil
}

// RegisterProvider discovers and registers every tool a Provider
// exposes.
func (r *Registry) RegisterProvider(ctx context.Context, p Provider) error {
	tools, err := p.Tools(ctx)
	if err != nil {
		return agenterr.Wrapf(agenterr.KindTool, err, "tool: discover tools from provider %q", p.Name())
	}
	for _, t := range tools {
		if err := r.RegisterTool(t, p); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the tool registered under id, or a Tool-kind error.
func (r *Registry) Find(id string) (Tool, error) {
	entry, ok := r.Get(id)
	if !ok {
		return nil, agenterr.Newf(agenterr.KindTool, "tool: %q is not registered", id)
	}
	return entry.Tool, nil
}

// Catalogue renders a natural-language tool catalogue plus the JSON
// invocation contract an LLM must emit, filtered to allowed (empty =
// all), sorted by id for determinism.
func Catalogue(reg *Registry, allowed []string) string {
	allow := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allow[id] = true
	}

	ids := make([]string, 0)
	for _, entry := range reg.List() {
		d := entry.Tool.Descriptor()
		if len(allow) > 0 && !allow[d.ID] {
			continue
		}
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, id := range ids {
		entry, _ := reg.Get(id)
		d := entry.Tool.Descriptor()
		fmt.Fprintf(&b, "- %s (%s): %s\n", d.ID, d.DisplayName, d.Description)
	}
	b.WriteString("\nTo invoke a tool, include this JSON object anywhere in your response: ")
	b.WriteString(`{"tool": string, "arguments": object}`)
	b.WriteString("\n")
	return b.String()
}
