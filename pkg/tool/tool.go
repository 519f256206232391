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

// Package tool defines the contract a tool satisfies, the registry that
// maps tool id to a shared instance, and a Provider abstraction that
// lets tools be sourced from built-ins, YAML declarations, MCP servers,
// out-of-process executables, or any other origin without the registry
// caring which.
package tool

import "context"

// TrustLevel is the default trust a Provider assigns its tools. The
// registry records it on each Entry; the security policy (security.go)
// does not consult it, and Harness applies DefaultSecurityPolicy to any
// tool without an explicit policy whatever its trust level.
type TrustLevel string

const (
	TrustFull      TrustLevel = "full"
	TrustHigh      TrustLevel = "high"
	TrustMedium    TrustLevel = "medium"
	TrustSandboxed TrustLevel = "sandboxed"
	TrustLow       TrustLevel = "low"
)

// Result is the outcome of a tool execution.
type Result struct {
	Output  any
	Success bool
	Error   string
}

// Descriptor describes a tool to the LLM capability layer: its
// identity and its JSON Schema input contract.
type Descriptor struct {
	ID          string
	DisplayName string
	Description string
	InputSchema map[string]any
}

// Tool is the contract of a single invocable capability. Tools are
// stateless with respect to agent turns: any internal resources (HTTP
// client, file sandbox) live inside the tool instance itself, not in
// the call.
type Tool interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Provider sources one or more Tools from an origin (built-in set,
// YAML declarations, MCP server, out-of-process plugin, sandboxed
// runtime, HTTP API, ...) and declares the default trust level its
// tools should be treated with.
type Provider interface {
	Name() string
	TrustLevel() TrustLevel
	Tools(ctx context.Context) ([]Tool, error)
}
