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

// Package message defines the role-tagged chat message primitive shared by
// every other package in the runtime: memory, the LLM router, the state
// machine evaluator, and the orchestrator all exchange ChatMessage values.
package message

import "time"

// Role identifies who produced a ChatMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleFunction  Role = "function"
)

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleFunction:
		return true
	default:
		return false
	}
}

// ChatMessage is a role-tagged utterance. It is immutable after creation;
// callers that need to "edit" a message must build a new one.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// New builds a ChatMessage, stamping the timestamp at creation time.
func New(role Role, content string) ChatMessage {
	return ChatMessage{Role: role, Content: content, Timestamp: time.Now()}
}

// System builds a system-role message.
func System(content string) ChatMessage { return New(RoleSystem, content) }

// User builds a user-role message.
func User(content string) ChatMessage { return New(RoleUser, content) }

// Assistant builds an assistant-role message.
func Assistant(content string) ChatMessage { return New(RoleAssistant, content) }

// Tool builds a tool-role message carrying the tool's name.
func Tool(name, content string) ChatMessage {
	m := New(RoleTool, content)
	m.Name = name
	return m
}

// WithName returns a copy of m with Name set. Since ChatMessage is meant to
// be immutable after construction, this is the supported way to attach a
// name after building one with New/System/User/Assistant.
func (m ChatMessage) WithName(name string) ChatMessage {
	m.Name = name
	return m
}
