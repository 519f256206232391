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

// Package llm presents a single LLM surface to the orchestrator: a
// Provider primary completion contract, a Registry resolving named
// aliases to providers, and a Router layering typed capability calls
// (tool selection, tool-argument generation, yes/no evaluation,
// classification, task processing) on top of any Provider.
package llm

import (
	"context"

	"github.com/kadirpekel/agentrt/pkg/message"
)

// Config tunes a single completion call. Zero values mean "use the
// provider's default".
type Config struct {
	Temperature float64
	MaxTokens   int
	Model       string
}

// FinishReason describes why a completion stopped.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool_calls"
	FinishError     FinishReason = "error"
)

// Usage reports token accounting for a completion, when the provider
// exposes it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the result of a non-streaming completion.
type Response struct {
	Text         string
	FinishReason FinishReason
	Usage        Usage
}

// Chunk is one increment of a streaming completion. Final chunks carry
// FinishReason and Usage; intermediate chunks carry only Text.
type Chunk struct {
	Text         string
	Final        bool
	FinishReason FinishReason
	Usage        Usage
}

// Provider is the primary completion contract every LLM backend
// implements. Specialised capabilities in Router are derived on top of
// any Provider — a provider never needs to know about tool selection,
// classification, etc.
type Provider interface {
	Complete(ctx context.Context, messages []message.ChatMessage, cfg Config) (Response, error)
	CompleteStream(ctx context.Context, messages []message.ChatMessage, cfg Config) (<-chan Chunk, error)
	ModelName() string
}
