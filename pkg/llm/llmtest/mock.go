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

// Package llmtest provides a scriptable llm.Provider fake for tests
// across the module, mirroring the teacher's MockLLMProvider pattern.
package llmtest

import (
	"context"
	"sync"

	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// Provider is a scriptable llm.Provider. Responses is consumed in
// order by successive Complete calls; once exhausted, the last entry
// repeats. Err, if set, is returned by the next Complete call instead
// of a response (and is then cleared).
type Provider struct {
	mu        sync.Mutex
	Model     string
	Responses []llm.Response
	Err       error
	Calls     []CallRecord
}

// CallRecord captures one Complete invocation for assertions.
type CallRecord struct {
	Messages []message.ChatMessage
	Config   llm.Config
}

// New builds a Provider that returns text verbatim on every call.
func New(model string, texts ...string) *Provider {
	p := &Provider{Model: model}
	for _, t := range texts {
		p.Responses = append(p.Responses, llm.Response{Text: t, FinishReason: llm.FinishStop})
	}
	return p
}

func (p *Provider) ModelName() string { return p.Model }

func (p *Provider) Complete(_ context.Context, messages []message.ChatMessage, cfg llm.Config) (llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, CallRecord{Messages: messages, Config: cfg})

	if p.Err != nil {
		err := p.Err
		p.Err = nil
		return llm.Response{}, err
	}

	if len(p.Responses) == 0 {
		return llm.Response{FinishReason: llm.FinishStop}, nil
	}
	idx := len(p.Calls) - 1
	if idx >= len(p.Responses) {
		idx = len(p.Responses) - 1
	}
	return p.Responses[idx], nil
}

func (p *Provider) CompleteStream(ctx context.Context, messages []message.ChatMessage, cfg llm.Config) (<-chan llm.Chunk, error) {
	resp, err := p.Complete(ctx, messages, cfg)
	if err != nil {
		return nil, err
	}
	out := make(chan llm.Chunk, 2)
	out <- llm.Chunk{Text: resp.Text}
	out <- llm.Chunk{Final: true, FinishReason: resp.FinishReason, Usage: resp.Usage}
	close(out)
	return out, nil
}
