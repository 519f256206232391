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

// Package httpprovider implements llm.Provider against any server
// speaking the OpenAI-compatible chat-completions wire format (the
// lowest common denominator among self-hosted model servers and
// vendor-neutral proxies). It is the one concrete, network-speaking
// llm.Provider this module ships; specific vendor wire codecs remain
// out of scope (see spec §1) and are expected to implement the same
// llm.Provider interface externally.
package httpprovider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/agentrt/internal/httpclient"
	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// Provider talks to an OpenAI-compatible /chat/completions endpoint.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	model   string
}

// Option configures a Provider.
type Option func(*Provider)

// WithAPIKey sets the bearer token sent as Authorization: Bearer <key>.
func WithAPIKey(key string) Option {
	return func(p *Provider) { p.apiKey = key }
}

// WithTimeout overrides the default 60s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.client = httpclient.New(d) }
}

// New builds a Provider targeting baseURL (e.g. "http://localhost:11434/v1")
// for the given model name.
func New(baseURL, model string, opts ...Option) *Provider {
	p := &Provider{
		client:  httpclient.New(60 * time.Second),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ModelName() string { return p.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	Delta        chatMessage `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

func toWireMessages(messages []message.ChatMessage) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func finishReason(raw string) llm.FinishReason {
	switch raw {
	case "length":
		return llm.FinishLength
	case "tool_calls":
		return llm.FinishToolCalls
	case "":
		return llm.FinishStop
	default:
		return llm.FinishStop
	}
}

func (p *Provider) newRequest(ctx context.Context, body any) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindLLM, "httpprovider: encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindLLM, "httpprovider: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	return req, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, messages []message.ChatMessage, cfg llm.Config) (llm.Response, error) {
	model := p.model
	if cfg.Model != "" {
		model = cfg.Model
	}
	req, err := p.newRequest(ctx, chatRequest{
		Model:       model,
		Messages:    toWireMessages(messages),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return llm.Response{}, err
	}

	body, _, err := p.client.Do(ctx, req)
	if err != nil {
		return llm.Response{}, classifyTransportErr(err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Response{}, agenterr.Wrap(agenterr.KindLLM, "httpprovider: decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return llm.Response{}, agenterr.New(agenterr.KindLLM, "httpprovider: empty choices in response")
	}

	choice := parsed.Choices[0]
	return llm.Response{
		Text:         choice.Message.Content,
		FinishReason: finishReason(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

// CompleteStream implements llm.Provider using the server-sent-events
// "data: {...}" framing OpenAI-compatible servers use for streaming.
func (p *Provider) CompleteStream(ctx context.Context, messages []message.ChatMessage, cfg llm.Config) (<-chan llm.Chunk, error) {
	model := p.model
	if cfg.Model != "" {
		model = cfg.Model
	}
	req, err := p.newRequest(ctx, chatRequest{
		Model:       model,
		Messages:    toWireMessages(messages),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.client.HTTP.Do(req)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, agenterr.Newf(agenterr.KindLLM, "httpprovider: stream request failed with status %d", resp.StatusCode)
	}

	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var parsed chatResponse
			if err := json.Unmarshal([]byte(payload), &parsed); err != nil || len(parsed.Choices) == 0 {
				continue
			}
			choice := parsed.Choices[0]

			select {
			case out <- llm.Chunk{Text: choice.Delta.Content}:
			case <-ctx.Done():
				return
			}

			if choice.FinishReason != "" {
				select {
				case out <- llm.Chunk{
					Final:        true,
					FinishReason: finishReason(choice.FinishReason),
					Usage: llm.Usage{
						PromptTokens:     parsed.Usage.PromptTokens,
						CompletionTokens: parsed.Usage.CompletionTokens,
						TotalTokens:      parsed.Usage.TotalTokens,
					},
				}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	return out, nil
}

func classifyTransportErr(err error) error {
	var re *httpclient.RetryableError
	if ok := asRetryable(err, &re); ok {
		switch {
		case re.StatusCode == 401 || re.StatusCode == 403:
			return agenterr.Wrapf(agenterr.KindLLM, re, "httpprovider: invalid api key (status %d)", re.StatusCode)
		case re.StatusCode == 429:
			return agenterr.Wrapf(agenterr.KindLLM, re, "httpprovider: rate limited (status %d)", re.StatusCode)
		case re.StatusCode >= 500:
			return agenterr.Wrapf(agenterr.KindLLM, re, "httpprovider: server error (status %d)", re.StatusCode)
		default:
			return agenterr.Wrapf(agenterr.KindLLM, re, "httpprovider: request error (status %d)", re.StatusCode)
		}
	}
	return agenterr.Wrap(agenterr.KindLLM, "httpprovider: connection error", err)
}

func asRetryable(err error, target **httpclient.RetryableError) bool {
	re, ok := err.(*httpclient.RetryableError)
	if !ok {
		return false
	}
	*target = re
	return true
}
