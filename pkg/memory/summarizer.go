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

package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// Summarizer condenses a batch of messages into a short summary and
// knows how to fold a new summary into an existing one. Compress uses
// both operations; max summary length is advisory (see DESIGN.md Open
// Question 1): implementations are asked to respect it but it is not
// enforced as a hard cap on the model's output.
type Summarizer interface {
	Summarize(ctx context.Context, msgs []message.ChatMessage, maxLen int) (string, error)
	MergeSummaries(ctx context.Context, existing, incoming string, maxLen int) (string, error)
}

// LLMSummarizer implements Summarizer by prompting an llm.Provider.
type LLMSummarizer struct {
	Provider llm.Provider
}

// NewLLMSummarizer builds a Summarizer backed by provider.
func NewLLMSummarizer(provider llm.Provider) *LLMSummarizer {
	return &LLMSummarizer{Provider: provider}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, msgs []message.ChatMessage, maxLen int) (string, error) {
	var b strings.Builder
	b.WriteString("Summarize the following conversation excerpt concisely, preserving facts, decisions, and open questions.")
	if maxLen > 0 {
		fmt.Fprintf(&b, " Aim for under %d tokens.", maxLen)
	}
	b.WriteString("\n\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	resp, err := s.Provider.Complete(ctx, []message.ChatMessage{message.User(b.String())}, llm.Config{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (s *LLMSummarizer) MergeSummaries(ctx context.Context, existing, incoming string, maxLen int) (string, error) {
	if existing == "" {
		return incoming, nil
	}
	var b strings.Builder
	b.WriteString("Merge these two summaries of the same ongoing conversation into a single updated summary, preserving everything load-bearing from both.")
	if maxLen > 0 {
		fmt.Fprintf(&b, " Aim for under %d tokens.", maxLen)
	}
	fmt.Fprintf(&b, "\n\nExisting summary:\n%s\n\nNew information:\n%s\n", existing, incoming)

	resp, err := s.Provider.Complete(ctx, []message.ChatMessage{message.User(b.String())}, llm.Config{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
