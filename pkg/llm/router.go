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

package llm

import (
	"context"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// Router presents a single capability surface to the orchestrator,
// holding a primary provider plus optional specialised providers for
// tool selection, guard (yes/no) evaluation, and classification. Each
// capability call dispatches to its specialised provider if set,
// otherwise to primary. ProcessTask always uses primary.
type Router struct {
	Primary        Provider
	ToolSelector   Provider // optional
	GuardEvaluator Provider // optional
	Classifier     Provider // optional
	EnableFallback bool     // retry a failed specialised call on primary
}

// NewRouter builds a Router with only a primary provider configured.
func NewRouter(primary Provider) *Router {
	return &Router{Primary: primary}
}

// ProcessTask is the default main-response path; it always uses the
// primary provider.
func (r *Router) ProcessTask(ctx context.Context, messages []message.ChatMessage, cfg Config) (Response, error) {
	if r.Primary == nil {
		return Response{}, agenterr.New(agenterr.KindConfig, "llm: router has no primary provider")
	}
	return r.Primary.Complete(ctx, messages, cfg)
}

// ProcessTaskStream streams the default main-response path from the
// primary provider.
func (r *Router) ProcessTaskStream(ctx context.Context, messages []message.ChatMessage, cfg Config) (<-chan Chunk, error) {
	if r.Primary == nil {
		return nil, agenterr.New(agenterr.KindConfig, "llm: router has no primary provider")
	}
	return r.Primary.CompleteStream(ctx, messages, cfg)
}

// SelectTool renders a tool-selection prompt and requires a typed
// ToolSelection response.
func (r *Router) SelectTool(ctx context.Context, input string, tools []ToolCatalogEntry) (ToolSelection, error) {
	prompt := buildToolSelectionPrompt(input, tools)
	var out ToolSelection
	err := r.dispatch(ctx, r.ToolSelector, prompt, &out)
	return out, err
}

// GenerateToolArgs renders a tool-argument-generation prompt and
// requires schema-conformant JSON decoded into out.
func (r *Router) GenerateToolArgs(ctx context.Context, toolID, input, schemaJSON string, out any) error {
	prompt := buildToolArgsPrompt(toolID, input, schemaJSON)
	return r.dispatch(ctx, r.ToolSelector, prompt, out)
}

// EvaluateYesNo renders a yes/no prompt and requires a typed YesNo
// response. Used by guard conditions and transition evaluation.
func (r *Router) EvaluateYesNo(ctx context.Context, question, context_ string) (YesNo, error) {
	prompt := buildYesNoPrompt(question, context_)
	var out YesNo
	err := r.dispatch(ctx, r.GuardEvaluator, prompt, &out)
	return out, err
}

// Classify renders a classification prompt over a closed category list
// and requires a typed Classification response.
func (r *Router) Classify(ctx context.Context, input string, categories []string) (Classification, error) {
	prompt := buildClassifyPrompt(input, categories)
	var out Classification
	err := r.dispatch(ctx, r.Classifier, prompt, &out)
	return out, err
}

// dispatch sends prompt to specialised (if non-nil) else Primary, and
// extracts JSON into out. If EnableFallback is set and specialised
// fails with any error, it retries once on Primary.
func (r *Router) dispatch(ctx context.Context, specialised Provider, prompt string, out any) error {
	provider := specialised
	if provider == nil {
		provider = r.Primary
	}
	if provider == nil {
		return agenterr.New(agenterr.KindConfig, "llm: router has no provider available for capability call")
	}

	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(prompt)}, Config{})
	if err != nil {
		if specialised != nil && r.EnableFallback && r.Primary != nil && r.Primary != specialised {
			resp, err = r.Primary.Complete(ctx, []message.ChatMessage{message.User(prompt)}, Config{})
		}
		if err != nil {
			return agenterr.Wrap(agenterr.KindLLM, "llm: capability call failed", err)
		}
	}

	return ExtractJSON(resp.Text, out)
}
