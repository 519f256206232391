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

package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/session"
)

// ChatStream runs one turn like Chat, but streams the main LLM path's
// content token-by-token over the returned channel (spec §6). Tool
// calls are never streamed piecewise: once the accumulated text
// parses as a tool directive the content chunks already emitted stand
// (the directive's own text included), and
// the call itself is reported as a single tool_call_start/tool_result
// pair, synchronous with execution, exactly as the non-streaming path
// sees it. The channel always ends with exactly one terminal chunk
// (done or error).
func (o *Orchestrator) ChatStream(ctx context.Context, text string) (<-chan session.StreamChunk, error) {
	out := make(chan session.StreamChunk, 16)

	go func() {
		defer close(out)

		o.turnMu.Lock()
		defer o.turnMu.Unlock()

		ctx, span := o.startTurnSpan(ctx, text)
		defer span.End()
		start := time.Now()

		stateID, allowedTools, allowedSkills, llmAlias, reflectionCfg, promptFragment, promptMode := o.turnScope()

		o.refreshContext(ctx)
		o.mem.Add(message.User(text))
		o.mem.ResetBudgetWarning()

		effectiveInput, shortCircuit, shortResp := o.resolveAmbiguity(ctx, stateID, text)
		if shortCircuit {
			o.mem.Add(message.Assistant(shortResp))
			out <- session.NewContentChunk(shortResp)
			out <- session.NewDoneChunk()
			o.recordTurnMetrics(session.FinishOther, start)
			return
		}

		if skillContent, ran := o.runSkillPath(ctx, allowedSkills, effectiveInput); ran {
			out <- session.NewContentChunk(skillContent)
			o.finishStreamedTurn(ctx, out, stateID, skillContent, nil, session.FinishStop, start)
			return
		}

		provider, err := o.resolveStateProvider(llmAlias)
		if err != nil {
			out <- session.NewErrorChunk(err.Error())
			o.recordTurnMetrics(session.FinishError, start)
			return
		}

		messages := o.assemblePrompt(promptMode, promptFragment, effectiveInput, allowedTools)
		cfg := o.llmConfigFor(llmAlias)

		content, toolCalls, finish, err := o.streamLLMWithTools(ctx, out, provider, messages, allowedTools, cfg, o.spec.MaxIterations)
		if err != nil {
			out <- session.NewErrorChunk(err.Error())
			o.recordTurnMetrics(session.FinishError, start)
			return
		}

		if reflectionCfg.IsEnabled() {
			content = o.applyReflection(ctx, reflectionCfg, content, func(ctx context.Context) (string, error) {
				retry, err := o.runLLMWithTools(ctx, provider, messages, allowedTools, cfg, o.spec.MaxIterations)
				if err != nil {
					return "", err
				}
				return retry.text, nil
			})
		}

		o.finishStreamedTurn(ctx, out, stateID, content, toolCalls, finish, start)
	}()

	return out, nil
}

// finishStreamedTurn performs spec §4.1 steps 8-11 and emits the
// terminal chunk, shared between the skill path and the LLM path.
func (o *Orchestrator) finishStreamedTurn(ctx context.Context, out chan<- session.StreamChunk, stateID, content string, toolCalls []session.ToolCallRecord, finish session.FinishReason, start time.Time) {
	o.mem.Add(message.Assistant(content))
	if err := o.mem.Compress(ctx, o.summarizer()); err != nil {
		slog.Warn("orchestrator: memory compression failed", "error", err)
	}
	o.enforceMemoryBudget(ctx)

	newState := stateID
	if o.machine != nil {
		newState = o.evaluateAndApplyTransition(ctx, stateID, content, content)
	}
	if newState != stateID {
		out <- session.NewStateTransitionChunk(stateID, newState)
	}

	if o.storageBackend != nil {
		if err := o.SaveState(ctx); err != nil {
			slog.Warn("orchestrator: snapshot persist failed", "error", err)
		}
	}

	out <- session.NewDoneChunk()
	o.recordTurnMetrics(finish, start)
}

// streamLLMWithTools mirrors runLLMWithTools but relays content chunks
// to out as they arrive from the provider, and reports each tool
// round trip as start/result chunk pairs instead of looping silently.
func (o *Orchestrator) streamLLMWithTools(ctx context.Context, out chan<- session.StreamChunk, provider llm.Provider, messages []message.ChatMessage, allowedTools []string, cfg llm.Config, maxIterations int) (string, []session.ToolCallRecord, session.FinishReason, error) {
	isAllowed := o.toolAllowance(allowedTools)
	var calls []session.ToolCallRecord

	for iteration := 1; ; iteration++ {
		chunks, err := provider.CompleteStream(ctx, messages, cfg)
		if err != nil {
			return "", calls, session.FinishError, err
		}

		var b strings.Builder
		for c := range chunks {
			if c.Text != "" {
				b.WriteString(c.Text)
				out <- session.NewContentChunk(c.Text)
			}
		}
		text := b.String()

		if !isBareToolName(text) {
			return text, calls, session.FinishStop, nil
		}
		directive, ok := parseToolDirective(text, isAllowed)
		if !ok {
			return text, calls, session.FinishStop, nil
		}
		if iteration >= maxIterations {
			return text, calls, session.FinishLength, nil
		}

		out <- session.NewToolCallStartChunk(directive.Tool, directive.Tool)
		messages = append(messages, message.Assistant(text))
		record, toolMsg := o.invokeTool(ctx, directive)
		calls = append(calls, record)
		messages = append(messages, toolMsg)
		out <- session.NewToolResultChunk(directive.Tool, directive.Tool, record.Output, record.Success)
	}
}
