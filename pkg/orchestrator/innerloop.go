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
	"encoding/json"

	"github.com/kadirpekel/agentrt/pkg/hitl"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/recovery"
	"github.com/kadirpekel/agentrt/pkg/session"
)

// turnOutcome is the inner tool loop's result: the final assistant
// text, every tool call made along the way, and why the loop stopped.
type turnOutcome struct {
	text      string
	toolCalls []session.ToolCallRecord
	finish    session.FinishReason
}

// runLLMWithTools drives spec §4.1 step 6: call the LLM, and while its
// response parses as a registered tool-call directive, execute the
// tool (subject to HITL approval) and re-call, up to maxIterations.
// isBareToolName is used as a cheap pre-filter so plainly tool-free
// responses never pay the cost of scanning for balanced JSON spans.
func (o *Orchestrator) runLLMWithTools(ctx context.Context, provider llm.Provider, messages []message.ChatMessage, allowedTools []string, cfg llm.Config, maxIterations int) (turnOutcome, error) {
	isAllowed := o.toolAllowance(allowedTools)

	var calls []session.ToolCallRecord
	for iteration := 1; ; iteration++ {
		resp, err := recovery.WithRetry(ctx, o.recoveryMgr, "llm.complete", nil, func(ctx context.Context) (llm.Response, error) {
			return provider.Complete(ctx, messages, cfg)
		})
		if err != nil {
			return turnOutcome{toolCalls: calls, finish: session.FinishError}, err
		}

		if !isBareToolName(resp.Text) {
			return turnOutcome{text: resp.Text, toolCalls: calls, finish: session.FinishStop}, nil
		}
		directive, ok := parseToolDirective(resp.Text, isAllowed)
		if !ok {
			return turnOutcome{text: resp.Text, toolCalls: calls, finish: session.FinishStop}, nil
		}
		if iteration >= maxIterations {
			return turnOutcome{text: resp.Text, toolCalls: calls, finish: session.FinishLength}, nil
		}

		messages = append(messages, message.Assistant(resp.Text))
		record, toolMsg := o.invokeTool(ctx, directive)
		calls = append(calls, record)
		messages = append(messages, toolMsg)
	}
}

// toolAllowance builds the isRegistered predicate parseToolDirective
// needs: a tool id must both be registered in the tool registry and,
// when the current state scopes tools, be in its allow-list.
func (o *Orchestrator) toolAllowance(allowed []string) func(id string) bool {
	allow := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allow[id] = true
	}
	return func(id string) bool {
		if len(allow) > 0 && !allow[id] {
			return false
		}
		_, err := o.tools.Find(id)
		return err == nil
	}
}

// invokeTool runs one tool directive end to end: HITL gate, harness
// execution (security policy + timeout), and the tool-role message to
// append to the transcript. Every failure path still returns a tool
// message (never silently drops the round trip) so the LLM sees what
// happened and can recover on the next iteration.
func (o *Orchestrator) invokeTool(ctx context.Context, directive toolDirective) (session.ToolCallRecord, message.ChatMessage) {
	ctx, span := o.startToolSpan(ctx, directive.Tool)
	defer span.End()

	args := directive.Arguments
	if o.hitlEngine != nil {
		check, err := o.hitlEngine.CheckTool(ctx, directive.Tool, args)
		if err == nil {
			if req, required := check.IntoRequest(); required {
				result, err := o.hitlEngine.RequestApproval(ctx, req, hitl.TimeoutReject)
				if err != nil || !result.IsApproved() {
					reason := "tool call rejected"
					if err != nil {
						reason = err.Error()
					} else if result.Reason != "" {
						reason = result.Reason
					}
					return toolFailureRecord(directive.Tool, args, reason), toolErrorMessage(directive.Tool, reason)
				}
				if result.Status == hitl.StatusModified && result.Changes != nil {
					args = result.Changes
				}
			}
		}
	}

	t, err := o.tools.Find(directive.Tool)
	if err != nil {
		return toolFailureRecord(directive.Tool, args, err.Error()), toolErrorMessage(directive.Tool, err.Error())
	}

	result, err := o.harness.Execute(ctx, t, args)
	if err != nil {
		return toolFailureRecord(directive.Tool, args, err.Error()), toolErrorMessage(directive.Tool, err.Error())
	}

	record := session.ToolCallRecord{
		Name:      directive.Tool,
		Arguments: args,
		Output:    result.Output,
		Success:   result.Success,
		Error:     result.Error,
	}
	payload, _ := json.Marshal(map[string]any{"output": result.Output, "success": result.Success})
	return record, message.Tool(directive.Tool, string(payload))
}

func toolFailureRecord(toolID string, args map[string]any, reason string) session.ToolCallRecord {
	return session.ToolCallRecord{Name: toolID, Arguments: args, Success: false, Error: reason}
}

func toolErrorMessage(toolID, reason string) message.ChatMessage {
	payload, _ := json.Marshal(map[string]any{"error": reason})
	return message.Tool(toolID, string(payload))
}
