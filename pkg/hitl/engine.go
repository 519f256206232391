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

package hitl

import (
	"context"
	"strings"
	"time"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/template"
)

// Engine consults the configured gates before a tool call, state
// transition, or named condition is allowed to proceed, and drives the
// configured ApprovalHandler to resolve any that apply. The
// orchestrator holds one Engine per agent (shared across sessions);
// Engine itself carries no per-turn state.
type Engine struct {
	Config   HITLConfig
	Handler  ApprovalHandler
	Registry *llm.Registry
	resolver MessageResolver
}

// NewEngine builds an Engine. A nil handler defaults to RejectAllHandler
// so a misconfigured agent fails closed rather than silently skipping
// every gate.
func NewEngine(cfg HITLConfig, handler ApprovalHandler, registry *llm.Registry) *Engine {
	if handler == nil {
		handler = NewRejectAllHandler()
	}
	return &Engine{
		Config:   cfg,
		Handler:  handler,
		Registry: registry,
		resolver: NewMessageResolver(cfg.Language),
	}
}

// CheckTool reports whether a call to tool with args needs approval.
func (e *Engine) CheckTool(ctx context.Context, toolName string, args map[string]any) (CheckResult, error) {
	if !e.Config.Enabled {
		return NotRequired(), nil
	}
	for _, gate := range e.Config.Tools {
		if gate.Tool != toolName {
			continue
		}
		if gate.Condition != "" {
			matched, err := e.evaluatePredicate(ctx, gate.Condition, map[string]any{"tool": toolName, "args": args})
			if err != nil {
				return CheckResult{}, err
			}
			if !matched {
				continue
			}
		}
		return e.toolCheck(ctx, gate, toolName, args), nil
	}
	return NotRequired(), nil
}

// CheckState reports whether a transition from "from" to "to" needs
// approval. from is empty for the machine's initial entry.
func (e *Engine) CheckState(ctx context.Context, from, to string) CheckResult {
	if !e.Config.Enabled {
		return NotRequired()
	}
	for _, gate := range e.Config.States {
		if gate.State != to {
			continue
		}
		switch gate.Trigger {
		case StateTriggerOnEnter:
		case StateTriggerOnExit:
			continue // gate.State names the state being left; CheckState here is entry-only
		case StateTriggerTransition:
			if gate.From != "" && gate.From != from {
				continue
			}
		}
		return e.stateCheck(ctx, gate, from, to)
	}
	return NotRequired()
}

// CheckStateExit reports whether leaving "from" needs approval, for
// StateTriggerOnExit gates (CheckState covers on_enter/transition).
func (e *Engine) CheckStateExit(ctx context.Context, from, to string) CheckResult {
	if !e.Config.Enabled {
		return NotRequired()
	}
	for _, gate := range e.Config.States {
		if gate.State != from || gate.Trigger != StateTriggerOnExit {
			continue
		}
		return e.stateCheck(ctx, gate, from, to)
	}
	return NotRequired()
}

// CheckCondition reports whether the named free-form condition needs
// approval, given matched (the text that satisfied it).
func (e *Engine) CheckCondition(ctx context.Context, name, matched string) CheckResult {
	if !e.Config.Enabled {
		return NotRequired()
	}
	for _, gate := range e.Config.Conditions {
		if gate.Name != name {
			continue
		}
		trigger := ConditionTrigger(name, matched)
		ctxData := map[string]any{"condition": name, "matched": matched}
		msg, err := e.renderMessage(ctx, gate.Message, ctxData)
		if err != nil {
			msg = gate.Name
		}
		return RequireApproval(trigger, ctxData,
			msg,
			time.Duration(e.Config.effectiveTimeoutSeconds(gate.TimeoutSeconds))*time.Second)
	}
	return NotRequired()
}

func (e *Engine) toolCheck(ctx context.Context, gate ToolApprovalConfig, toolName string, args map[string]any) CheckResult {
	ctxData := map[string]any{"tool": toolName, "args": args}
	msg, err := e.renderMessage(ctx, gate.Message, ctxData)
	if err != nil {
		msg = "Approve call to " + toolName + "?"
	}
	return RequireApproval(ToolTrigger(toolName, args), ctxData,
		msg,
		time.Duration(e.Config.effectiveTimeoutSeconds(gate.TimeoutSeconds))*time.Second)
}

func (e *Engine) stateCheck(ctx context.Context, gate StateApprovalConfig, from, to string) CheckResult {
	ctxData := map[string]any{"from": from, "to": to}
	msg, err := e.renderMessage(ctx, gate.Message, ctxData)
	if err != nil {
		msg = "Approve transition to " + to + "?"
	}
	return RequireApproval(StateTrigger(from, to), ctxData,
		msg,
		time.Duration(e.Config.effectiveTimeoutSeconds(gate.TimeoutSeconds))*time.Second)
}

// renderMessage resolves msg for the language the resolver picks for
// the engine's handler (see ResolveBestLanguage) and
// renders it: a static Template is rendered via pkg/template against
// ctxData, a Generate spec asks an LLM to compose prose instead.
func (e *Engine) renderMessage(ctx context.Context, msg ApprovalMessage, ctxData map[string]any) (string, error) {
	if msg.Generate != nil {
		return e.generateMessage(ctx, *msg.Generate, ctxData)
	}
	lang := e.resolver.ResolveBestLanguage(e.Handler)
	text := e.resolver.ResolveToolMessage(msg, lang)
	if text == "" {
		return "", nil
	}
	return template.Render(text, template.Vars{Context: ctxData})
}

func (e *Engine) generateMessage(ctx context.Context, gen LlmGenerateConfig, ctxData map[string]any) (string, error) {
	alias := gen.LLM
	if alias == "" {
		alias = "router"
	}
	provider, err := e.Registry.Resolve(alias)
	if err != nil {
		return "", err
	}
	rendered, err := template.Render(gen.Prompt, template.Vars{Context: ctxData})
	if err != nil {
		return "", err
	}
	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(rendered)}, llm.Config{})
	if err != nil {
		return "", agenterr.Wrap(agenterr.KindLLM, "hitl: generate approval message", err)
	}
	return resp.Text, nil
}

func (e *Engine) evaluatePredicate(ctx context.Context, predicate string, ctxData map[string]any) (bool, error) {
	provider, err := e.Registry.Router()
	if err != nil {
		return false, err
	}
	rendered, err := template.Render(predicate, template.Vars{Context: ctxData})
	if err != nil {
		return false, err
	}
	prompt := "Evaluate this condition and respond with only \"yes\" or \"no\": " + rendered
	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(prompt)}, llm.Config{})
	if err != nil {
		return false, agenterr.Wrap(agenterr.KindLLM, "hitl: evaluate predicate", err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(resp.Text)), "yes"), nil
}

// RequestApproval drives the configured handler to resolve request,
// honouring its timeout (falling back to the engine's configured
// default action when the handler does not answer in time).
func (e *Engine) RequestApproval(ctx context.Context, request ApprovalRequest, gateTimeoutAction TimeoutAction) (ApprovalResult, error) {
	if request.Timeout <= 0 {
		return e.Handler.RequestApproval(ctx, request), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, request.Timeout)
	defer cancel()

	resultCh := make(chan ApprovalResult, 1)
	go func() {
		resultCh <- e.Handler.RequestApproval(callCtx, request)
	}()

	select {
	case result := <-resultCh:
		return result, nil
	case <-callCtx.Done():
		return e.onTimeout(gateTimeoutAction), nil
	}
}

func (e *Engine) onTimeout(gateAction TimeoutAction) ApprovalResult {
	switch e.Config.effectiveTimeoutAction(gateAction) {
	case TimeoutApprove:
		return Approved()
	case TimeoutEscalate:
		return Timeout()
	case TimeoutReject:
		fallthrough
	default:
		return Rejected("approval timed out")
	}
}
