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

// Package orchestrator implements the turn orchestrator: the single
// entry point that drives one conversational turn through context
// refresh, disambiguation, skill routing, the LLM-plus-tools loop,
// reflection, memory compaction, state transition, and persistence
// (spec §4.1). Everything else in the runtime — memory, the LLM
// router, the tool registry and harness, the skill executor, HITL,
// disambiguation, recovery, storage — is wired together here rather
// than owning any turn-level control flow itself.
package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/config"
	"github.com/kadirpekel/agentrt/pkg/disambiguation"
	"github.com/kadirpekel/agentrt/pkg/hitl"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/metrics"
	"github.com/kadirpekel/agentrt/pkg/recovery"
	"github.com/kadirpekel/agentrt/pkg/session"
	"github.com/kadirpekel/agentrt/pkg/skill"
	"github.com/kadirpekel/agentrt/pkg/state"
	"github.com/kadirpekel/agentrt/pkg/storage"
	"github.com/kadirpekel/agentrt/pkg/tool"
)

// ContextCallback resolves a `kind: callback` context source; the host
// application registers these by name via Dependencies.Callbacks,
// since this package cannot know their implementation ahead of time.
type ContextCallback func(ctx context.Context) (any, error)

// Orchestrator is one running agent instance: its identity, its wired
// sub-components, and the mutable session state (memory, state
// machine position, pending clarification exchange, dynamic context
// cache) a turn reads and updates.
type Orchestrator struct {
	spec *config.AgentSpec

	llmRegistry   *llm.Registry
	machine       *state.Machine
	mem           *memory.ConversationMemory
	tools         *tool.Registry
	harness       *tool.Harness
	skillRouter   *skill.Router
	skillExecutor *skill.Executor
	disambiguator *disambiguation.Manager
	hitlEngine    *hitl.Engine
	recoveryMgr   *recovery.Manager
	storageBackend storage.Backend
	metrics       *metrics.Metrics
	tracer        trace.Tracer

	sessionID string

	// turnMu serializes Chat/ChatStream calls against a single
	// Orchestrator instance: the turn algorithm mutates mem, machine,
	// and the disambiguation/context caches in place, and none of
	// those types are meant to be driven by two turns at once.
	turnMu sync.Mutex

	dctx    *disambiguation.Context
	pending *pendingClarification

	contextMu          sync.Mutex
	contextValues      map[string]any
	contextOnceDone    map[string]struct{}
	contextSessionDone map[string]struct{}
	callbacks          map[string]ContextCallback
	httpClient         *http.Client
	runtimeContext     any
}

// Info is the agent's static identity, returned by Info().
type Info struct {
	Name        string
	Version     string
	Description string
}

// Info returns the agent's static identity.
func (o *Orchestrator) Info() Info {
	return Info{Name: o.spec.Name, Version: o.spec.Version, Description: o.spec.Description}
}

// Reset clears session-scoped state: memory, state machine position,
// the pending clarification exchange, and per-session context cache.
// Process-lifetime context (RefreshOnce entries) survives a Reset.
func (o *Orchestrator) Reset() {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.mem.Restore(memory.Snapshot{})
	if o.machine != nil {
		o.machine.Reset()
	}
	o.pending = nil
	o.dctx = disambiguation.NewContext()
	o.resetSessionContext()
}

// turnScope resolves the current state's prompt/LLM/tool/skill/
// reflection scoping, or state-machine-free defaults (no state id, no
// tool/LLM restriction, every skill a candidate, no reflection) when
// the agent was built without a state machine.
func (o *Orchestrator) turnScope() (stateID string, allowedTools, allowedSkills []string, llmAlias string, reflectionCfg *state.ReflectionConfig, promptFragment string, promptMode state.PromptMode) {
	if o.machine == nil {
		return "", nil, o.allSkillIDs(), "", nil, "", state.PromptAppend
	}
	stateID = o.machine.Current()
	def := o.machine.CurrentDefinition()
	return stateID, def.Tools, def.Skills, def.LLM, def.Reflection, def.Prompt, def.PromptMode
}

func (o *Orchestrator) allSkillIDs() []string {
	if o.skillRouter == nil {
		return nil
	}
	defs := o.skillRouter.Skills()
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}

// resolveAlias maps a possibly-empty state-level LLM override onto a
// concrete LLMs map key: the state's override if set, else the spec's
// nominated default.
func (o *Orchestrator) resolveAlias(stateAlias string) string {
	if stateAlias != "" {
		return stateAlias
	}
	return o.spec.LLM.Default
}

func (o *Orchestrator) resolveStateProvider(stateAlias string) (llm.Provider, error) {
	return o.llmRegistry.Resolve(o.resolveAlias(stateAlias))
}

func (o *Orchestrator) llmConfigFor(stateAlias string) llm.Config {
	cfg, ok := o.spec.LLMs[o.resolveAlias(stateAlias)]
	if !ok {
		return llm.Config{Temperature: 0.7, MaxTokens: 4096}
	}
	temp := 0.7
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}
	return llm.Config{Temperature: temp, MaxTokens: cfg.MaxTokens, Model: cfg.Model}
}

// assemblePrompt implements spec §4.1 step 5: the state's prompt
// fragment composed with the base system prompt, the memory's
// budget-constrained summary+recent window, the tool catalogue (when
// any tool is registered), and the current turn's input.
func (o *Orchestrator) assemblePrompt(mode state.PromptMode, fragment, userInput string, allowedTools []string) []message.ChatMessage {
	system := mode.Compose(o.spec.SystemPrompt, fragment)

	budget := o.spec.Memory.Budget()
	tokenCap := 0
	if budget.Total > 0 {
		tokenCap = budget.Components.Recent
	}

	msgs := make([]message.ChatMessage, 0, 4)
	if system != "" {
		msgs = append(msgs, message.System(system))
	}
	msgs = append(msgs, o.mem.ToLLMMessagesWithBudget(tokenCap)...)
	if o.tools.Count() > 0 {
		msgs = append(msgs, message.System(tool.Catalogue(o.tools, allowedTools)))
	}
	msgs = append(msgs, message.User(userInput))
	return msgs
}

func (o *Orchestrator) summarizer() memory.Summarizer {
	alias := o.spec.Memory.SummarizerLLM
	var provider llm.Provider
	var err error
	if alias != "" {
		provider, err = o.llmRegistry.Resolve(alias)
	} else {
		provider, err = o.llmRegistry.Default()
	}
	if err != nil {
		return nil
	}
	return memory.NewLLMSummarizer(provider)
}

// evaluateAndApplyTransition implements spec §4.1 step 9: the judge
// LLM picks at most one auto transition (gated by HITL if the target
// state requires approval), falling back to the per-state timeout
// target when no transition fires and max_turns has elapsed.
func (o *Orchestrator) evaluateAndApplyTransition(ctx context.Context, stateID, userInput, response string) string {
	transitions := o.machine.AutoTransitions()
	if idx := o.evaluateTransition(ctx, stateID, userInput, response, transitions); idx >= 0 {
		target := transitions[idx].To
		if o.hitlEngine != nil {
			check := o.hitlEngine.CheckState(ctx, stateID, target)
			if req, required := check.IntoRequest(); required {
				result, err := o.hitlEngine.RequestApproval(ctx, req, hitl.TimeoutReject)
				if err != nil || !result.IsApproved() {
					o.machine.IncrementTurn()
					return stateID
				}
			}
		}
		if err := o.machine.TransitionTo(target, "auto: "+transitions[idx].When); err == nil {
			return target
		}
	}

	if target, ok := o.machine.CheckTimeout(); ok {
		if err := o.machine.TransitionTo(target, "timeout"); err == nil {
			return target
		}
	}

	o.machine.IncrementTurn()
	return stateID
}

func (o *Orchestrator) failureResponse(stateID string, err error) session.AgentResponse {
	return session.AgentResponse{
		FinishReason: session.FinishError,
		State:        stateID,
		Metadata:     map[string]any{"error_kind": string(agenterr.KindOf(err))},
	}
}

// Chat runs one complete turn to completion and returns its result
// synchronously, implementing spec §4.1's 11-step algorithm.
func (o *Orchestrator) Chat(ctx context.Context, text string) (session.AgentResponse, error) {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	ctx, span := o.startTurnSpan(ctx, text)
	defer span.End()
	start := time.Now()

	stateID, allowedTools, allowedSkills, llmAlias, reflectionCfg, promptFragment, promptMode := o.turnScope()

	// Step 1: refresh per-turn dynamic context.
	o.refreshContext(ctx)

	// Step 2: append the user message.
	o.mem.Add(message.User(text))
	o.mem.ResetBudgetWarning()

	// Step 3: disambiguation.
	effectiveInput, shortCircuit, shortResp := o.resolveAmbiguity(ctx, stateID, text)
	if shortCircuit {
		o.mem.Add(message.Assistant(shortResp))
		resp := session.AgentResponse{Content: shortResp, FinishReason: session.FinishOther, State: stateID}
		o.recordTurnMetrics(resp.FinishReason, start)
		return resp, nil
	}

	var content string
	var toolCalls []session.ToolCallRecord
	finish := session.FinishStop

	// Step 4: skill routing. A matched skill skips straight to step 8.
	if skillContent, ran := o.runSkillPath(ctx, allowedSkills, effectiveInput); ran {
		content = skillContent
	} else {
		provider, err := o.resolveStateProvider(llmAlias)
		if err != nil {
			resp := o.failureResponse(stateID, err)
			o.recordTurnMetrics(resp.FinishReason, start)
			return resp, err
		}

		// Step 5: prompt assembly.
		messages := o.assemblePrompt(promptMode, promptFragment, effectiveInput, allowedTools)
		cfg := o.llmConfigFor(llmAlias)

		// Step 6: LLM-plus-tools inner loop.
		outcome, err := o.runLLMWithTools(ctx, provider, messages, allowedTools, cfg, o.spec.MaxIterations)
		if err != nil {
			resp := o.failureResponse(stateID, err)
			o.recordTurnMetrics(resp.FinishReason, start)
			return resp, err
		}
		content, toolCalls, finish = outcome.text, outcome.toolCalls, outcome.finish

		// Step 7: reflection.
		if reflectionCfg.IsEnabled() {
			content = o.applyReflection(ctx, reflectionCfg, content, func(ctx context.Context) (string, error) {
				retry, err := o.runLLMWithTools(ctx, provider, messages, allowedTools, cfg, o.spec.MaxIterations)
				if err != nil {
					return "", err
				}
				return retry.text, nil
			})
		}
	}

	// Step 8: append the assistant response and compact memory.
	o.mem.Add(message.Assistant(content))
	if err := o.mem.Compress(ctx, o.summarizer()); err != nil {
		slog.Warn("orchestrator: memory compression failed", "error", err)
	}
	o.enforceMemoryBudget(ctx)

	// Step 9: transition evaluation.
	newState := stateID
	if o.machine != nil {
		newState = o.evaluateAndApplyTransition(ctx, stateID, effectiveInput, content)
	}

	// Step 10: persist a snapshot, if a storage backend is attached.
	if o.storageBackend != nil {
		if err := o.SaveState(ctx); err != nil {
			slog.Warn("orchestrator: snapshot persist failed", "error", err)
		}
	}

	resp := session.AgentResponse{
		Content:      content,
		ToolCalls:    toolCalls,
		FinishReason: finish,
		State:        newState,
	}
	o.recordTurnMetrics(finish, start)
	return resp, nil
}

func (o *Orchestrator) enforceMemoryBudget(ctx context.Context) {
	budget := o.spec.Memory.Budget()
	if budget.Total <= 0 {
		return
	}
	used := o.mem.CheckBudget(budget)
	if o.metrics != nil {
		o.metrics.SetMemoryBudgetUsed(o.spec.Name, budget.UsagePercent(used))
	}
	if used <= budget.Total {
		return
	}
	if err := o.recoveryMgr.HandleContextOverflow(ctx, o.mem, o.summarizer()); err != nil {
		slog.Warn("orchestrator: context overflow handling failed", "error", err)
	} else if o.metrics != nil {
		o.metrics.RecordMemoryCompaction(o.spec.Name)
	}
}

func (o *Orchestrator) recordTurnMetrics(finish session.FinishReason, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordTurn(o.spec.Name, string(finish), time.Since(start))
}

// SaveState persists the current session (memory, state machine,
// dynamic context) under the orchestrator's session id.
func (o *Orchestrator) SaveState(ctx context.Context) error {
	if o.storageBackend == nil {
		return agenterr.New(agenterr.KindConfig, "orchestrator: no storage backend configured")
	}
	snap := storage.AgentSnapshot{
		AgentID:   o.spec.Name,
		Timestamp: time.Now(),
		Memory:    o.mem.Snapshot(),
		Context:   o.snapshotContext(),
	}
	if o.machine != nil {
		ms := o.machine.Snapshot()
		snap.StateMachine = &ms
	}
	return o.storageBackend.Save(ctx, o.sessionID, snap)
}

// LoadState restores a previously captured AgentSnapshot into this
// orchestrator's live memory, state machine, and context cache.
func (o *Orchestrator) LoadState(ctx context.Context, snap storage.AgentSnapshot) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.mem.Restore(snap.Memory)
	if o.machine != nil && snap.StateMachine != nil {
		if err := o.machine.Restore(*snap.StateMachine); err != nil {
			return err
		}
	}
	o.contextMu.Lock()
	o.contextValues = make(map[string]any, len(snap.Context))
	for k, v := range snap.Context {
		o.contextValues[k] = v
	}
	o.contextMu.Unlock()
	return nil
}

func (o *Orchestrator) snapshotContext() map[string]any {
	o.contextMu.Lock()
	defer o.contextMu.Unlock()
	out := make(map[string]any, len(o.contextValues))
	for k, v := range o.contextValues {
		out[k] = v
	}
	return out
}
