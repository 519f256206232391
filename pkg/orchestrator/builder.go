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
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/config"
	"github.com/kadirpekel/agentrt/pkg/disambiguation"
	"github.com/kadirpekel/agentrt/pkg/hitl"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/llm/httpprovider"
	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/metrics"
	"github.com/kadirpekel/agentrt/pkg/recovery"
	"github.com/kadirpekel/agentrt/pkg/skill"
	"github.com/kadirpekel/agentrt/pkg/state"
	"github.com/kadirpekel/agentrt/pkg/storage"
	"github.com/kadirpekel/agentrt/pkg/tool"
	"github.com/kadirpekel/agentrt/pkg/tool/builtin"
	"github.com/kadirpekel/agentrt/pkg/tool/mcpprovider"
	"github.com/kadirpekel/agentrt/pkg/tool/pluginprovider"
)

// Dependencies carries everything Build cannot derive from the spec
// alone: host-owned infrastructure (storage, metrics, the tracing
// switch), the approval handler HITL drives, a skill loader
// pre-seeded with the host's search paths, and the runtime/callback
// context sources spec.Context can reference by name.
type Dependencies struct {
	Storage         storage.Backend
	Metrics         *metrics.Metrics
	ApprovalHandler hitl.ApprovalHandler
	SkillLoader     *skill.Loader
	Tracing         TracingConfig
	RuntimeContext  any
	Callbacks       map[string]ContextCallback
	HTTPClient      *http.Client
	SessionID       string
}

// Build validates spec, wires every sub-component it declares, and
// returns a ready-to-drive Orchestrator. It mirrors the teacher's
// validate-then-wire agent construction: defaults are filled,
// structural validation runs once up front, and every subsystem is
// constructed in dependency order (LLMs before skills/disambiguation/
// reflection/transition evaluation, all of which call back into the
// LLM registry; tools before the harness's per-tool policies; storage
// and the tracer last, since nothing else depends on them).
func Build(ctx context.Context, spec *config.AgentSpec, deps Dependencies) (*Orchestrator, error) {
	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	llmRegistry, err := buildLLMRegistry(spec)
	if err != nil {
		return nil, err
	}

	var machine *state.Machine
	if spec.StateMachine.Initial != "" {
		machine, err = state.New(spec.StateMachine)
		if err != nil {
			return nil, err
		}
	}

	mem := memory.New(spec.Memory.ToMemoryConfig(), nil, nil)

	tools, harness, err := buildTools(ctx, spec.Tools)
	if err != nil {
		return nil, err
	}

	var skillRouter *skill.Router
	var skillExecutor *skill.Executor
	if len(spec.Skills) > 0 {
		if deps.SkillLoader == nil {
			return nil, agenterr.New(agenterr.KindConfig, "orchestrator: spec declares skills but no SkillLoader was supplied")
		}
		defs, err := deps.SkillLoader.LoadRefs(spec.Skills)
		if err != nil {
			return nil, err
		}
		routerProvider, err := llmRegistry.Router()
		if err != nil {
			return nil, err
		}
		skillRouter = skill.NewRouter(routerProvider, defs)
		skillExecutor = skill.NewExecutor(llmRegistry, tools, harness)
	}

	var disambiguator *disambiguation.Manager
	if spec.Disambiguation.Enabled {
		disambiguator = disambiguation.NewManager(spec.Disambiguation, llmRegistry)
	}

	var hitlEngine *hitl.Engine
	if spec.HITL.Enabled {
		handler := deps.ApprovalHandler
		if handler == nil {
			handler = hitl.RejectAllHandler{}
		}
		hitlEngine = hitl.NewEngine(spec.HITL, handler, llmRegistry)
	}

	recoveryMgr := recovery.NewManager(spec.Recovery)

	backend := deps.Storage
	if backend == nil {
		backend, err = storage.New(ctx, spec.Storage)
		if err != nil {
			return nil, err
		}
	}

	tracerProvider, err := InitTracerProvider(deps.Tracing)
	if err != nil {
		return nil, err
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	sessionID := deps.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &Orchestrator{
		spec:               spec,
		llmRegistry:        llmRegistry,
		machine:            machine,
		mem:                mem,
		tools:              tools,
		harness:            harness,
		skillRouter:        skillRouter,
		skillExecutor:      skillExecutor,
		disambiguator:      disambiguator,
		hitlEngine:         hitlEngine,
		recoveryMgr:        recoveryMgr,
		storageBackend:     backend,
		metrics:            deps.Metrics,
		tracer:             tracerProvider.Tracer(tracerName),
		sessionID:          sessionID,
		dctx:               disambiguation.NewContext(),
		contextValues:      make(map[string]any),
		contextOnceDone:    make(map[string]struct{}),
		contextSessionDone: make(map[string]struct{}),
		callbacks:          deps.Callbacks,
		httpClient:         httpClient,
		runtimeContext:     deps.RuntimeContext,
	}, nil
}

// buildLLMRegistry registers every entry in spec.LLMs under its own
// alias (so states and skills can target one by name) and resolves
// spec.LLM's default/router selection against it.
func buildLLMRegistry(spec *config.AgentSpec) (*llm.Registry, error) {
	reg := llm.NewRegistry()
	for alias, cfg := range spec.LLMs {
		provider, err := newHTTPProvider(cfg)
		if err != nil {
			return nil, err
		}
		if err := reg.RegisterProvider(alias, provider); err != nil {
			return nil, err
		}
	}

	if spec.LLM.IsInline() {
		provider, err := newHTTPProvider(*spec.LLM.Inline)
		if err != nil {
			return nil, err
		}
		const inlineAlias = "default"
		if err := reg.RegisterProvider(inlineAlias, provider); err != nil {
			return nil, err
		}
		spec.LLM.Default = inlineAlias
	}

	if err := reg.SetDefault(spec.LLM.Default); err != nil {
		return nil, err
	}
	routerAlias := spec.LLM.Router
	if routerAlias == "" {
		routerAlias = spec.LLM.Default
	}
	if err := reg.SetRouter(routerAlias); err != nil {
		return nil, err
	}
	return reg, nil
}

func newHTTPProvider(cfg config.LLMConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		return nil, agenterr.Invalid("llm config for model %q has no base_url", cfg.Model)
	}
	opts := []httpprovider.Option{}
	if cfg.APIKey != "" {
		opts = append(opts, httpprovider.WithAPIKey(cfg.APIKey))
	}
	if cfg.TimeoutMS > 0 {
		opts = append(opts, httpprovider.WithTimeout(time.Duration(cfg.TimeoutMS)*time.Millisecond))
	}
	return httpprovider.New(cfg.BaseURL, cfg.Model, opts...), nil
}

// buildTools registers every declared tool (builtin, MCP, or plugin)
// and its security policy with a fresh registry and harness. Builtin
// tools are registered directly since they live in-process; MCP and
// plugin tools are registered as providers so the registry discovers
// their tool set lazily on first use.
func buildTools(ctx context.Context, refs []config.ToolRef) (*tool.Registry, *tool.Harness, error) {
	registry := tool.NewRegistry()
	harness := tool.NewHarness(30 * time.Second)

	for _, ref := range refs {
		policy := policyFromRef(ref)

		switch ref.Type {
		case config.ToolTypeBuiltin:
			t, err := builtinTool(ref, policy)
			if err != nil {
				return nil, nil, err
			}
			if err := registry.RegisterTool(t, builtinProvider{}); err != nil {
				return nil, nil, err
			}
			harness.SetPolicy(t.Descriptor().ID, policy)

		case config.ToolTypeMCP:
			provider := mcpprovider.New(mcpprovider.Config{
				Name: ref.Name, Command: ref.Command, Args: ref.Args, Env: ref.Env, Filter: ref.Filter,
			})
			if err := registry.RegisterProvider(ctx, provider); err != nil {
				return nil, nil, err
			}

		case config.ToolTypePlugin:
			provider := pluginprovider.New(pluginprovider.Config{Name: ref.Name, Path: ref.Path, Args: ref.Args})
			if err := registry.RegisterProvider(ctx, provider); err != nil {
				return nil, nil, err
			}

		default:
			return nil, nil, agenterr.Newf(agenterr.KindConfig, "tool %q has unknown type %q", ref.Name, ref.Type)
		}
	}

	return registry, harness, nil
}

func policyFromRef(ref config.ToolRef) *tool.SecurityPolicy {
	policy := tool.DefaultSecurityPolicy()
	policy.RequireApproval = ref.RequireApproval
	policy.AllowedDomains = ref.AllowedDomains
	policy.BlockedDomains = ref.BlockedDomains
	policy.AllowedPathGlobs = ref.AllowedPaths
	if ref.RateLimitPerMin > 0 {
		policy.RateLimitPerMin = ref.RateLimitPerMin
	}
	return &policy
}

// builtinProvider is the nominal Provider in-process builtin tools are
// registered under: they need no discovery step, but RegisterTool
// still records a provider name and trust level against their Entry.
type builtinProvider struct{}

func (builtinProvider) Name() string                         { return "builtin" }
func (builtinProvider) TrustLevel() tool.TrustLevel           { return tool.TrustFull }
func (builtinProvider) Tools(context.Context) ([]tool.Tool, error) { return nil, nil }

func builtinTool(ref config.ToolRef, policy *tool.SecurityPolicy) (tool.Tool, error) {
	switch ref.Name {
	case "calculator":
		return builtin.NewCalculator(), nil
	case "httpfetch":
		return builtin.NewHTTPFetch(policy), nil
	default:
		return nil, agenterr.Newf(agenterr.KindConfig, "unknown builtin tool %q", ref.Name)
	}
}
