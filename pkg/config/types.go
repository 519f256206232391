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

// Package config loads an agent spec from YAML: a single file
// declaring identity, the LLM(s) available to it, its memory/recovery/
// HITL/disambiguation policies, its skill and tool references, its
// state machine, its storage backend, and its context sources. Every
// sub-policy type that another package already owns (state machine,
// recovery, disambiguation, HITL, skill refs) is embedded directly
// rather than re-declared here, so there is exactly one definition of
// each shape in the module.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/disambiguation"
	"github.com/kadirpekel/agentrt/pkg/hitl"
	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/recovery"
	"github.com/kadirpekel/agentrt/pkg/skill"
	"github.com/kadirpekel/agentrt/pkg/state"
)

// AgentSpec is the root of an agent's YAML configuration (spec §6).
type AgentSpec struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`

	SystemPrompt string `yaml:"system_prompt"`

	LLM  LLMSelector          `yaml:"llm"`
	LLMs map[string]LLMConfig `yaml:"llms"`

	Memory MemoryConfig `yaml:"memory"`

	Skills []skill.Ref `yaml:"skills"`
	Tools  []ToolRef   `yaml:"tools"`

	StateMachine state.Config `yaml:"state_machine"`

	Recovery       recovery.Config       `yaml:"recovery"`
	Disambiguation disambiguation.Config `yaml:"disambiguation"`
	HITL           hitl.HITLConfig       `yaml:"hitl"`

	Storage   StorageConfig           `yaml:"storage"`
	Streaming StreamingConfig         `yaml:"streaming"`
	Context   map[string]ContextSource `yaml:"context"`

	// MaxIterations bounds the tool-call recursion within a single turn
	// (spec §4.1/§9): max_iterations = 1 forces a single LLM call, with
	// any tool-call directive yielding finish_reason = Length instead of
	// a second round trip.
	MaxIterations int `yaml:"max_iterations"`
}

// LLMSelector names either one LLM config directly or, for multi-LLM
// agents, aliases into AgentSpec.LLMs ("{default, router?}" per
// spec §6). A bare scalar ("llm: my-alias") is a by-name selector; a
// mapping with provider/model keys is an inline single-provider
// config.
type LLMSelector struct {
	Inline  *LLMConfig
	Default string
	Router  string
}

// IsInline reports whether this selector carries a full inline
// provider config rather than aliasing into AgentSpec.LLMs.
func (s LLMSelector) IsInline() bool { return s.Inline != nil }

type rawLLMSelector struct {
	Default string `yaml:"default"`
	Router  string `yaml:"router"`
}

func (s *LLMSelector) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Default = node.Value
		return nil
	}

	var sel rawLLMSelector
	if err := node.Decode(&sel); err == nil && sel.Default != "" {
		s.Default = sel.Default
		s.Router = sel.Router
		return nil
	}

	var inline LLMConfig
	if err := node.Decode(&inline); err != nil {
		return err
	}
	s.Inline = &inline
	return nil
}

// LLMProviderKind names the wire dialect an LLMConfig speaks.
type LLMProviderKind string

const (
	LLMProviderOpenAICompatible LLMProviderKind = "openai_compatible"
)

// LLMConfig configures one named LLM provider instance. The runtime
// ships a single concrete wire codec (pkg/llm/httpprovider, OpenAI's
// chat-completions format) per spec §1's scope; Provider is carried
// for forward compatibility with additional wire codecs wired in
// externally via llm.Registry.RegisterProvider.
type LLMConfig struct {
	Provider    LLMProviderKind `yaml:"provider"`
	Model       string          `yaml:"model"`
	APIKey      string          `yaml:"api_key"`
	BaseURL     string          `yaml:"base_url"`
	Temperature *float64        `yaml:"temperature"`
	MaxTokens   int             `yaml:"max_tokens"`
	TimeoutMS   uint64          `yaml:"timeout_ms"`
}

// MemoryConfig configures the compacting memory (spec §4.3/§6).
type MemoryConfig struct {
	Type               string `yaml:"type"`
	MaxMessages        int    `yaml:"max_messages"`
	MaxRecentMessages  int    `yaml:"max_recent_messages"`
	CompressThreshold  int    `yaml:"compress_threshold"`
	SummarizeBatchSize int    `yaml:"summarize_batch_size"`
	TokenBudget        int    `yaml:"token_budget"`
	SummarizerLLM      string `yaml:"summarizer_llm"`
}

// ToMemoryConfig builds the pkg/memory.Config this spec describes.
// max_recent_messages overrides max_messages when both are set, for
// configs migrating from a single max_messages knob.
func (m MemoryConfig) ToMemoryConfig() memory.Config {
	maxRecent := m.MaxMessages
	if m.MaxRecentMessages > 0 {
		maxRecent = m.MaxRecentMessages
	}
	return memory.Config{
		MaxRecentMessages:  maxRecent,
		CompressThreshold:  m.CompressThreshold,
		SummarizeBatchSize: m.SummarizeBatchSize,
		MaxSummaryLength:   256,
	}
}

// Budget builds a memory.TokenBudget from TokenBudget, or a zero
// budget (no enforcement) if unset.
func (m MemoryConfig) Budget() memory.TokenBudget {
	if m.TokenBudget <= 0 {
		return memory.TokenBudget{}
	}
	return memory.DefaultTokenBudget(m.TokenBudget)
}

// ToolType names a tool origin (spec §4.6: built-ins, MCP servers,
// out-of-process plugins).
type ToolType string

const (
	ToolTypeBuiltin ToolType = "builtin"
	ToolTypeMCP     ToolType = "mcp"
	ToolTypePlugin  ToolType = "plugin"
)

// ToolRef is one `tools:` list entry: {name, ...extra}, where the
// extra fields depend on Type.
type ToolRef struct {
	Name string   `yaml:"name"`
	Type ToolType `yaml:"type"`

	// MCP / plugin process launch.
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	Path    string            `yaml:"path"`
	Filter  []string          `yaml:"filter"`

	// Security policy (spec §4.6a), applied regardless of Type.
	RequireApproval bool     `yaml:"require_approval"`
	AllowedDomains  []string `yaml:"allowed_domains"`
	BlockedDomains  []string `yaml:"blocked_domains"`
	AllowedPaths    []string `yaml:"allowed_paths"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// StorageType selects a pkg/storage backend (spec §6).
type StorageType string

const (
	StorageNone     StorageType = "none"
	StorageFile     StorageType = "file"
	StorageSQLite   StorageType = "sqlite"
	StoragePostgres StorageType = "postgres"
	StorageMySQL    StorageType = "mysql"
	StorageRedis    StorageType = "redis"
)

// StorageConfig configures session-snapshot persistence.
type StorageConfig struct {
	Type       StorageType `yaml:"type"`
	Path       string      `yaml:"path"`        // file backend root dir
	DSN        string      `yaml:"dsn"`         // sql backend connection string
	Addr       string      `yaml:"addr"`        // redis address
	Password   string      `yaml:"password"`    // redis password
	DB         int         `yaml:"db"`          // redis db index
	KeyPrefix  string      `yaml:"key_prefix"`  // redis key prefix
	TTLSeconds int64       `yaml:"ttl_seconds"` // redis TTL, 0 = no expiry
}

// StreamingConfig configures the turn-level stream-chunk taxonomy
// (spec §5/§6).
type StreamingConfig struct {
	Enabled            bool `yaml:"enabled"`
	BufferSize         int  `yaml:"buffer_size"`
	IncludeToolEvents  bool `yaml:"include_tool_events"`
	IncludeStateEvents bool `yaml:"include_state_events"`
}

// ContextSourceKind names where a named context value comes from
// (spec §6).
type ContextSourceKind string

const (
	ContextRuntime  ContextSourceKind = "runtime"
	ContextBuiltin  ContextSourceKind = "builtin"
	ContextFile     ContextSourceKind = "file"
	ContextHTTP     ContextSourceKind = "http"
	ContextEnv      ContextSourceKind = "env"
	ContextCallback ContextSourceKind = "callback"
)

// RefreshPolicy names when a ContextSource is re-resolved.
type RefreshPolicy string

const (
	RefreshOnce       RefreshPolicy = "once"
	RefreshPerSession RefreshPolicy = "per_session"
	RefreshPerTurn    RefreshPolicy = "per_turn"
)

// ContextSource describes how to resolve one named entry in the
// `context:` map.
type ContextSource struct {
	Kind    ContextSourceKind `yaml:"kind"`
	Refresh RefreshPolicy     `yaml:"refresh"`

	Path     string            `yaml:"path"`     // file
	URL      string            `yaml:"url"`      // http
	Headers  map[string]string `yaml:"headers"`  // http
	EnvVar   string            `yaml:"env_var"`  // env
	Builtin  string            `yaml:"builtin"`  // builtin (e.g. "now", "hostname")
	Callback string            `yaml:"callback"` // callback name, resolved by the host app
}
