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

// Package recovery classifies transport/tool/parsing failures, retries
// them with a configurable backoff, and runs the fallback action
// (alternate LLM, fallback response, context truncation/summarization,
// tool fallback, parse-retry-with-hint) the agent spec names for each
// failure family (spec §4.5).
package recovery

import "gopkg.in/yaml.v3"

// ErrorType classifies a failure for retry-eligibility and fallback
// routing decisions.
type ErrorType string

const (
	ErrorTimeout          ErrorType = "timeout"
	ErrorRateLimit        ErrorType = "rate_limit"
	ErrorConnection       ErrorType = "connection_error"
	ErrorServer           ErrorType = "server_error"
	ErrorInvalidAPIKey    ErrorType = "invalid_api_key"
	ErrorContextTooLong   ErrorType = "context_too_long"
	ErrorInvalidRequest   ErrorType = "invalid_request"
	ErrorInvalidResponse  ErrorType = "invalid_response"
	ErrorTool             ErrorType = "tool_error"
)

// transientErrors is the default retry-on set: failures expected to
// clear up with time rather than a change in the request itself.
func transientErrors() []ErrorType {
	return []ErrorType{ErrorTimeout, ErrorRateLimit, ErrorConnection, ErrorServer}
}

// BackoffType selects how the wait between retries grows.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"
	BackoffLinear      BackoffType = "linear"
	BackoffExponential BackoffType = "exponential"
)

// BackoffConfig parameterises the wait between retry attempts.
type BackoffConfig struct {
	Type       BackoffType `yaml:"type"`
	InitialMS  uint64      `yaml:"initial_ms"`
	MaxMS      uint64      `yaml:"max_ms"`
	Multiplier float64     `yaml:"multiplier"`
}

// DefaultBackoffConfig mirrors the original's 100ms/5s/2x exponential
// defaults.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{Type: BackoffExponential, InitialMS: 100, MaxMS: 5000, Multiplier: 2.0}
}

func (b *BackoffConfig) UnmarshalYAML(node *yaml.Node) error {
	type rawBackoff BackoffConfig
	raw := rawBackoff(DefaultBackoffConfig())
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*b = BackoffConfig(raw)
	return nil
}

// RetryConfig governs one retry policy: how many attempts, which
// errors are eligible, and the wait curve between attempts.
type RetryConfig struct {
	MaxRetries uint32        `yaml:"max_retries"`
	Backoff    BackoffConfig `yaml:"backoff"`
	RetryOn    []ErrorType   `yaml:"retry_on"`
	NoRetryOn  []ErrorType   `yaml:"no_retry_on"`
}

// DefaultRetryConfig disables retries (max_retries 0) but still
// declares the original's default allow/deny lists, so enabling
// retries by only setting max_retries keeps sane defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		Backoff:    DefaultBackoffConfig(),
		RetryOn:    transientErrors(),
		NoRetryOn:  []ErrorType{ErrorInvalidAPIKey, ErrorInvalidRequest},
	}
}

func (r *RetryConfig) UnmarshalYAML(node *yaml.Node) error {
	type rawRetry RetryConfig
	raw := rawRetry(DefaultRetryConfig())
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = RetryConfig(raw)
	return nil
}

// LLMFailureActionKind discriminates how an unrecoverable LLM failure
// is handled.
type LLMFailureActionKind string

const (
	LLMFailureError            LLMFailureActionKind = "error"
	LLMFailureFallbackLLM      LLMFailureActionKind = "fallback_llm"
	LLMFailureFallbackResponse LLMFailureActionKind = "fallback_response"
)

// LLMFailureAction is a tagged union over LLMFailureActionKind; only
// the field relevant to Action is populated.
type LLMFailureAction struct {
	Action      LLMFailureActionKind `yaml:"action"`
	FallbackLLM string               `yaml:"fallback_llm"`
	Message     string               `yaml:"message"`
}

// RateLimitActionKind discriminates how a rate-limited LLM call is
// handled.
type RateLimitActionKind string

const (
	RateLimitError       RateLimitActionKind = "error"
	RateLimitWaitAndRetry RateLimitActionKind = "wait_and_retry"
	RateLimitSwitchModel RateLimitActionKind = "switch_model"
)

// RateLimitAction is a tagged union over RateLimitActionKind.
type RateLimitAction struct {
	Action      RateLimitActionKind `yaml:"action"`
	MaxWaitMS   uint64              `yaml:"max_wait_ms"`
	FallbackLLM string              `yaml:"fallback_llm"`
}

func (a *RateLimitAction) UnmarshalYAML(node *yaml.Node) error {
	type rawAction RateLimitAction
	raw := rawAction{MaxWaitMS: 30000}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*a = RateLimitAction(raw)
	return nil
}

// FilterKind names one of the message filters in filter.go.
type FilterKind string

const (
	FilterKeepRecent  FilterKind = "keep_recent"
	FilterByRole      FilterKind = "by_role"
	FilterSkipPattern FilterKind = "skip_pattern"
	FilterCustom      FilterKind = "custom"
)

// FilterConfig selects (and, for by_role/skip_pattern, parameterises)
// the MessageFilter used when summarizing on context overflow.
type FilterConfig struct {
	Type            FilterKind `yaml:"type"`
	KeepRoles       []string   `yaml:"keep_roles"`
	SkipIfContains  []string   `yaml:"skip_if_contains"`
	Name            string     `yaml:"name"`
}

// ContextOverflowActionKind discriminates how an LLM "context too
// long" failure is handled.
type ContextOverflowActionKind string

const (
	OverflowError     ContextOverflowActionKind = "error"
	OverflowTruncate  ContextOverflowActionKind = "truncate"
	OverflowSummarize ContextOverflowActionKind = "summarize"
)

// ContextOverflowAction is a tagged union over ContextOverflowActionKind.
type ContextOverflowAction struct {
	Action            ContextOverflowActionKind `yaml:"action"`
	KeepRecent        int                       `yaml:"keep_recent"`
	SummarizerLLM     string                    `yaml:"summarizer_llm"`
	MaxSummaryTokens  uint32                    `yaml:"max_summary_tokens"`
	CustomPrompt      string                    `yaml:"custom_prompt"`
	Filter            *FilterConfig             `yaml:"filter"`
}

func (a *ContextOverflowAction) UnmarshalYAML(node *yaml.Node) error {
	type rawAction ContextOverflowAction
	raw := rawAction{KeepRecent: 10, MaxSummaryTokens: 200}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*a = ContextOverflowAction(raw)
	return nil
}

// LLMRecoveryConfig governs LLM-call failure handling.
type LLMRecoveryConfig struct {
	OnFailure        LLMFailureAction      `yaml:"on_failure"`
	OnRateLimit      RateLimitAction       `yaml:"on_rate_limit"`
	OnContextOverflow ContextOverflowAction `yaml:"on_context_overflow"`
}

// ToolFailureActionKind discriminates how a tool execution failure is
// handled.
type ToolFailureActionKind string

const (
	ToolFailureReportError ToolFailureActionKind = "report_error"
	ToolFailureSkip        ToolFailureActionKind = "skip"
	ToolFailureFallback    ToolFailureActionKind = "fallback"
)

// ToolFailureAction is a tagged union over ToolFailureActionKind.
type ToolFailureAction struct {
	Action       ToolFailureActionKind `yaml:"action"`
	FallbackTool string                `yaml:"fallback_tool"`
}

// ToolRetryConfig is the retry policy for one tool (or the family
// default).
type ToolRetryConfig struct {
	MaxRetries uint32             `yaml:"max_retries"`
	TimeoutMS  uint64             `yaml:"timeout_ms"`
	OnFailure  ToolFailureAction  `yaml:"on_failure"`
}

// ToolRecoveryConfig governs tool-call failure handling: a default
// policy plus per-tool overrides keyed by tool id.
type ToolRecoveryConfig struct {
	Default ToolRetryConfig            `yaml:"default"`
	PerTool map[string]ToolRetryConfig `yaml:"per_tool"`
}

// ParseErrorActionKind discriminates how a malformed LLM JSON/tool-call
// response is handled.
type ParseErrorActionKind string

const (
	ParseError            ParseErrorActionKind = "error"
	ParseRetryWithHint     ParseErrorActionKind = "retry_with_hint"
	ParseExtractPartial    ParseErrorActionKind = "extract_partial"
)

// ParseErrorAction is a tagged union over ParseErrorActionKind.
type ParseErrorAction struct {
	Action     ParseErrorActionKind `yaml:"action"`
	MaxRetries uint32               `yaml:"max_retries"`
}

func (a *ParseErrorAction) UnmarshalYAML(node *yaml.Node) error {
	type rawAction ParseErrorAction
	raw := rawAction{MaxRetries: 2}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*a = ParseErrorAction(raw)
	return nil
}

// ParsingRecoveryConfig governs malformed-response handling.
type ParsingRecoveryConfig struct {
	OnInvalidJSON     ParseErrorAction `yaml:"on_invalid_json"`
	OnInvalidToolCall ParseErrorAction `yaml:"on_invalid_tool_call"`
}

// Config is the top-level `recovery` agent-spec section.
type Config struct {
	Default RetryConfig           `yaml:"default"`
	LLM     LLMRecoveryConfig     `yaml:"llm"`
	Tools   ToolRecoveryConfig    `yaml:"tools"`
	Parsing ParsingRecoveryConfig `yaml:"parsing"`
}
