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

// Package metrics exposes the runtime's Prometheus instrumentation: turn
// latency, LLM call/token counts, tool call counts, recovery retries, and
// the memory token budget. The host process mounts Handler() on its own
// HTTP mux; this module never listens on a socket itself.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls whether metrics are collected and how they are named.
type Config struct {
	Enabled   bool
	Namespace string
}

// SetDefaults fills Namespace when unset.
func (c *Config) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "agentrt"
	}
}

// Metrics holds every collector this runtime reports. A nil *Metrics is
// valid and every Record*/Observe* method on it is a safe no-op, so
// callers never need to branch on whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	turnCalls    *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	turnErrors   *prometheus.CounterVec

	llmCalls        *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec
	llmTokensInput  *prometheus.CounterVec
	llmTokensOutput *prometheus.CounterVec

	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	toolErrors       *prometheus.CounterVec

	recoveryRetries *prometheus.CounterVec
	recoveryDelay   *prometheus.HistogramVec

	memoryBudgetUsed  *prometheus.GaugeVec
	memoryCompactions *prometheus.CounterVec
}

// New builds a Metrics instance. If cfg is nil or disabled, it returns
// (nil, nil): every recording method tolerates a nil receiver.
func New(cfg *Config) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initTurnMetrics(cfg.Namespace)
	m.initLLMMetrics(cfg.Namespace)
	m.initToolMetrics(cfg.Namespace)
	m.initRecoveryMetrics(cfg.Namespace)
	m.initMemoryMetrics(cfg.Namespace)
	return m, nil
}

func (m *Metrics) initTurnMetrics(ns string) {
	m.turnCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "turn", Name: "calls_total",
		Help: "Total number of orchestrator turns run.",
	}, []string{"agent_name", "finish_reason"})

	m.turnDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "turn", Name: "duration_seconds",
		Help:    "Turn duration in seconds, start to AgentResponse.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7m
	}, []string{"agent_name"})

	m.turnErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "turn", Name: "errors_total",
		Help: "Total number of turns that ended with finish_reason=error.",
	}, []string{"agent_name", "error_kind"})

	m.registry.MustRegister(m.turnCalls, m.turnDuration, m.turnErrors)
}

func (m *Metrics) initLLMMetrics(ns string) {
	m.llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "calls_total",
		Help: "Total number of LLM completion calls.",
	}, []string{"alias", "model"})

	m.llmCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "llm", Name: "call_duration_seconds",
		Help:    "LLM completion call duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"alias", "model"})

	m.llmTokensInput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "tokens_input_total",
		Help: "Total prompt tokens consumed.",
	}, []string{"alias", "model"})

	m.llmTokensOutput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "tokens_output_total",
		Help: "Total completion tokens generated.",
	}, []string{"alias", "model"})

	m.registry.MustRegister(m.llmCalls, m.llmCallDuration, m.llmTokensInput, m.llmTokensOutput)
}

func (m *Metrics) initToolMetrics(ns string) {
	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "tool", Name: "calls_total",
		Help: "Total number of tool invocations.",
	}, []string{"tool_name"})

	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "tool", Name: "call_duration_seconds",
		Help:    "Tool execution duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
	}, []string{"tool_name"})

	m.toolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "tool", Name: "errors_total",
		Help: "Total number of tool execution errors.",
	}, []string{"tool_name"})

	m.registry.MustRegister(m.toolCalls, m.toolCallDuration, m.toolErrors)
}

func (m *Metrics) initRecoveryMetrics(ns string) {
	m.recoveryRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "recovery", Name: "retries_total",
		Help: "Total number of recovery-manager retry attempts.",
	}, []string{"operation", "error_kind"})

	m.recoveryDelay = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "recovery", Name: "backoff_seconds",
		Help:    "Backoff delay slept before a recovery retry.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"operation"})

	m.registry.MustRegister(m.recoveryRetries, m.recoveryDelay)
}

func (m *Metrics) initMemoryMetrics(ns string) {
	m.memoryBudgetUsed = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Subsystem: "memory", Name: "token_budget_used_ratio",
		Help: "Fraction of the configured token budget currently in use, 0 when no budget is set.",
	}, []string{"agent_name"})

	m.memoryCompactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "memory", Name: "compactions_total",
		Help: "Total number of memory compaction events.",
	}, []string{"agent_name"})

	m.registry.MustRegister(m.memoryBudgetUsed, m.memoryCompactions)
}

// RecordTurn records a completed turn.
func (m *Metrics) RecordTurn(agentName, finishReason string, d time.Duration) {
	if m == nil {
		return
	}
	m.turnCalls.WithLabelValues(agentName, finishReason).Inc()
	m.turnDuration.WithLabelValues(agentName).Observe(d.Seconds())
}

// RecordTurnError records a turn that ended with finish_reason=error.
func (m *Metrics) RecordTurnError(agentName, errorKind string) {
	if m == nil {
		return
	}
	m.turnErrors.WithLabelValues(agentName, errorKind).Inc()
}

// RecordLLMCall records one completion call.
func (m *Metrics) RecordLLMCall(alias, model string, d time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(alias, model).Inc()
	m.llmCallDuration.WithLabelValues(alias, model).Observe(d.Seconds())
	if promptTokens > 0 {
		m.llmTokensInput.WithLabelValues(alias, model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensOutput.WithLabelValues(alias, model).Add(float64(completionTokens))
	}
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(toolName string, d time.Duration, err bool) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(toolName).Inc()
	m.toolCallDuration.WithLabelValues(toolName).Observe(d.Seconds())
	if err {
		m.toolErrors.WithLabelValues(toolName).Inc()
	}
}

// RecordRecoveryRetry records one retry attempt and the backoff slept
// before it.
func (m *Metrics) RecordRecoveryRetry(operation, errorKind string, delay time.Duration) {
	if m == nil {
		return
	}
	m.recoveryRetries.WithLabelValues(operation, errorKind).Inc()
	m.recoveryDelay.WithLabelValues(operation).Observe(delay.Seconds())
}

// SetMemoryBudgetUsed records the current fraction of the token budget
// in use (0 when memory has no budget configured).
func (m *Metrics) SetMemoryBudgetUsed(agentName string, ratio float64) {
	if m == nil {
		return
	}
	m.memoryBudgetUsed.WithLabelValues(agentName).Set(ratio)
}

// RecordMemoryCompaction records one compaction event.
func (m *Metrics) RecordMemoryCompaction(agentName string) {
	if m == nil {
		return
	}
	m.memoryCompactions.WithLabelValues(agentName).Inc()
}

// Handler returns the Prometheus scrape handler. A nil Metrics returns a
// handler that always answers 503, so the host process can mount it
// unconditionally without nil-checking first.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry, or nil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
