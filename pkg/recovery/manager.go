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

package recovery

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/kadirpekel/agentrt/pkg/memory"
)

// Manager runs operations under a configured retry/backoff policy and
// carries out the fallback action (summarize, truncate, fallback tool,
// fallback LLM...) the config names for each failure family.
type Manager struct {
	config Config
}

// NewManager builds a Manager for cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// Config returns the manager's recovery policy.
func (m *Manager) Config() Config { return m.config }

// WithRetry runs operation, retrying according to retryConfig (or the
// manager's default policy, if nil) until it succeeds, a non-retryable
// error is classified, or the retry budget is exhausted. operationName
// is used only for logging.
func WithRetry[T any](ctx context.Context, m *Manager, operationName string, retryConfig *RetryConfig, operation func(ctx context.Context) (T, error)) (T, error) {
	cfg := m.config.Default
	if retryConfig != nil {
		cfg = *retryConfig
	}

	var attempts uint32
	for {
		attempts++
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}

		ce := Classify(err)
		if !shouldRetry(ce.Type, cfg) {
			var zero T
			return zero, nonRetryable(ce)
		}
		if attempts >= cfg.MaxRetries {
			var zero T
			return zero, maxRetriesExceeded(attempts, ce)
		}

		wait := calculateBackoff(attempts, cfg.Backoff)
		slog.Warn("recovery: retrying operation",
			"operation", operationName, "attempt", attempts, "error_type", ce.Type, "wait", wait)

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// shouldRetry reports whether an error of type t is eligible for
// another attempt under cfg: no_retry_on is an explicit blacklist
// checked first, retry_on (when non-empty) is a whitelist, otherwise
// the default transient set applies.
func shouldRetry(t ErrorType, cfg RetryConfig) bool {
	for _, d := range cfg.NoRetryOn {
		if d == t {
			return false
		}
	}
	if len(cfg.RetryOn) > 0 {
		for _, a := range cfg.RetryOn {
			if a == t {
				return true
			}
		}
		return false
	}
	return transientType(t)
}

// calculateBackoff computes the wait before the next attempt, given
// attempt (1-indexed: the attempt that just failed) and the backoff
// curve in cfg.
func calculateBackoff(attempt uint32, cfg BackoffConfig) time.Duration {
	base := time.Duration(cfg.InitialMS) * time.Millisecond
	max := time.Duration(cfg.MaxMS) * time.Millisecond

	var wait time.Duration
	switch cfg.Type {
	case BackoffFixed:
		wait = base
	case BackoffLinear:
		wait = base * time.Duration(attempt)
	case BackoffExponential:
		fallthrough
	default:
		multiplier := cfg.Multiplier
		if multiplier <= 0 {
			multiplier = 2.0
		}
		factor := math.Pow(multiplier, float64(attempt-1))
		wait = time.Duration(float64(base) * factor)
	}

	if max > 0 && wait > max {
		wait = max
	}
	return wait
}

// GetToolConfig returns the retry policy for toolID, falling back to
// the tools-wide default when there is no per-tool override.
func (m *Manager) GetToolConfig(toolID string) ToolRetryConfig {
	if cfg, ok := m.config.Tools.PerTool[toolID]; ok {
		return cfg
	}
	return m.config.Tools.Default
}

// HandleContextOverflow carries out the configured on_context_overflow
// action against mem: Truncate evicts oldest entries directly,
// Summarize applies the configured MessageFilter to decide which
// messages are folded into mem's running summary (skip_pattern drops
// matches outright rather than summarizing them, by_role keeps
// whichever roles the config names). It mutates mem in place via
// Snapshot/Restore rather than calling mem.Compress, since Compress's
// own batching has no notion of a filter.
func (m *Manager) HandleContextOverflow(ctx context.Context, mem *memory.ConversationMemory, summarizer memory.Summarizer) error {
	action := m.config.LLM.OnContextOverflow

	switch action.Action {
	case OverflowTruncate:
		recent := mem.Snapshot().Recent
		drop := len(recent) - action.KeepRecent
		mem.EvictOldest(drop, memory.EvictReasonOverflow)
		return nil
	case OverflowSummarize:
		if summarizer == nil {
			return &RecoveryError{Kind: FailureNoFallback, Detail: "context overflow: summarize requested with no summarizer configured"}
		}
		snap := mem.Snapshot()
		filter := filterFromConfig(action.Filter)
		toSummarize, toKeep := filter.Filter(snap.Recent, action.KeepRecent)
		if len(toSummarize) == 0 {
			return nil
		}

		folded, err := summarizer.Summarize(ctx, toSummarize, int(action.MaxSummaryTokens))
		if err != nil {
			return &RecoveryError{Kind: FailureOther, Detail: "context overflow: summarize batch: " + err.Error()}
		}
		merged, err := summarizer.MergeSummaries(ctx, snap.Summary, folded, int(action.MaxSummaryTokens))
		if err != nil {
			return &RecoveryError{Kind: FailureOther, Detail: "context overflow: merge summaries: " + err.Error()}
		}

		mem.Restore(memory.Snapshot{
			Summary:         merged,
			Recent:          toKeep,
			SummarizedCount: snap.SummarizedCount + len(toSummarize),
		})
		return nil
	case OverflowError:
		fallthrough
	default:
		return &RecoveryError{Kind: FailureNoFallback, Detail: "context overflow: action is error"}
	}
}
