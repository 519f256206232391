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

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// ConversationContext is the materialised view used for prompt
// assembly: an optional summary plus the recent messages still in
// full.
type ConversationContext struct {
	Summary string
	Recent  []message.ChatMessage
}

// Config tunes a ConversationMemory's compaction thresholds.
type Config struct {
	MaxRecentMessages  int
	CompressThreshold  int // compress only once |recent| >= this
	SummarizeBatchSize int // oldest N messages folded per Compress call
	MaxSummaryLength   int // advisory; see DESIGN.md Open Question 1
}

// ConversationMemory is the compacting memory described in spec §4.3:
// a bounded recent-message window backed by a monotonically growing
// summary. All mutating operations are guarded by a single RWMutex —
// single-writer (the owning orchestrator), safe for concurrent
// snapshot-export readers (spec §5).
type ConversationMemory struct {
	mu sync.RWMutex

	cfg       Config
	estimator Estimator
	sink      Sink

	recent           []message.ChatMessage
	summary          string
	summarizedCount  int
	budgetWarnedTurn bool
}

// New builds a ConversationMemory. A nil sink is treated as NoopSink;
// a nil estimator defaults to DefaultEstimator.
func New(cfg Config, estimator Estimator, sink Sink) *ConversationMemory {
	if estimator == nil {
		estimator = DefaultEstimator{}
	}
	if sink == nil {
		sink = NoopSink{}
	}
	return &ConversationMemory{cfg: cfg, estimator: estimator, sink: sink}
}

// Add appends m to the recent window, dropping from the front if the
// window exceeds MaxRecentMessages.
func (m *ConversationMemory) Add(msg message.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = append(m.recent, msg)
	if m.cfg.MaxRecentMessages > 0 && len(m.recent) > m.cfg.MaxRecentMessages {
		drop := len(m.recent) - m.cfg.MaxRecentMessages
		m.recent = m.recent[drop:]
	}
}

// Compress folds the oldest SummarizeBatchSize messages into the
// running summary, only once |recent| >= CompressThreshold. It is a
// no-op below threshold. The fold is atomic with respect to readers:
// recent/summary are only mutated once the summariser has returned.
func (m *ConversationMemory) Compress(ctx context.Context, summarizer Summarizer) error {
	m.mu.Lock()
	if m.cfg.CompressThreshold <= 0 || len(m.recent) < m.cfg.CompressThreshold {
		m.mu.Unlock()
		return nil
	}

	batchSize := m.cfg.SummarizeBatchSize
	if batchSize <= 0 || batchSize > len(m.recent) {
		batchSize = len(m.recent)
	}
	batch := make([]message.ChatMessage, batchSize)
	copy(batch, m.recent[:batchSize])
	existingSummary := m.summary
	tokensBefore := m.estimator.EstimateMessages(m.recent) + m.estimator.EstimateText(existingSummary)
	m.mu.Unlock()

	folded, err := summarizer.Summarize(ctx, batch, m.cfg.MaxSummaryLength)
	if err != nil {
		return agenterr.Wrap(agenterr.KindOther, "memory: summarize batch", err)
	}
	merged, err := summarizer.MergeSummaries(ctx, existingSummary, folded, m.cfg.MaxSummaryLength)
	if err != nil {
		return agenterr.Wrap(agenterr.KindOther, "memory: merge summaries", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = m.recent[batchSize:]
	m.summary = merged
	m.summarizedCount += batchSize

	tokensAfter := m.estimator.EstimateMessages(m.recent) + m.estimator.EstimateText(m.summary)
	ratio := 1.0
	if tokensBefore > 0 {
		ratio = float64(tokensAfter) / float64(tokensBefore)
	}
	m.sink.OnCompress(CompressEvent{
		At:               timeNow(),
		MessagesFolded:   batchSize,
		TokensBefore:     tokensBefore,
		TokensAfter:      tokensAfter,
		CompressionRatio: ratio,
	})
	return nil
}

// EvictOldest unconditionally drops the oldest n recent messages,
// emitting an EvictEvent. It never touches the summary.
func (m *ConversationMemory) EvictOldest(n int, reason EvictReason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 {
		return
	}
	if n > len(m.recent) {
		n = len(m.recent)
	}
	m.recent = m.recent[n:]
	m.sink.OnEvict(EvictEvent{At: timeNow(), Count: n, Reason: reason})
}

// ToLLMMessagesWithBudget produces the prompt bundle: the summary (if
// any and within cap) as a system message, then recent messages
// appended from newest backward until the cap would be exceeded, then
// reversed to chronological order.
func (m *ConversationMemory) ToLLMMessagesWithBudget(tokenCap int) []message.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []message.ChatMessage
	used := 0

	if m.summary != "" {
		summaryMsg := message.System(m.summary)
		cost := m.estimator.EstimateMessage(summaryMsg)
		if tokenCap <= 0 || cost <= tokenCap {
			out = append(out, summaryMsg)
			used += cost
		}
	}

	var picked []message.ChatMessage
	for i := len(m.recent) - 1; i >= 0; i-- {
		cost := m.estimator.EstimateMessage(m.recent[i])
		if tokenCap > 0 && used+cost > tokenCap {
			break
		}
		picked = append(picked, m.recent[i])
		used += cost
	}
	for i := len(picked) - 1; i >= 0; i-- {
		out = append(out, picked[i])
	}
	return out
}

// CheckBudget reports the current estimated usage against budget and
// fires a BudgetEvent exactly once per ResetBudgetWarning call if usage
// crosses WarnAtPercent.
func (m *ConversationMemory) CheckBudget(budget TokenBudget) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.estimator.EstimateMessages(m.recent) + m.estimator.EstimateText(m.summary)
	if !m.budgetWarnedTurn && budget.ExceedsWarnThreshold(used) {
		m.budgetWarnedTurn = true
		m.sink.OnBudget(BudgetEvent{
			At:           timeNow(),
			UsedTokens:   used,
			BudgetTokens: budget.Total,
			Percent:      budget.UsagePercent(used),
		})
	}
	return used
}

// ResetBudgetWarning clears the per-turn idempotency flag so the next
// turn's CheckBudget can fire again. The orchestrator calls this once
// per turn boundary.
func (m *ConversationMemory) ResetBudgetWarning() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgetWarnedTurn = false
}

// Snapshot is the persistable pair (summary, recent, summarized count).
type Snapshot struct {
	Summary         string                 `json:"summary"`
	Recent          []message.ChatMessage  `json:"recent"`
	SummarizedCount int                    `json:"summarized_count"`
}

// Snapshot captures the current memory state for persistence.
func (m *ConversationMemory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recent := make([]message.ChatMessage, len(m.recent))
	copy(recent, m.recent)
	return Snapshot{Summary: m.summary, Recent: recent, SummarizedCount: m.summarizedCount}
}

// Restore replaces the memory's state with a previously captured
// Snapshot.
func (m *ConversationMemory) Restore(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summary = s.Summary
	m.recent = make([]message.ChatMessage, len(s.Recent))
	copy(m.recent, s.Recent)
	m.summarizedCount = s.SummarizedCount
}

// Context materialises the current (summary?, recent messages) view.
func (m *ConversationMemory) Context() ConversationContext {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recent := make([]message.ChatMessage, len(m.recent))
	copy(recent, m.recent)
	return ConversationContext{Summary: m.summary, Recent: recent}
}

// SummarizedCount returns how many messages have been folded into the
// summary so far, forming (with the summary itself) a monotonic
// history per spec §4.3's invariant.
func (m *ConversationMemory) SummarizedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summarizedCount
}

var timeNow = time.Now
