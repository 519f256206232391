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

import "time"

// CompressEvent is emitted whenever Compress folds a batch of recent
// messages into the running summary.
type CompressEvent struct {
	At               time.Time
	MessagesFolded   int
	TokensBefore     int
	TokensAfter      int
	CompressionRatio float64
}

// EvictReason explains why EvictOldest removed messages.
type EvictReason string

const (
	EvictReasonUnconditional EvictReason = "unconditional"
	EvictReasonOverflow      EvictReason = "overflow_truncate"
)

// EvictEvent is emitted whenever EvictOldest drops messages without
// summarising them.
type EvictEvent struct {
	At       time.Time
	Count    int
	Reason   EvictReason
}

// BudgetEvent is emitted the first time a turn's usage crosses
// WarnAtPercent of the configured token budget. It is idempotent per
// turn: the memory tracks whether it has already fired this turn.
type BudgetEvent struct {
	At           time.Time
	UsedTokens   int
	BudgetTokens int
	Percent      float64
}

// Sink receives memory events. Callers that don't care can pass nil;
// ConversationMemory treats a nil Sink as a no-op.
type Sink interface {
	OnCompress(CompressEvent)
	OnEvict(EvictEvent)
	OnBudget(BudgetEvent)
}

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) OnCompress(CompressEvent) {}
func (NoopSink) OnEvict(EvictEvent)       {}
func (NoopSink) OnBudget(BudgetEvent)     {}
