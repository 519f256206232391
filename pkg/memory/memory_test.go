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

package memory_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/memory"
	"github.com/kadirpekel/agentrt/pkg/message"
)

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, msgs []message.ChatMessage, _ int) (string, error) {
	f.calls++
	var texts []string
	for _, m := range msgs {
		texts = append(texts, m.Content)
	}
	return "summary of: " + strings.Join(texts, ", "), nil
}

func (f *fakeSummarizer) MergeSummaries(_ context.Context, existing, incoming string, _ int) (string, error) {
	if existing == "" {
		return incoming, nil
	}
	return fmt.Sprintf("%s | %s", existing, incoming), nil
}

type recordingSink struct {
	compress []memory.CompressEvent
	evict    []memory.EvictEvent
	budget   []memory.BudgetEvent
}

func (s *recordingSink) OnCompress(e memory.CompressEvent) { s.compress = append(s.compress, e) }
func (s *recordingSink) OnEvict(e memory.EvictEvent)       { s.evict = append(s.evict, e) }
func (s *recordingSink) OnBudget(e memory.BudgetEvent)     { s.budget = append(s.budget, e) }

func TestAdd_DropsFromFrontWhenOverCapacity(t *testing.T) {
	m := memory.New(memory.Config{MaxRecentMessages: 2}, nil, nil)
	m.Add(message.User("one"))
	m.Add(message.User("two"))
	m.Add(message.User("three"))

	ctx := m.Context()
	require.Len(t, ctx.Recent, 2)
	assert.Equal(t, "two", ctx.Recent[0].Content)
	assert.Equal(t, "three", ctx.Recent[1].Content)
}

func TestCompress_NoOpBelowThreshold(t *testing.T) {
	sink := &recordingSink{}
	m := memory.New(memory.Config{CompressThreshold: 5, SummarizeBatchSize: 2}, nil, sink)
	m.Add(message.User("one"))

	require.NoError(t, m.Compress(context.Background(), &fakeSummarizer{}))
	assert.Empty(t, sink.compress)
	assert.Equal(t, 0, m.SummarizedCount())
}

func TestCompress_FoldsOldestBatchIntoSummary(t *testing.T) {
	sink := &recordingSink{}
	m := memory.New(memory.Config{CompressThreshold: 3, SummarizeBatchSize: 2}, nil, sink)
	m.Add(message.User("one"))
	m.Add(message.User("two"))
	m.Add(message.User("three"))

	summarizer := &fakeSummarizer{}
	require.NoError(t, m.Compress(context.Background(), summarizer))

	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, 2, m.SummarizedCount())
	assert.Len(t, sink.compress, 1)

	ctx := m.Context()
	assert.Contains(t, ctx.Summary, "summary of: one, two")
	require.Len(t, ctx.Recent, 1)
	assert.Equal(t, "three", ctx.Recent[0].Content)
}

func TestCompress_SummaryOnlyGrows(t *testing.T) {
	m := memory.New(memory.Config{CompressThreshold: 2, SummarizeBatchSize: 2}, nil, nil)
	m.Add(message.User("one"))
	m.Add(message.User("two"))
	require.NoError(t, m.Compress(context.Background(), &fakeSummarizer{}))
	firstSummary := m.Context().Summary

	m.Add(message.User("three"))
	m.Add(message.User("four"))
	require.NoError(t, m.Compress(context.Background(), &fakeSummarizer{}))
	secondSummary := m.Context().Summary

	assert.Contains(t, secondSummary, firstSummary)
	assert.Equal(t, 4, m.SummarizedCount())
}

func TestEvictOldest_UnconditionalDrop(t *testing.T) {
	sink := &recordingSink{}
	m := memory.New(memory.Config{}, nil, sink)
	m.Add(message.User("one"))
	m.Add(message.User("two"))
	m.Add(message.User("three"))

	m.EvictOldest(2, memory.EvictReasonOverflow)

	ctx := m.Context()
	require.Len(t, ctx.Recent, 1)
	assert.Equal(t, "three", ctx.Recent[0].Content)
	require.Len(t, sink.evict, 1)
	assert.Equal(t, memory.EvictReasonOverflow, sink.evict[0].Reason)
}

func TestToLLMMessagesWithBudget_NewestFirstThenReversed(t *testing.T) {
	m := memory.New(memory.Config{}, memory.DefaultEstimator{}, nil)
	m.Add(message.User("a"))
	m.Add(message.User("b"))
	m.Add(message.User("c"))

	// Generous cap: everything fits, order must be chronological.
	out := m.ToLLMMessagesWithBudget(10000)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "c"}, contents(out))
}

func TestToLLMMessagesWithBudget_TightCapKeepsNewestOnly(t *testing.T) {
	m := memory.New(memory.Config{}, memory.DefaultEstimator{}, nil)
	m.Add(message.User("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	m.Add(message.User("b"))

	estimator := memory.DefaultEstimator{}
	smallCap := estimator.EstimateMessage(message.User("b"))
	out := m.ToLLMMessagesWithBudget(smallCap)

	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Content)
}

func TestToLLMMessagesWithBudget_IncludesSummaryWhenPresent(t *testing.T) {
	m := memory.New(memory.Config{CompressThreshold: 1, SummarizeBatchSize: 1}, memory.DefaultEstimator{}, nil)
	m.Add(message.User("one"))
	require.NoError(t, m.Compress(context.Background(), &fakeSummarizer{}))
	m.Add(message.User("two"))

	out := m.ToLLMMessagesWithBudget(10000)
	require.True(t, len(out) >= 2)
	assert.Equal(t, message.RoleSystem, out[0].Role)
}

func TestSnapshotRestore_RoundTrips(t *testing.T) {
	m := memory.New(memory.Config{CompressThreshold: 1, SummarizeBatchSize: 1}, nil, nil)
	m.Add(message.User("one"))
	require.NoError(t, m.Compress(context.Background(), &fakeSummarizer{}))
	m.Add(message.User("two"))

	snap := m.Snapshot()

	restored := memory.New(memory.Config{}, nil, nil)
	restored.Restore(snap)

	assert.Equal(t, m.Context(), restored.Context())
	assert.Equal(t, m.SummarizedCount(), restored.SummarizedCount())
}

func TestCheckBudget_FiresOnceUntilReset(t *testing.T) {
	sink := &recordingSink{}
	m := memory.New(memory.Config{}, memory.DefaultEstimator{}, sink)
	m.Add(message.User("some moderately long message content here"))

	budget := memory.TokenBudget{Total: 1, WarnAtPercent: 0.1}
	m.CheckBudget(budget)
	m.CheckBudget(budget)
	assert.Len(t, sink.budget, 1)

	m.ResetBudgetWarning()
	m.CheckBudget(budget)
	assert.Len(t, sink.budget, 2)
}

func contents(msgs []message.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
