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

// Package memory implements the compacting conversation memory: a
// bounded recent-message window backed by a growing summary, a
// language-aware token estimator, and a component-budgeted overflow
// policy. See spec §4.3.
package memory

import (
	"unicode"

	"github.com/kadirpekel/agentrt/pkg/message"
)

// messageOverheadTokens approximates the fixed per-message cost of
// role/name wrapping in a chat completion payload.
const messageOverheadTokens = 4

// Estimator measures the token cost of text and messages. Exactness is
// not required or promised (spec §4.3); it exists to make compaction
// decisions directionally correct across languages.
type Estimator interface {
	EstimateText(s string) int
	EstimateMessage(m message.ChatMessage) int
	EstimateMessages(msgs []message.ChatMessage) int
}

// DefaultEstimator weighs ASCII characters at 1/4 token, CJK
// characters at 1.5 tokens, and everything else at 1 token, per
// spec §4.3's "language-aware estimator".
type DefaultEstimator struct{}

func (DefaultEstimator) EstimateText(s string) int {
	var total float64
	for _, r := range s {
		switch {
		case r <= unicode.MaxASCII:
			total += 0.25
		case isCJK(r):
			total += 1.5
		default:
			total += 1.0
		}
	}
	return int(total + 0.5)
}

func (e DefaultEstimator) EstimateMessage(m message.ChatMessage) int {
	return e.EstimateText(m.Content) + messageOverheadTokens
}

func (e DefaultEstimator) EstimateMessages(msgs []message.ChatMessage) int {
	total := 0
	for _, m := range msgs {
		total += e.EstimateMessage(m)
	}
	return total
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
