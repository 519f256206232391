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
	"strings"

	"github.com/kadirpekel/agentrt/pkg/message"
)

// MessageFilter splits a message history into the portion that should
// be summarized and the portion that survives verbatim, when the
// history is too long to keep as-is. keepRecent always applies to the
// tail of messages regardless of filter.
type MessageFilter interface {
	Filter(messages []message.ChatMessage, keepRecent int) (toSummarize, toKeep []message.ChatMessage)
	Name() string
}

func splitRecent(messages []message.ChatMessage, keepRecent int) (older, recent []message.ChatMessage) {
	if keepRecent <= 0 || keepRecent >= len(messages) {
		return nil, messages
	}
	cut := len(messages) - keepRecent
	return messages[:cut], messages[cut:]
}

// KeepRecentFilter summarizes everything except the last keepRecent
// messages.
type KeepRecentFilter struct{}

func (KeepRecentFilter) Name() string { return "keep_recent" }

func (KeepRecentFilter) Filter(messages []message.ChatMessage, keepRecent int) ([]message.ChatMessage, []message.ChatMessage) {
	older, recent := splitRecent(messages, keepRecent)
	return older, recent
}

// ByRoleFilter keeps the last keepRecent messages verbatim, and among
// the older messages additionally keeps (rather than summarizes) any
// whose role is in KeepRoles.
type ByRoleFilter struct {
	KeepRoles []string
}

func (ByRoleFilter) Name() string { return "by_role" }

func (f ByRoleFilter) Filter(messages []message.ChatMessage, keepRecent int) ([]message.ChatMessage, []message.ChatMessage) {
	older, recent := splitRecent(messages, keepRecent)

	keepSet := make(map[string]struct{}, len(f.KeepRoles))
	for _, r := range f.KeepRoles {
		keepSet[strings.ToLower(r)] = struct{}{}
	}

	var toSummarize, toKeep []message.ChatMessage
	for _, m := range older {
		if _, ok := keepSet[strings.ToLower(string(m.Role))]; ok {
			toKeep = append(toKeep, m)
		} else {
			toSummarize = append(toSummarize, m)
		}
	}
	toKeep = append(toKeep, recent...)
	return toSummarize, toKeep
}

// SkipPatternFilter keeps the last keepRecent messages verbatim. Among
// older messages, any whose content contains one of SkipIfContains is
// dropped entirely (excluded from both the summarized and kept
// results); the rest are summarized.
type SkipPatternFilter struct {
	SkipIfContains []string
}

func (SkipPatternFilter) Name() string { return "skip_pattern" }

func (f SkipPatternFilter) Filter(messages []message.ChatMessage, keepRecent int) ([]message.ChatMessage, []message.ChatMessage) {
	older, recent := splitRecent(messages, keepRecent)

	var toSummarize []message.ChatMessage
	for _, m := range older {
		skip := false
		for _, pattern := range f.SkipIfContains {
			if strings.Contains(m.Content, pattern) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		toSummarize = append(toSummarize, m)
	}
	return toSummarize, recent
}

// filterFromConfig builds the MessageFilter a FilterConfig names,
// defaulting to KeepRecentFilter when cfg is nil.
func filterFromConfig(cfg *FilterConfig) MessageFilter {
	if cfg == nil {
		return KeepRecentFilter{}
	}
	switch cfg.Type {
	case FilterByRole:
		return ByRoleFilter{KeepRoles: cfg.KeepRoles}
	case FilterSkipPattern:
		return SkipPatternFilter{SkipIfContains: cfg.SkipIfContains}
	case FilterKeepRecent, FilterCustom, "":
		return KeepRecentFilter{}
	default:
		return KeepRecentFilter{}
	}
}
