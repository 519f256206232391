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

package llm

import (
	"encoding/json"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// ExtractJSON implements the capability-response JSON extraction policy:
// try a raw parse first, then strip a ```json fenced block, then a
// generic fenced block, then fall back to locating the outermost {...}
// span. Failure carries the offending text so callers can log it.
func ExtractJSON(raw string, out any) error {
	candidates := []string{strings.TrimSpace(raw)}

	if fenced, ok := stripFence(raw, "```json"); ok {
		candidates = append(candidates, fenced)
	}
	if fenced, ok := stripFence(raw, "```"); ok {
		candidates = append(candidates, fenced)
	}
	if span, ok := outermostBraces(raw); ok {
		candidates = append(candidates, span)
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if err := json.Unmarshal([]byte(c), out); err == nil {
			return nil
		}
	}

	return agenterr.Newf(agenterr.KindLLM, "llm: could not extract JSON from response: %q", truncate(raw, 200))
}

func stripFence(raw, open string) (string, bool) {
	idx := strings.Index(raw, open)
	if idx == -1 {
		return "", false
	}
	rest := raw[idx+len(open):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func outermostBraces(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
