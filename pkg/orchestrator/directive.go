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

package orchestrator

import (
	"encoding/json"
	"strings"
)

// toolDirective is the tool-call wire format an LLM emits inline in
// its text output (spec §6): a JSON object naming a registered tool
// and its arguments.
type toolDirective struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// parseToolDirective scans text for the first balanced JSON object
// whose "tool" field satisfies isRegistered, tolerant of ```-fenced
// blocks and surrounding prose. Unlike llm.ExtractJSON (which assumes
// the whole string is meant to decode as one JSON value), this walks
// every candidate object in the text because a tool-call directive is
// typically surrounded by explanatory prose rather than being the
// entire response.
func parseToolDirective(text string, isRegistered func(id string) bool) (toolDirective, bool) {
	for _, span := range candidateJSONObjects(text) {
		var d toolDirective
		if err := json.Unmarshal([]byte(span), &d); err != nil {
			continue
		}
		if d.Tool == "" {
			continue
		}
		if isRegistered != nil && !isRegistered(d.Tool) {
			continue
		}
		return d, true
	}
	return toolDirective{}, false
}

// candidateJSONObjects returns every balanced top-level {...} span in
// text, in order of appearance. Brace matching tracks string literals
// and escape sequences so braces inside quoted strings never skew the
// depth count.
func candidateJSONObjects(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}

// isBareToolName reports whether text contains a `{` or a ``` fence
// anywhere, i.e. could plausibly hold a JSON directive (cheap pre-filter
// used by callers that want to short-circuit scanning obviously
// tool-free text, e.g. single-word replies).
func isBareToolName(text string) bool {
	t := strings.TrimSpace(text)
	return strings.Contains(t, "{") || strings.Contains(t, "```")
}
