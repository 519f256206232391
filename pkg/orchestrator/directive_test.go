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
	"testing"

	"github.com/stretchr/testify/assert"
)

func allowAll(string) bool { return true }

func TestParseToolDirective_BareJSON(t *testing.T) {
	d, ok := parseToolDirective(`{"tool": "calculator", "arguments": {"expr": "1+1"}}`, allowAll)
	assert.True(t, ok)
	assert.Equal(t, "calculator", d.Tool)
	assert.Equal(t, "1+1", d.Arguments["expr"])
}

func TestParseToolDirective_SurroundedByProse(t *testing.T) {
	text := "Let me check that for you.\n" + `{"tool": "calculator", "arguments": {"expr": "2*2"}}` + "\nOne moment."
	d, ok := parseToolDirective(text, allowAll)
	assert.True(t, ok)
	assert.Equal(t, "calculator", d.Tool)
}

func TestParseToolDirective_FencedBlock(t *testing.T) {
	text := "```json\n" + `{"tool": "calculator", "arguments": {}}` + "\n```"
	d, ok := parseToolDirective(text, allowAll)
	assert.True(t, ok)
	assert.Equal(t, "calculator", d.Tool)
}

func TestParseToolDirective_RejectsUnregisteredTool(t *testing.T) {
	isRegistered := func(id string) bool { return id == "calculator" }
	_, ok := parseToolDirective(`{"tool": "rm_rf", "arguments": {}}`, isRegistered)
	assert.False(t, ok)
}

func TestParseToolDirective_NoMatchInPlainText(t *testing.T) {
	_, ok := parseToolDirective("The answer is 4.", allowAll)
	assert.False(t, ok)
}

func TestParseToolDirective_IgnoresBracesInsideStrings(t *testing.T) {
	text := `{"tool": "calculator", "arguments": {"expr": "a{b}c"}}`
	d, ok := parseToolDirective(text, allowAll)
	assert.True(t, ok)
	assert.Equal(t, "a{b}c", d.Arguments["expr"])
}

func TestIsBareToolName(t *testing.T) {
	assert.True(t, isBareToolName(`{"tool": "calculator"}`))
	assert.True(t, isBareToolName("```json\n{}\n```"))
	assert.False(t, isBareToolName("just a plain sentence"))
}
