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

import "strings"

// ToolCatalogEntry describes one tool available for selection.
type ToolCatalogEntry struct {
	ID          string
	Description string
}

// ToolSelection is the typed result of the tool-selection capability.
type ToolSelection struct {
	ToolID     string  `json:"tool_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// YesNo is the typed result of the yes/no evaluation capability.
type YesNo struct {
	Answer    bool   `json:"answer"`
	Reasoning string `json:"reasoning"`
}

// Classification is the typed result of the classification capability.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func buildToolSelectionPrompt(input string, tools []ToolCatalogEntry) string {
	var b strings.Builder
	b.WriteString("You are selecting the single best tool to handle a user request.\n\n")
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		b.WriteString("- ")
		b.WriteString(t.ID)
		b.WriteString(": ")
		b.WriteString(t.Description)
		b.WriteString("\n")
	}
	b.WriteString("\nUser request: ")
	b.WriteString(input)
	b.WriteString("\n\nRespond with JSON only: {\"tool_id\": string, \"confidence\": number 0-1, \"reasoning\": string}.")
	return b.String()
}

func buildToolArgsPrompt(toolID, input, schemaJSON string) string {
	var b strings.Builder
	b.WriteString("Generate arguments for tool \"")
	b.WriteString(toolID)
	b.WriteString("\" to satisfy this request: ")
	b.WriteString(input)
	b.WriteString("\n\nInput schema (JSON Schema):\n")
	b.WriteString(schemaJSON)
	b.WriteString("\n\nRespond with JSON only, conforming exactly to the schema.")
	return b.String()
}

func buildYesNoPrompt(question, context string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nRespond with JSON only: {\"answer\": boolean, \"reasoning\": string}.")
	return b.String()
}

func buildClassifyPrompt(input string, categories []string) string {
	var b strings.Builder
	b.WriteString("Classify the following input into exactly one of these categories: ")
	for i, c := range categories {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
	}
	b.WriteString("\n\nInput: ")
	b.WriteString(input)
	b.WriteString("\n\nRespond with JSON only: {\"category\": string, \"confidence\": number 0-1}.")
	return b.String()
}
