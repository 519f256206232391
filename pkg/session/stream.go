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

package session

// ChunkKind tags the variant carried by a StreamChunk (spec §6's stream
// chunk taxonomy).
type ChunkKind string

const (
	ChunkContent         ChunkKind = "content"
	ChunkToolCallStart   ChunkKind = "tool_call_start"
	ChunkToolCallDelta   ChunkKind = "tool_call_delta"
	ChunkToolCallEnd     ChunkKind = "tool_call_end"
	ChunkToolResult      ChunkKind = "tool_result"
	ChunkStateTransition ChunkKind = "state_transition"
	ChunkDone            ChunkKind = "done"
	ChunkError           ChunkKind = "error"
)

// StreamChunk is one increment of a chat_stream call. Only the fields
// relevant to Kind are populated; the rest are zero-valued. A stream
// is finite and produces exactly one terminal chunk (Done or Error);
// nothing follows an Error chunk.
type StreamChunk struct {
	Kind ChunkKind

	// ChunkContent
	Text string `json:"text,omitempty"`

	// ChunkToolCallStart / ChunkToolCallDelta / ChunkToolCallEnd / ChunkToolResult
	ToolCallID string `json:"id,omitempty"`
	ToolName   string `json:"name,omitempty"`
	Arguments  string `json:"arguments,omitempty"` // partial JSON, ChunkToolCallDelta only
	Output     any    `json:"output,omitempty"`
	Success    bool   `json:"success,omitempty"`

	// ChunkStateTransition
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// ChunkError
	Message string `json:"message,omitempty"`
}

func NewContentChunk(text string) StreamChunk {
	return StreamChunk{Kind: ChunkContent, Text: text}
}

func NewToolCallStartChunk(id, name string) StreamChunk {
	return StreamChunk{Kind: ChunkToolCallStart, ToolCallID: id, ToolName: name}
}

func NewToolCallDeltaChunk(id, argumentsDelta string) StreamChunk {
	return StreamChunk{Kind: ChunkToolCallDelta, ToolCallID: id, Arguments: argumentsDelta}
}

func NewToolCallEndChunk(id string) StreamChunk {
	return StreamChunk{Kind: ChunkToolCallEnd, ToolCallID: id}
}

func NewToolResultChunk(id, name string, output any, success bool) StreamChunk {
	return StreamChunk{Kind: ChunkToolResult, ToolCallID: id, ToolName: name, Output: output, Success: success}
}

// NewStateTransitionChunk builds a transition chunk from the state
// being left to the state entered.
func NewStateTransitionChunk(from, to string) StreamChunk {
	return StreamChunk{Kind: ChunkStateTransition, From: from, To: to}
}

func NewDoneChunk() StreamChunk {
	return StreamChunk{Kind: ChunkDone}
}

func NewErrorChunk(message string) StreamChunk {
	return StreamChunk{Kind: ChunkError, Message: message}
}

// Terminal reports whether this chunk ends the stream.
func (c StreamChunk) Terminal() bool {
	return c.Kind == ChunkDone || c.Kind == ChunkError
}
