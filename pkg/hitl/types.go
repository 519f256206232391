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

// Package hitl implements human-in-the-loop approval: gated tool calls,
// state transitions, or free-form conditions are interposed with an
// ApprovalRequest before they are allowed to proceed, and resolved by a
// pluggable ApprovalHandler.
package hitl

import (
	"time"

	"github.com/google/uuid"
)

// TriggerKind discriminates the reason an approval was raised.
type TriggerKind string

const (
	TriggerTool      TriggerKind = "tool"
	TriggerCondition TriggerKind = "condition"
	TriggerState     TriggerKind = "state"
)

// Trigger identifies what provoked an ApprovalRequest. Exactly the
// fields relevant to Kind are populated.
type Trigger struct {
	Kind TriggerKind

	// TriggerTool
	ToolName string
	ToolArgs map[string]any

	// TriggerCondition
	ConditionName    string
	ConditionMatched string

	// TriggerState
	StateFrom string
	StateTo   string
}

// ToolTrigger builds a Trigger for a gated tool call.
func ToolTrigger(name string, args map[string]any) Trigger {
	return Trigger{Kind: TriggerTool, ToolName: name, ToolArgs: args}
}

// ConditionTrigger builds a Trigger for a named free-form condition.
func ConditionTrigger(name, matched string) Trigger {
	return Trigger{Kind: TriggerCondition, ConditionName: name, ConditionMatched: matched}
}

// StateTrigger builds a Trigger for a state transition. from is empty
// for the initial entry into to.
func StateTrigger(from, to string) Trigger {
	return Trigger{Kind: TriggerState, StateFrom: from, StateTo: to}
}

// ApprovalRequest is emitted by the engine before a gated action and
// passed to the configured ApprovalHandler.
type ApprovalRequest struct {
	ID      string
	Trigger Trigger
	Context map[string]any
	Message string
	Timeout time.Duration // zero means no timeout
}

// NewApprovalRequest builds a request with a fresh id and no timeout.
func NewApprovalRequest(trigger Trigger, message string) ApprovalRequest {
	return ApprovalRequest{
		ID:      uuid.NewString(),
		Trigger: trigger,
		Context: map[string]any{},
		Message: message,
	}
}

// WithContext attaches extra context data, returning the request.
func (r ApprovalRequest) WithContext(ctx map[string]any) ApprovalRequest {
	r.Context = ctx
	return r
}

// WithTimeout sets the request's timeout.
func (r ApprovalRequest) WithTimeout(d time.Duration) ApprovalRequest {
	r.Timeout = d
	return r
}

// ApprovalStatus discriminates the outcome of an ApprovalRequest.
type ApprovalStatus string

const (
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
	StatusModified ApprovalStatus = "modified"
	StatusTimeout  ApprovalStatus = "timeout"
)

// ApprovalResult is the handler's verdict on an ApprovalRequest.
// Approved and Modified permit the gated action to proceed (Modified
// substitutes Changes into the tool call's arguments); Rejected and
// Timeout abort it.
type ApprovalResult struct {
	Status  ApprovalStatus
	Reason  string
	Changes map[string]any
}

func Approved() ApprovalResult { return ApprovalResult{Status: StatusApproved} }

func Rejected(reason string) ApprovalResult {
	return ApprovalResult{Status: StatusRejected, Reason: reason}
}

func Modified(changes map[string]any) ApprovalResult {
	return ApprovalResult{Status: StatusModified, Changes: changes}
}

func Timeout() ApprovalResult { return ApprovalResult{Status: StatusTimeout} }

func (r ApprovalResult) IsApproved() bool {
	return r.Status == StatusApproved || r.Status == StatusModified
}

func (r ApprovalResult) IsRejected() bool { return r.Status == StatusRejected }

func (r ApprovalResult) IsTimeout() bool { return r.Status == StatusTimeout }

// CheckResult is the engine's verdict on whether a candidate action
// needs approval at all.
type CheckResult struct {
	Required bool
	Trigger  Trigger
	Context  map[string]any
	Message  string
	Timeout  time.Duration
}

// NotRequired is the zero-cost "no approval needed" result.
func NotRequired() CheckResult { return CheckResult{} }

// RequireApproval builds a CheckResult demanding approval.
func RequireApproval(trigger Trigger, ctx map[string]any, message string, timeout time.Duration) CheckResult {
	return CheckResult{Required: true, Trigger: trigger, Context: ctx, Message: message, Timeout: timeout}
}

// IntoRequest converts a required CheckResult into an ApprovalRequest,
// or reports ok=false when no approval was required.
func (c CheckResult) IntoRequest() (ApprovalRequest, bool) {
	if !c.Required {
		return ApprovalRequest{}, false
	}
	req := NewApprovalRequest(c.Trigger, c.Message).WithContext(c.Context)
	if c.Timeout > 0 {
		req = req.WithTimeout(c.Timeout)
	}
	return req, true
}
