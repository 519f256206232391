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

package tool

import (
	"context"
	"time"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// Harness wraps Execute with the per-tool timeout enforced around the
// call (spec §5: "Per-tool timeout is enforced by the tool harness
// around execute") and the security policy gate.
type Harness struct {
	Policies map[string]*SecurityPolicy // tool id -> policy
	Timeout  time.Duration              // 0 = no enforced timeout
}

// NewHarness builds a Harness with the given default per-tool timeout.
func NewHarness(timeout time.Duration) *Harness {
	return &Harness{Policies: make(map[string]*SecurityPolicy), Timeout: timeout}
}

// SetPolicy installs a SecurityPolicy for a specific tool id.
func (h *Harness) SetPolicy(toolID string, p *SecurityPolicy) {
	h.Policies[toolID] = p
}

func (h *Harness) policyFor(toolID string) *SecurityPolicy {
	if p, ok := h.Policies[toolID]; ok {
		return p
	}
	defaultPolicy := DefaultSecurityPolicy()
	return &defaultPolicy
}

// Execute runs t's Execute under the configured timeout, after passing
// its security policy's rate-limit/enabled gate. RequireApproval is
// surfaced to the caller via NeedsApproval so the orchestrator can
// route through HITL before invoking Execute at all.
func (h *Harness) Execute(ctx context.Context, t Tool, args map[string]any) (Result, error) {
	d := t.Descriptor()
	policy := h.policyFor(d.ID)

	if err := policy.Allow(); err != nil {
		return Result{}, err
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if h.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := t.Execute(callCtx, args)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return Result{}, agenterr.Wrapf(agenterr.KindTool, o.err, "tool: %q execution failed", d.ID)
		}
		return o.res, nil
	case <-callCtx.Done():
		return Result{}, agenterr.Newf(agenterr.KindTool, "tool: %q timed out", d.ID)
	}
}

// NeedsApproval reports whether toolID's security policy requires HITL
// approval before Execute runs.
func (h *Harness) NeedsApproval(toolID string) bool {
	return h.policyFor(toolID).RequireApproval
}
