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

package hitl

import (
	"context"
	"log/slog"
)

// ApprovalHandler resolves an ApprovalRequest. Implementations are
// shared across sessions and must be safe for concurrent use; the UI
// or channel a handler talks to (REPL prompt, Slack approval, ticket
// queue) is deliberately out of this package's scope.
type ApprovalHandler interface {
	RequestApproval(ctx context.Context, request ApprovalRequest) ApprovalResult

	// PreferredLanguage names the language approval messages should be
	// rendered in, or "" to use the engine's default.
	PreferredLanguage() string

	// SupportedLanguages restricts MessageResolver's candidate list, or
	// nil to accept whatever PreferredLanguage names.
	SupportedLanguages() []string
}

// RejectAllHandler rejects every request, logging a warning. It is the
// safe default when no handler is configured: gated actions must not
// silently proceed.
type RejectAllHandler struct{}

func NewRejectAllHandler() RejectAllHandler { return RejectAllHandler{} }

func (RejectAllHandler) RequestApproval(_ context.Context, request ApprovalRequest) ApprovalResult {
	slog.Warn("hitl: auto-rejecting, no approval handler configured", "message", request.Message)
	return Rejected("No approval handler configured")
}

func (RejectAllHandler) PreferredLanguage() string    { return "" }
func (RejectAllHandler) SupportedLanguages() []string { return nil }

// AutoApproveHandler approves every request. Intended for tests and
// development agents, never for a production deployment with real
// gated actions.
type AutoApproveHandler struct{}

func NewAutoApproveHandler() AutoApproveHandler { return AutoApproveHandler{} }

func (AutoApproveHandler) RequestApproval(_ context.Context, request ApprovalRequest) ApprovalResult {
	slog.Info("hitl: auto-approving", "message", request.Message)
	return Approved()
}

func (AutoApproveHandler) PreferredLanguage() string    { return "" }
func (AutoApproveHandler) SupportedLanguages() []string { return nil }

// CallbackHandler adapts a plain function into an ApprovalHandler.
type CallbackHandler struct {
	fn func(context.Context, ApprovalRequest) ApprovalResult
}

// NewCallbackHandler wraps fn as an ApprovalHandler.
func NewCallbackHandler(fn func(context.Context, ApprovalRequest) ApprovalResult) *CallbackHandler {
	return &CallbackHandler{fn: fn}
}

func (h *CallbackHandler) RequestApproval(ctx context.Context, request ApprovalRequest) ApprovalResult {
	return h.fn(ctx, request)
}

func (h *CallbackHandler) PreferredLanguage() string    { return "" }
func (h *CallbackHandler) SupportedLanguages() []string { return nil }

// LocalizedHandler wraps another handler with a fixed preferred
// language and (optionally) a restricted supported-language list,
// without changing its approval behaviour.
type LocalizedHandler struct {
	inner     ApprovalHandler
	language  string
	supported []string
}

// NewLocalizedHandler wraps inner, declaring it prefers language.
func NewLocalizedHandler(inner ApprovalHandler, language string) *LocalizedHandler {
	return &LocalizedHandler{inner: inner, language: language}
}

// WithSupported restricts the set of languages this handler accepts,
// returning the handler for chaining.
func (h *LocalizedHandler) WithSupported(languages []string) *LocalizedHandler {
	h.supported = languages
	return h
}

func (h *LocalizedHandler) RequestApproval(ctx context.Context, request ApprovalRequest) ApprovalResult {
	return h.inner.RequestApproval(ctx, request)
}

func (h *LocalizedHandler) PreferredLanguage() string { return h.language }

func (h *LocalizedHandler) SupportedLanguages() []string { return h.supported }

// NewHandlerFunc builds an ApprovalHandler from a plain callback, the
// equivalent of the teacher's create_handler helper.
func NewHandlerFunc(fn func(context.Context, ApprovalRequest) ApprovalResult) ApprovalHandler {
	return NewCallbackHandler(fn)
}

// NewLocalizedHandlerFunc builds a language-tagged ApprovalHandler from
// a plain callback, the equivalent of create_localized_handler.
func NewLocalizedHandlerFunc(fn func(context.Context, ApprovalRequest) ApprovalResult, language string) ApprovalHandler {
	return NewLocalizedHandler(NewCallbackHandler(fn), language)
}
