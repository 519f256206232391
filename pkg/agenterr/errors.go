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

// Package agenterr defines the runtime's error taxonomy. Every fallible
// operation in the core returns (or wraps into) an *Error carrying one of
// the declared Kinds, so call sites can branch with errors.Is against the
// Kind sentinels instead of string-matching messages.
package agenterr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation/retry decisions. See spec §7.
type Kind string

const (
	KindInvalidSpec   Kind = "invalid_spec"
	KindLLM           Kind = "llm"
	KindTool          Kind = "tool"
	KindSkill         Kind = "skill"
	KindTemplate      Kind = "template_error"
	KindPersistence   Kind = "persistence"
	KindConfig        Kind = "config"
	KindOther         Kind = "other"
)

// Error is the single error type used across the runtime. Component and
// Action are optional breadcrumbs (mirroring the teacher's
// ToolRegistryError shape) used to build readable messages without losing
// the wrapped cause for errors.Is/errors.As.
type Error struct {
	Kind      Kind
	Component string
	Action    string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	switch {
	case e.Component != "" && e.Action != "":
		if e.Cause != nil {
			return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Action, e.Message, e.Cause)
		}
		return fmt.Sprintf("[%s:%s] %s", e.Component, e.Action, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, agenterr.KindX) style checks via the kindSentinel
// wrapper below; Error itself matches another *Error with the same Kind so
// that errors.Is(err1, err2) also works between two constructed errors.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	var ks kindSentinel
	if errors.As(target, &ks) {
		return e.Kind == ks.kind
	}
	return false
}

// kindSentinel lets callers write errors.Is(err, agenterr.KindIs(KindTool))
// without constructing a full Error.
type kindSentinel struct{ kind Kind }

func (k kindSentinel) Error() string { return string(k.kind) }

// KindIs returns a sentinel error usable with errors.Is to test an error's
// Kind, e.g. errors.Is(err, agenterr.KindIs(agenterr.KindTool)).
func KindIs(k Kind) error { return kindSentinel{kind: k} }

// New builds an *Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind/message to an existing cause, preserving it for
// errors.Unwrap/errors.As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithComponent attaches Component/Action breadcrumbs to an existing error.
func (e *Error) WithComponent(component, action string) *Error {
	e.Component = component
	e.Action = action
	return e
}

// Invalid is shorthand for a fatal configuration/validation error (§7:
// "validation errors at build time are fatal").
func Invalid(format string, args ...any) *Error {
	return Newf(KindInvalidSpec, format, args...)
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// KindOther otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
