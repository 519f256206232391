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
	"errors"
	"fmt"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// ClassifiedError pairs a raw failure with the ErrorType the recovery
// manager uses to decide whether (and how) to retry it.
type ClassifiedError struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Cause     error
}

func (c ClassifiedError) Error() string {
	if c.Cause != nil {
		return fmt.Sprintf("%s: %v", c.Message, c.Cause)
	}
	return c.Message
}

func (c ClassifiedError) Unwrap() error { return c.Cause }

// transientType reports whether t is, by default, worth retrying.
func transientType(t ErrorType) bool {
	switch t {
	case ErrorTimeout, ErrorRateLimit, ErrorConnection, ErrorServer:
		return true
	default:
		return false
	}
}

func classified(t ErrorType, message string, cause error) ClassifiedError {
	return ClassifiedError{Type: t, Message: message, Retryable: transientType(t), Cause: cause}
}

func Timeout(message string, cause error) ClassifiedError        { return classified(ErrorTimeout, message, cause) }
func RateLimited(message string, cause error) ClassifiedError    { return classified(ErrorRateLimit, message, cause) }
func Connection(message string, cause error) ClassifiedError     { return classified(ErrorConnection, message, cause) }
func Server(message string, cause error) ClassifiedError         { return classified(ErrorServer, message, cause) }
func InvalidAPIKey(message string, cause error) ClassifiedError  { return classified(ErrorInvalidAPIKey, message, cause) }
func ContextTooLong(message string, cause error) ClassifiedError { return classified(ErrorContextTooLong, message, cause) }
func ToolFailed(message string, cause error) ClassifiedError     { return classified(ErrorTool, message, cause) }

// Classify maps err onto a ClassifiedError. Unlike the original's
// IntoClassifiedError trait (which matched over concrete provider-error
// enum variants), every error reaching a recovery boundary in this
// runtime is already an *agenterr.Error, so classification reads its
// Kind plus the message substrings httpprovider's classifyTransportErr
// tags onto transport failures ("rate limited", "invalid api key",
// "server error", "connection error"), plus a few context-length and
// timeout phrases ("context too long", "timed out", ...).
func Classify(err error) ClassifiedError {
	if err == nil {
		return ClassifiedError{Type: ErrorInvalidResponse, Message: "nil error"}
	}

	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	msg := strings.ToLower(err.Error())
	kind := agenterr.KindOf(err)

	switch {
	case strings.Contains(msg, "rate limited"):
		return classified(ErrorRateLimit, err.Error(), err)
	case strings.Contains(msg, "invalid api key"):
		return classified(ErrorInvalidAPIKey, err.Error(), err)
	case strings.Contains(msg, "server error"):
		return classified(ErrorServer, err.Error(), err)
	case strings.Contains(msg, "connection error"):
		return classified(ErrorConnection, err.Error(), err)
	case strings.Contains(msg, "context too long"), strings.Contains(msg, "context_length_exceeded"), strings.Contains(msg, "maximum context length"):
		return classified(ErrorContextTooLong, err.Error(), err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"), strings.Contains(msg, "deadline exceeded"):
		return classified(ErrorTimeout, err.Error(), err)
	}

	switch kind {
	case agenterr.KindLLM:
		return classified(ErrorInvalidResponse, err.Error(), err)
	case agenterr.KindTool:
		return classified(ErrorTool, err.Error(), err)
	case agenterr.KindConfig, agenterr.KindInvalidSpec:
		return classified(ErrorInvalidRequest, err.Error(), err)
	default:
		return classified(ErrorInvalidRequest, err.Error(), err)
	}
}

// FailureKind discriminates a RecoveryError's cause, mirroring the
// original's RecoveryError enum.
type FailureKind string

const (
	FailureMaxRetriesExceeded FailureKind = "max_retries_exceeded"
	FailureNonRetryable       FailureKind = "non_retryable"
	FailureCircuitOpen        FailureKind = "circuit_open"
	FailureTimeout            FailureKind = "timeout"
	FailureNoFallback         FailureKind = "no_fallback"
	FailureOther              FailureKind = "other"
)

// RecoveryError reports why a retrying operation ultimately gave up.
type RecoveryError struct {
	Kind     FailureKind
	Attempts uint32
	LastErr  ClassifiedError
	Resource string
	Detail   string
}

func (e *RecoveryError) Error() string {
	switch e.Kind {
	case FailureMaxRetriesExceeded:
		return fmt.Sprintf("recovery: max retries (%d) exceeded: %v", e.Attempts, e.LastErr)
	case FailureNonRetryable:
		return fmt.Sprintf("recovery: non-retryable error: %v", e.LastErr)
	case FailureCircuitOpen:
		return fmt.Sprintf("recovery: circuit open for %s", e.Resource)
	case FailureTimeout:
		return fmt.Sprintf("recovery: timed out: %s", e.Detail)
	case FailureNoFallback:
		return fmt.Sprintf("recovery: no fallback available: %s", e.Detail)
	default:
		return fmt.Sprintf("recovery: %s", e.Detail)
	}
}

func (e *RecoveryError) Unwrap() error {
	if e.LastErr.Message == "" && e.LastErr.Cause == nil {
		return nil
	}
	return e.LastErr
}

// IsRetryable reports whether retries were exhausted on a cause that
// was itself retryable: true only for MaxRetriesExceeded with a
// retryable LastErr, false for every other kind.
func (e *RecoveryError) IsRetryable() bool {
	return e.Kind == FailureMaxRetriesExceeded && e.LastErr.Retryable
}

func maxRetriesExceeded(attempts uint32, lastErr ClassifiedError) *RecoveryError {
	return &RecoveryError{Kind: FailureMaxRetriesExceeded, Attempts: attempts, LastErr: lastErr}
}

func nonRetryable(lastErr ClassifiedError) *RecoveryError {
	return &RecoveryError{Kind: FailureNonRetryable, LastErr: lastErr}
}
