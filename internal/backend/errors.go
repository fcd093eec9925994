package backend

import (
	"errors"
	"fmt"

	"github.com/ppiankov/verdict/internal/metrics"
)

// ErrBlankInput is returned when a claim or question is empty after trimming.
// No request is made.
var ErrBlankInput = errors.New("blank input")

// Cause classifies why a backend exchange failed
type Cause int

const (
	// CauseTransport means the backend was unreachable or the exchange was interrupted
	CauseTransport Cause = iota + 1
	// CauseStatus means the backend answered with a non-2xx status
	CauseStatus
	// CauseMalformed means the response could not be turned into a valid result
	CauseMalformed
)

func (c Cause) String() string {
	switch c {
	case CauseTransport:
		return "transport"
	case CauseStatus:
		return "status"
	case CauseMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

func (c Cause) outcome() string {
	switch c {
	case CauseTransport:
		return metrics.OutcomeTransport
	case CauseStatus:
		return metrics.OutcomeStatus
	default:
		return metrics.OutcomeMalformed
	}
}

// VerificationFailure reports a failed claim verification.
// StatusCode is zero when no response was received.
type VerificationFailure struct {
	Cause      Cause
	StatusCode int
	Err        error
}

func (f *VerificationFailure) Error() string {
	return describe("verification", f.Cause, f.StatusCode, f.Err)
}

func (f *VerificationFailure) Unwrap() error {
	return f.Err
}

// DialogueFailure reports a failed follow-up question
type DialogueFailure struct {
	Cause      Cause
	StatusCode int
	Err        error
}

func (f *DialogueFailure) Error() string {
	return describe("dialogue", f.Cause, f.StatusCode, f.Err)
}

func (f *DialogueFailure) Unwrap() error {
	return f.Err
}

func describe(scope string, cause Cause, status int, err error) string {
	if status != 0 {
		return fmt.Sprintf("%s failed (%s, status %d): %v", scope, cause, status, err)
	}
	return fmt.Sprintf("%s failed (%s): %v", scope, cause, err)
}

// exchangeError is the scope-free failure returned by the shared exchange
type exchangeError struct {
	cause  Cause
	status int
	err    error
}

func (e *exchangeError) verification() *VerificationFailure {
	return &VerificationFailure{Cause: e.cause, StatusCode: e.status, Err: e.err}
}

func (e *exchangeError) dialogue() *DialogueFailure {
	return &DialogueFailure{Cause: e.cause, StatusCode: e.status, Err: e.err}
}
