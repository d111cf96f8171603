package widget

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a widget failure.
type ErrorKind string

const (
	// KindConfiguration marks missing or invalid required configuration.
	// Not retryable.
	KindConfiguration ErrorKind = "configuration"
	// KindPermission marks a denied microphone or service authorization.
	KindPermission ErrorKind = "permission"
	// KindConnection marks a transient network or service failure. Safe
	// to retry by user action; the core never retries on its own.
	KindConnection ErrorKind = "connection"
	// KindBusy marks a rejected concurrent operation.
	KindBusy ErrorKind = "busy"
	// KindTimeout marks a chat reply that did not arrive in time.
	KindTimeout ErrorKind = "timeout"
)

// Error is the normalized failure surfaced through the OnError hook.
// Every adapter failure is wrapped into one of these before it crosses
// the controller boundary.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("widget: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("widget: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of a widget error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return ""
}

// normalizeError wraps err so it always reaches the OnError hook as a
// kinded *Error. Already-normalized errors pass through unchanged;
// deadline expiry maps to a timeout, everything else to a connection
// failure.
func normalizeError(op string, err error) *Error {
	var werr *Error
	if errors.As(err, &werr) {
		return werr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, op, err)
	}
	return newError(KindConnection, op, err)
}
