// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package placement

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable class of a rejected request.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindLocked        Kind = "locked"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindSessionCap    Kind = "session_cap"
	KindAdjacency     Kind = "adjacency"
	KindNotFound      Kind = "not_found"
)

// Error is a business-rule rejection. It never indicates a storage failure.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrLocked)
// works regardless of the reason text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrLocked        = &Error{Kind: KindLocked}
	ErrQuotaExceeded = &Error{Kind: KindQuotaExceeded}
	ErrSessionCap    = &Error{Kind: KindSessionCap}
	ErrAdjacency     = &Error{Kind: KindAdjacency}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

func reject(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the rejection kind of err, or false for internal failures.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
