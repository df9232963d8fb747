package model

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrorKind categorises failures surfaced to the user.
type ErrorKind string

const (
	// KindNetwork covers transport failures and non-success HTTP statuses.
	KindNetwork ErrorKind = "network"
	// KindNotFound is a well-formed response with an empty result set.
	KindNotFound ErrorKind = "not_found"
	// KindParse is a response whose shape does not match expectations.
	KindParse ErrorKind = "parse"
	// KindValidation is an illegal command, such as enabling place details
	// outside the Places style.
	KindValidation ErrorKind = "validation"
)

// Error is a categorised failure. Op names the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for any operation.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrParse      = &Error{Kind: KindParse}
	ErrValidation = &Error{Kind: KindValidation}
)

// NewNetworkError wraps err as a network failure of op.
func NewNetworkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// NewNotFoundError reports an empty result set for op.
func NewNotFoundError(op string, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: eris.New(msg)}
}

// NewParseError wraps err as a response-shape failure of op.
func NewParseError(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// NewValidationError wraps err as an illegal command.
func NewValidationError(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the category of err. Uncategorised errors are reported as
// network failures since they can only originate below the adapters.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}
