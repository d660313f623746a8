// Package apperrors defines the error taxonomy shared by every service.
// Callers classify failures with errors.Is against the exported sentinels;
// the HTTP layer maps the classes onto status codes.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrPermission  = errors.New("permission denied")
	ErrNotFound    = errors.New("not found")
	ErrAllocation  = errors.New("protocol allocation failed")
	ErrPersistence = errors.New("persistence failure")
)

// Error carries the operation, the entity it concerned and the underlying
// cause, so the caller can render a message without the service logging it.
type Error struct {
	Op     string // e.g. "document.delegate"
	Entity string // e.g. "document 42", "user 7"
	Kind   error  // one of the sentinels above
	Err    error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Entity != "" {
		msg += " " + e.Entity
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target) || errors.Is(e.Err, target)
}

func Validation(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

func Permission(op, entity string) error {
	return &Error{Op: op, Entity: entity, Kind: ErrPermission}
}

func NotFound(op, entity string) error {
	return &Error{Op: op, Entity: entity, Kind: ErrNotFound}
}

func Allocation(op string, err error) error {
	return &Error{Op: op, Kind: ErrAllocation, Err: err}
}

func Persistence(op, entity string, err error) error {
	return &Error{Op: op, Entity: entity, Kind: ErrPersistence, Err: err}
}
