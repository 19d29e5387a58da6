package storeerr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeValidation         Code = "validation_failed"
	CodeBackingStore       Code = "backing_store_failed"
	CodeConsistencyWarning Code = "consistency_warning"
)

// Error is the structured failure type for every store-facing operation.
// Op always names the failing operation so callers never see a bare cause.
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "store operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s failed (%s)", e.Op, e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NotFound(op, msg string) *Error {
	return &Error{Code: CodeNotFound, Op: op, Message: msg}
}

func Conflict(op, msg string, cause error) *Error {
	return &Error{Code: CodeConflict, Op: op, Message: msg, Cause: cause}
}

func Validation(op, msg string) *Error {
	return &Error{Code: CodeValidation, Op: op, Message: msg}
}

func BackingStore(op, msg string, cause error) *Error {
	return &Error{Code: CodeBackingStore, Op: op, Message: msg, Cause: cause}
}

func codeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return codeOf(err) == CodeNotFound }
func IsConflict(err error) bool     { return codeOf(err) == CodeConflict }
func IsValidation(err error) bool   { return codeOf(err) == CodeValidation }
func IsBackingStore(err error) bool { return codeOf(err) == CodeBackingStore }
