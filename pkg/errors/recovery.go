package errors

// Panic recovery for the estimator and CLI boundaries. Solver code panics on
// violated preconditions (out-of-range feature index); callers that accept
// untrusted input convert those panics into errors here.

import (
	"fmt"
	"runtime/debug"
)

// PanicError はパニックから復元したエラー。Operation は復元した境界
// ("LinearSVC.Fit", "train" など)、StackTrace はパニック時点のスタック。
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap exposes a panicked error value, e.g. a runtime.Error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// String includes the stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s", e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError captures the current stack.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into *err. Use it deferred with a named result:
//
//	func (s *LinearSVC) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "LinearSVC.Fit")
//	    ...
//	}
//
// An error already stored in *err stays in the chain.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	if *err == nil {
		*err = panicErr
		return
	}
	*err = Wrapf(*err, "panic in %s: %v", operation, r)
}

// SafeExecute runs fn and returns a PanicError if it panics.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
