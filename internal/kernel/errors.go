package kernel

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrArgumentKind        = errors.New("argument kind mismatch")
	ErrArgumentCount       = errors.New("argument count mismatch")
	ErrTooManyArguments    = errors.New("too many arguments bound")
	ErrUnsupportedArgument = errors.New("unsupported argument type")
	ErrNoEmulation         = errors.New("kernel has no host emulation")
	ErrEntryPointNotFound  = errors.New("entry point not found in source")
)

// CompilationError reports a kernel that failed to compile.
type CompilationError struct {
	EntryPoint string // Entry point requested
	Log        string // Compiler diagnostics, if any
	Err        error  // Underlying cause
}

// Error implements the error interface.
func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("kernel: compile %q", e.EntryPoint)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompilationError) Unwrap() error {
	return e.Err
}

// DispatchError reports an argument binding or queue submission failure.
type DispatchError struct {
	Op  string // Operator or entry point being dispatched
	Err error  // Underlying cause
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("kernel: dispatch %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}
