// Package errors provides domain-specific error types for the SDK.
// All error types support error unwrapping via errors.As() and errors.Is().
//
// Plugin code returns these from its open and log functions; the outcome
// translator classifies them into host return codes.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// UnauthorizedError vetoes the privileged command. Returned from open, the
// command never starts; returned from a log callback, it is terminated.
type UnauthorizedError struct {
	Err    error
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		if e.Reason != "" {
			return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Err)
		}
		return fmt.Sprintf("unauthorized: %v", e.Err)
	}
	if e.Reason != "" {
		return "unauthorized: " + e.Reason
	}
	return "unauthorized"
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// Unauthorized builds an UnauthorizedError with a formatted reason.
func Unauthorized(format string, args ...any) error {
	return &UnauthorizedError{Reason: fmt.Sprintf(format, args...)}
}

// IsUnauthorized reports whether err carries an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return stdErrors.As(err, &ue)
}

// UsageError asks the host to print its usage message before exiting.
// Only meaningful from open.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return "usage error: " + e.Reason
}

// ContractViolationError reports host input that breaks the documented ABI,
// such as an argc that disagrees with the argv terminator or a lifecycle call
// arriving in the wrong state.
type ContractViolationError struct {
	Call   string
	Detail string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("host contract violation in %s: %s", e.Call, e.Detail)
}

// VersionMismatchError reports an incompatible host API version.
type VersionMismatchError struct {
	Host     entities.Version
	Compiled entities.Version
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("incompatible sudo plugin API version %s (plugin built for %s)", e.Host, e.Compiled)
}

// PanicError is a recovered panic from plugin code.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("plugin panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ConversationError reports a non-success return from the host prompt
// callback.
type ConversationError struct {
	Code int
}

func (e *ConversationError) Error() string {
	return fmt.Sprintf("conversation failed with code %d", e.Code)
}

// OptionsError represents a plugin options validation error.
type OptionsError struct {
	Err   error
	Field string
}

func (e *OptionsError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("plugin option '%s' is invalid: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("plugin options are invalid: %v", e.Err)
}

func (e *OptionsError) Unwrap() error {
	return e.Err
}
