// Package outcome translates plugin results into the integer codes the host
// acts on. The mapping gates execution of a privileged command, so it is kept
// small and explicit.
package outcome

import (
	stdErrors "errors"
	"fmt"
	"runtime/debug"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
)

// Kind is the canonical outcome of one plugin operation.
type Kind int

const (
	// Success also stands in for "no opinion" from an absent callback.
	Success Kind = iota
	Failure
	Unauthorized
	Usage
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Unauthorized:
		return "unauthorized"
	case Usage:
		return "usage"
	}
	return "unknown"
}

// Outcome pairs a Kind with the message to surface for it.
type Outcome struct {
	Err  error
	Kind Kind
}

// Message returns the error text, or "" on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Code is a host return code.
type Code int

const (
	CodeAllow Code = 1
	CodeDeny  Code = 0
	CodeAbort Code = -1
	CodeUsage Code = -2
)

func (c Code) String() string {
	switch c {
	case CodeAllow:
		return "allow"
	case CodeDeny:
		return "deny"
	case CodeAbort:
		return "abort"
	case CodeUsage:
		return "usage"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Classify maps an error returned by plugin code, or produced at the
// boundary, to an Outcome. Faults of the boundary itself (panics, contract
// violations, version mismatches) classify as Unauthorized so they abort.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: Success}
	}

	var (
		ue  *errors.UnauthorizedError
		use *errors.UsageError
		pe  *errors.PanicError
		cv  *errors.ContractViolationError
		vm  *errors.VersionMismatchError
	)
	switch {
	case stdErrors.As(err, &pe), stdErrors.As(err, &cv), stdErrors.As(err, &vm):
		return Outcome{Kind: Unauthorized, Err: err}
	case stdErrors.As(err, &ue):
		return Outcome{Kind: Unauthorized, Err: err}
	case stdErrors.As(err, &use):
		return Outcome{Kind: Usage, Err: err}
	}
	return Outcome{Kind: Failure, Err: err}
}

// ToCode is the base mapping of outcomes to host codes. Stage-specific
// policy (open failing closed, log failures being non-fatal) is applied by
// the lifecycle adapter on top of it.
func ToCode(o Outcome) Code {
	switch o.Kind {
	case Success:
		return CodeAllow
	case Failure:
		return CodeDeny
	case Usage:
		return CodeUsage
	}
	return CodeAbort
}

// Guard runs f, converting a panic into a *errors.PanicError.
func Guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return f()
}
