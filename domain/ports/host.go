// Package ports defines the interfaces the SDK core uses to reach the host.
// The cgo ABI layer implements them over the raw callbacks the host passes to
// open; the test harness implements them in memory.
package ports

import "github.com/reglet-dev/sudo-plugin-sdk/domain/entities"

// Host is the pair of callbacks the host hands to open.
type Host interface {
	// Converse runs one synchronous conversation. It returns one reply per
	// message (empty for non-prompt kinds) and the host's return code.
	// suspend may be nil.
	Converse(msgs []entities.Message, suspend SuspendHandler) (replies []string, code int)

	// Printf writes one preformatted message of the given kind and
	// returns the host's result (characters written, or negative on error).
	Printf(kind entities.MessageKind, msg string) int
}

// SuspendHandler is notified when the command's process group is suspended
// while a conversation is waiting for input, and again when it resumes.
// Returning a non-nil error asks the host to abort the wait.
type SuspendHandler interface {
	OnSuspend(signal int) error
	OnResume(signal int) error
}

// SuspendFuncs adapts two functions to SuspendHandler. Nil fields are no-ops.
type SuspendFuncs struct {
	Suspend func(signal int) error
	Resume  func(signal int) error
}

// OnSuspend implements SuspendHandler.
func (f SuspendFuncs) OnSuspend(signal int) error {
	if f.Suspend == nil {
		return nil
	}
	return f.Suspend(signal)
}

// OnResume implements SuspendHandler.
func (f SuspendFuncs) OnResume(signal int) error {
	if f.Resume == nil {
		return nil
	}
	return f.Resume(signal)
}
