package entities

import "unsafe"

// HookType is a host extension point.
type HookType uint32

const (
	HookSetenv   HookType = 1
	HookUnsetenv HookType = 2
	HookPutenv   HookType = 3
	HookGetenv   HookType = 4
)

func (t HookType) String() string {
	switch t {
	case HookSetenv:
		return "setenv"
	case HookUnsetenv:
		return "unsetenv"
	case HookPutenv:
		return "putenv"
	case HookGetenv:
		return "getenv"
	}
	return "unknown"
}

// HookVersion is the sudo_hook structure version this SDK fills in.
var HookVersion = MakeVersion(1, 0)

// HookResult is the value a hook returns to the host.
type HookResult int

const (
	HookError HookResult = -1
	// HookNext lets the host continue with the next hook, then the libc
	// implementation.
	HookNext HookResult = 0
	// HookStop tells the host the hook fully handled the call.
	HookStop HookResult = 1
)

// HookRecord mirrors struct sudo_hook. Fn and Context are opaque to the SDK
// core; Context must stay valid for as long as the record is registered.
type HookRecord struct {
	Fn unsafe.Pointer
	// Context is the closure word handed back to Fn. The ABI layer stores a
	// cgo handle in it.
	Context uintptr
	Version Version
	Type    HookType
}
