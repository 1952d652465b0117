//go:build cgo

package abi

import (
	"sync"

	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
)

var binding struct {
	sync.RWMutex
	dispatcher Dispatcher
	entries    Entries
	registry   *hooks.Registry
	binder     *cgoBinder
}

// Bind installs the dispatcher behind the exported table. The C side reads
// the entries once, on the host's first open call.
func Bind(d Dispatcher, e Entries, set *hooks.Set) {
	binding.Lock()
	defer binding.Unlock()

	binding.dispatcher = d
	binding.entries = e
	binding.registry = nil
	binding.binder = nil
	if e.Hooks {
		binding.binder = newCgoBinder()
		binding.registry = hooks.NewRegistry(set, binding.binder)
	}
}

func current() (Dispatcher, Entries) {
	binding.RLock()
	defer binding.RUnlock()
	return binding.dispatcher, binding.entries
}

func currentHooks() (*hooks.Registry, *cgoBinder) {
	binding.RLock()
	defer binding.RUnlock()
	return binding.registry, binding.binder
}
