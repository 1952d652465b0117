package hooks

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
)

// Binder turns a Hook into the record handed to the host and releases
// whatever Bind pinned once the host has dropped the record.
type Binder interface {
	Bind(h *Hook) entities.HookRecord
	Release(rec entities.HookRecord)
}

// HostFunc is the host's register_hook or deregister_hook callback. Zero
// means success.
type HostFunc func(rec entities.HookRecord) int

// Registry tracks which records of a Set are registered with the host.
type Registry struct {
	set    *Set
	binder Binder

	mu sync.Mutex
	// active is set between a Register and the following Deregister, even
	// when the host refused every hook.
	active     bool
	registered []entities.HookRecord
	retained   []func()
}

// NewRegistry creates a Registry for set.
func NewRegistry(set *Set, binder Binder) *Registry {
	return &Registry{set: set, binder: binder}
}

// Register hands every hook of the set to register in configuration order.
// version is the hook API version the host advertised. Hooks the host
// refuses are released and skipped. A second Register without an
// intervening Deregister is refused.
func (r *Registry) Register(version entities.Version, register HostFunc) error {
	if version.Major() != entities.HookVersion.Major() {
		return &errors.VersionMismatchError{Host: version, Compiled: entities.HookVersion}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return &errors.ContractViolationError{Call: "register_hooks", Detail: "hooks already registered"}
	}
	r.active = true

	for _, h := range r.set.Hooks() {
		rec := r.binder.Bind(h)
		if rc := register(rec); rc != 0 {
			slog.Warn("sdk: host refused hook", "hook", h.Type().String(), "rc", rc)
			r.binder.Release(rec)
			continue
		}
		r.registered = append(r.registered, rec)
	}
	return nil
}

// Deregister hands the registered records back to deregister in reverse
// order and releases them, along with every retained getenv value.
func (r *Registry) Deregister(version entities.Version, deregister HostFunc) error {
	if version.Major() != entities.HookVersion.Major() {
		return &errors.VersionMismatchError{Host: version, Compiled: entities.HookVersion}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active && r.set.Len() > 0 {
		return &errors.ContractViolationError{Call: "deregister_hooks", Detail: "no hooks registered"}
	}

	var firstErr error
	for i := len(r.registered) - 1; i >= 0; i-- {
		rec := r.registered[i]
		if rc := deregister(rec); rc != 0 && firstErr == nil {
			firstErr = fmt.Errorf("host failed to deregister %s hook: code %d", rec.Type, rc)
		}
		r.binder.Release(rec)
	}
	r.registered = nil
	r.active = false

	for _, release := range r.retained {
		release()
	}
	r.retained = nil
	return firstErr
}

// Retain keeps a value handed to the host alive until Deregister, when
// release is called. The host holds getenv results without copying them.
func (r *Registry) Retain(release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retained = append(r.retained, release)
}

// Registered returns a copy of the records the host currently holds.
func (r *Registry) Registered() []entities.HookRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.HookRecord, len(r.registered))
	copy(out, r.registered)
	return out
}
