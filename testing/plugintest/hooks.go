package plugintest

import (
	"fmt"

	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// HookHost plays the host side of hook registration: it keeps registered
// records and calls them in order the way the front end's libc wrappers do.
type HookHost struct {
	Registry *hooks.Registry

	binder  *memBinder
	records []entities.HookRecord
}

// NewHookHost registers set with an in-memory host.
func NewHookHost(set *hooks.Set) (*HookHost, error) {
	h := &HookHost{binder: &memBinder{hooks: make(map[uintptr]*hooks.Hook)}}
	h.Registry = hooks.NewRegistry(set, h.binder)
	err := h.Registry.Register(entities.HookVersion, func(rec entities.HookRecord) int {
		h.records = append(h.records, rec)
		return 0
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Close deregisters every hook.
func (h *HookHost) Close() error {
	return h.Registry.Deregister(entities.HookVersion, func(rec entities.HookRecord) int {
		for i, r := range h.records {
			if r.Context == rec.Context {
				h.records = append(h.records[:i], h.records[i+1:]...)
				return 0
			}
		}
		return -1
	})
}

// Live reports how many hook closures are still pinned.
func (h *HookHost) Live() int {
	return len(h.binder.hooks)
}

// Setenv runs the setenv hooks until one stops.
func (h *HookHost) Setenv(name, value string, overwrite bool) entities.HookResult {
	return h.each(entities.HookSetenv, func(hk *hooks.Hook) entities.HookResult {
		return hk.Setenv(name, value, overwrite)
	})
}

// Unsetenv runs the unsetenv hooks.
func (h *HookHost) Unsetenv(name string) entities.HookResult {
	return h.each(entities.HookUnsetenv, func(hk *hooks.Hook) entities.HookResult {
		return hk.Unsetenv(name)
	})
}

// Putenv runs the putenv hooks.
func (h *HookHost) Putenv(entry string) entities.HookResult {
	return h.each(entities.HookPutenv, func(hk *hooks.Hook) entities.HookResult {
		return hk.Putenv(entry)
	})
}

// Getenv runs the getenv hooks and returns the value of the one that
// stopped.
func (h *HookHost) Getenv(name string) (string, entities.HookResult) {
	var value string
	result := h.each(entities.HookGetenv, func(hk *hooks.Hook) entities.HookResult {
		v, r := hk.Getenv(name)
		value = v
		return r
	})
	return value, result
}

func (h *HookHost) each(typ entities.HookType, call func(*hooks.Hook) entities.HookResult) entities.HookResult {
	for _, rec := range h.records {
		if rec.Type != typ {
			continue
		}
		hk, ok := h.binder.hooks[rec.Context]
		if !ok {
			panic(fmt.Sprintf("plugintest: record %d has no live hook", rec.Context))
		}
		if r := call(hk); r != entities.HookNext {
			return r
		}
	}
	return entities.HookNext
}

type memBinder struct {
	next  uintptr
	hooks map[uintptr]*hooks.Hook
}

func (b *memBinder) Bind(h *hooks.Hook) entities.HookRecord {
	b.next++
	b.hooks[b.next] = h
	return entities.HookRecord{Context: b.next, Version: entities.HookVersion, Type: h.Type()}
}

func (b *memBinder) Release(rec entities.HookRecord) {
	delete(b.hooks, rec.Context)
}
