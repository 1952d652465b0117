//go:build cgo

package abi

/*
#include <stdlib.h>
#include "sudo_plugin.h"
*/
import "C"

import (
	"log/slog"
	"runtime/cgo"
	"unsafe"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// cgoBinder pins each hook behind a cgo.Handle and builds the C sudo_hook
// struct the host is given. Both live until the host deregisters the hook.
// Hook calls can arrive on any host thread.
type cgoBinder struct {
	structs cmap.ConcurrentMap[uintptr, *C.struct_sudo_hook]
	// values holds one C copy of every distinct getenv result handed out.
	values cmap.ConcurrentMap[string, *C.char]
}

func newCgoBinder() *cgoBinder {
	return &cgoBinder{
		structs: cmap.NewWithCustomShardingFunction[uintptr, *C.struct_sudo_hook](shardHandle),
		values:  cmap.New[*C.char](),
	}
}

func shardHandle(h uintptr) uint32 {
	return uint32(h) ^ uint32(h>>32)
}

// Bind implements hooks.Binder.
func (b *cgoBinder) Bind(h *hooks.Hook) entities.HookRecord {
	handle := cgo.NewHandle(h)
	ch := (*C.struct_sudo_hook)(C.calloc(1, C.size_t(C.sizeof_struct_sudo_hook)))
	C.sudo_go_init_hook(ch, C.uint(h.Type()), C.uintptr_t(handle))
	b.structs.Set(uintptr(handle), ch)

	return entities.HookRecord{
		Fn:      unsafe.Pointer(ch.hook_fn),
		Context: uintptr(handle),
		Version: entities.Version(ch.hook_version),
		Type:    h.Type(),
	}
}

// Release implements hooks.Binder.
func (b *cgoBinder) Release(rec entities.HookRecord) {
	ch, ok := b.structs.Pop(rec.Context)
	if !ok {
		return
	}
	cgo.Handle(rec.Context).Delete()
	C.free(unsafe.Pointer(ch))
}

// value returns a C copy of v that stays valid until reg is deregistered.
// The host keeps getenv results without copying them, so repeated lookups
// share one allocation.
func (b *cgoBinder) value(reg *hooks.Registry, v string) *C.char {
	if cs, ok := b.values.Get(v); ok {
		return cs
	}
	cs := C.CString(v)
	if !b.values.SetIfAbsent(v, cs) {
		C.free(unsafe.Pointer(cs))
		cs, _ = b.values.Get(v)
		return cs
	}
	reg.Retain(func() {
		b.values.Remove(v)
		C.free(unsafe.Pointer(cs))
	})
	return cs
}

func (b *cgoBinder) lookup(rec entities.HookRecord) *C.struct_sudo_hook {
	ch, _ := b.structs.Get(rec.Context)
	return ch
}

//export goSudoRegisterHooks
func goSudoRegisterHooks(version C.int, registrar C.sudo_hook_register_t) {
	handleExportedCall("register_hooks", func() C.int {
		reg, binder := currentHooks()
		if reg == nil {
			return 0
		}
		err := reg.Register(entities.Version(version), func(rec entities.HookRecord) int {
			return int(C.sudo_go_call_hook_registrar(registrar, binder.lookup(rec)))
		})
		if err != nil {
			slog.Warn("sdk: register_hooks failed", "error", err.Error())
		}
		return 0
	})
}

//export goSudoDeregisterHooks
func goSudoDeregisterHooks(version C.int, deregistrar C.sudo_hook_register_t) {
	handleExportedCall("deregister_hooks", func() C.int {
		reg, binder := currentHooks()
		if reg == nil {
			return 0
		}
		err := reg.Deregister(entities.Version(version), func(rec entities.HookRecord) int {
			return int(C.sudo_go_call_hook_registrar(deregistrar, binder.lookup(rec)))
		})
		if err != nil {
			slog.Warn("sdk: deregister_hooks failed", "error", err.Error())
		}
		return 0
	})
}

// hookFor recovers the hook behind a closure word. Stale words answer nil.
func hookFor(closure C.uintptr_t) *hooks.Hook {
	_, binder := currentHooks()
	if binder == nil || binder.lookup(entities.HookRecord{Context: uintptr(closure)}) == nil {
		return nil
	}
	h, _ := cgo.Handle(closure).Value().(*hooks.Hook)
	return h
}

//export goSudoHookSetenv
func goSudoHookSetenv(name, value *C.char, overwrite C.int, closure C.uintptr_t) C.int {
	h := hookFor(closure)
	if h == nil {
		return C.SUDO_HOOK_RET_NEXT
	}
	return C.int(h.Setenv(C.GoString(name), C.GoString(value), overwrite != 0))
}

//export goSudoHookUnsetenv
func goSudoHookUnsetenv(name *C.char, closure C.uintptr_t) C.int {
	h := hookFor(closure)
	if h == nil {
		return C.SUDO_HOOK_RET_NEXT
	}
	return C.int(h.Unsetenv(C.GoString(name)))
}

//export goSudoHookPutenv
func goSudoHookPutenv(entry *C.char, closure C.uintptr_t) C.int {
	h := hookFor(closure)
	if h == nil {
		return C.SUDO_HOOK_RET_NEXT
	}
	return C.int(h.Putenv(C.GoString(entry)))
}

//export goSudoHookGetenv
func goSudoHookGetenv(name *C.char, value **C.char, closure C.uintptr_t) C.int {
	h := hookFor(closure)
	if h == nil {
		return C.SUDO_HOOK_RET_NEXT
	}
	v, r := h.Getenv(C.GoString(name))
	if r == entities.HookStop && value != nil {
		reg, binder := currentHooks()
		if reg == nil {
			return C.SUDO_HOOK_RET_NEXT
		}
		*value = binder.value(reg, v)
	}
	return C.int(r)
}
