//go:build cgo

package abi

/*
#include <stdlib.h>
#include <string.h>
#include "sudo_plugin.h"
*/
import "C"

import (
	"log/slog"
	"runtime/cgo"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

// cHost implements ports.Host over the conversation and printf function
// pointers passed to open. They stay valid until the plugin is unloaded.
type cHost struct {
	conv   C.sudo_conv_t
	printf C.sudo_printf_t
}

var _ ports.Host = (*cHost)(nil)

// Printf implements ports.Host.
func (h *cHost) Printf(kind entities.MessageKind, msg string) int {
	if h.printf == nil {
		return -1
	}
	cmsg := cText(msg)
	defer C.free(unsafe.Pointer(cmsg))
	return int(C.sudo_go_call_printf(h.printf, C.int(kind), cmsg))
}

// cText copies s into C memory. The host reads it as a C string, so an
// embedded NUL is written as the two characters \0 instead of ending the
// text early.
func cText(s string) *C.char {
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", `\0`)
	}
	return C.CString(s)
}

// Converse implements ports.Host. The message and reply arrays are
// allocated in C memory; reply strings were malloc'd by the host and are
// wiped and freed here.
func (h *cHost) Converse(msgs []entities.Message, suspend ports.SuspendHandler) ([]string, int) {
	if h.conv == nil {
		return nil, -1
	}
	n := len(msgs)
	if n == 0 {
		return nil, 0
	}

	cmsgsPtr := C.calloc(C.size_t(n), C.size_t(C.sizeof_struct_sudo_conv_message))
	defer C.free(cmsgsPtr)
	cmsgs := unsafe.Slice((*C.struct_sudo_conv_message)(cmsgsPtr), n)
	for i, m := range msgs {
		cmsgs[i].msg_type = C.int(m.Kind)
		cmsgs[i].timeout = C.int(m.TimeoutSeconds())
		cmsgs[i].msg = cText(m.Text)
	}
	defer func() {
		for i := range cmsgs {
			C.free(unsafe.Pointer(cmsgs[i].msg))
		}
	}()

	crepliesPtr := C.calloc(C.size_t(n), C.size_t(C.sizeof_struct_sudo_conv_reply))
	defer C.free(crepliesPtr)
	creplies := unsafe.Slice((*C.struct_sudo_conv_reply)(crepliesPtr), n)

	var cb *C.struct_sudo_conv_callback
	if suspend != nil {
		handle := cgo.NewHandle(suspend)
		defer handle.Delete()
		cb = (*C.struct_sudo_conv_callback)(C.calloc(1, C.size_t(C.sizeof_struct_sudo_conv_callback)))
		defer C.free(unsafe.Pointer(cb))
		C.sudo_go_init_conv_callback(cb, C.uintptr_t(handle))
	}

	rc := C.sudo_go_call_conv(h.conv, C.int(n), &cmsgs[0], &creplies[0], cb)

	replies := make([]string, n)
	for i := range creplies {
		r := creplies[i].reply
		if r == nil {
			continue
		}
		replies[i] = C.GoString(r)
		C.memset(unsafe.Pointer(r), 0, C.strlen(r))
		C.free(unsafe.Pointer(r))
	}
	if rc != 0 {
		return nil, int(rc)
	}
	return replies, 0
}

//export goSudoOnSuspend
func goSudoOnSuspend(signo C.int, closure C.uintptr_t) C.int {
	return suspendCall("suspend", signo, closure, ports.SuspendHandler.OnSuspend)
}

//export goSudoOnResume
func goSudoOnResume(signo C.int, closure C.uintptr_t) C.int {
	return suspendCall("resume", signo, closure, ports.SuspendHandler.OnResume)
}

func suspendCall(event string, signo C.int, closure C.uintptr_t, call func(ports.SuspendHandler, int) error) C.int {
	return handleExportedCall("conversation "+event, func() C.int {
		h, ok := cgo.Handle(closure).Value().(ports.SuspendHandler)
		if !ok {
			return -1
		}
		if err := call(h, int(signo)); err != nil {
			slog.Warn("sdk: conversation "+event+" handler failed",
				"signal", unix.SignalName(syscall.Signal(signo)), "error", err.Error())
			return -1
		}
		return 0
	})
}
