//go:build cgo && linux

package host

/*
#include <stdlib.h>
#include <string.h>
#include "sudo_plugin.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// The printf and conversation callbacks carry no closure, so one plugin
// session at a time owns them.
var active struct {
	sync.Mutex
	transcript *Transcript
	hooks      []entities.HookType
}

func setActive(t *Transcript) {
	active.Lock()
	defer active.Unlock()
	active.transcript = t
}

func activeTranscript() *Transcript {
	active.Lock()
	defer active.Unlock()
	return active.transcript
}

//export goProbePrintf
func goProbePrintf(kind C.int, msg *C.char) C.int {
	if t := activeTranscript(); t != nil {
		t.printf(entities.MessageKind(kind), C.GoString(msg))
	}
	return 0
}

//export goProbeConverse
func goProbeConverse(n C.int, msgs *C.struct_sudo_conv_message, replies *C.struct_sudo_conv_reply) C.int {
	t := activeTranscript()
	if t == nil || n <= 0 {
		return -1
	}
	cm := unsafe.Slice(msgs, int(n))
	cr := unsafe.Slice(replies, int(n))

	in := make([]entities.Message, len(cm))
	for i := range cm {
		in[i] = entities.Message{Kind: entities.MessageKind(cm[i].msg_type), Text: C.GoString(cm[i].msg)}
	}
	for i, r := range t.converse(in) {
		// The plugin frees replies with free(3).
		if in[i].Kind.IsPrompt() {
			cr[i].reply = C.CString(r)
		}
	}
	return 0
}

//export goProbeHook
func goProbeHook(isRegister C.int, typ, version C.uint) C.int {
	if entities.Version(version).Major() != entities.HookVersion.Major() {
		return -1
	}
	active.Lock()
	defer active.Unlock()
	if isRegister != 0 {
		active.hooks = append(active.hooks, entities.HookType(typ))
		return 0
	}
	for i, h := range active.hooks {
		if h == entities.HookType(typ) {
			active.hooks = append(active.hooks[:i], active.hooks[i+1:]...)
			return 0
		}
	}
	return -1
}

func takeHooks() []entities.HookType {
	active.Lock()
	defer active.Unlock()
	out := active.hooks
	active.hooks = nil
	return out
}

func liveHooks() []entities.HookType {
	active.Lock()
	defer active.Unlock()
	return append([]entities.HookType(nil), active.hooks...)
}
