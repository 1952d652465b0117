//go:build cgo

package abi

/*
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include "sudo_plugin.h"
*/
import "C"

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/application/outcome"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// Define the functions the C table calls. Each one recovers panics and
// translates arguments; lifecycle policy lives in the Dispatcher.

//export goSudoBind
func goSudoBind() C.uint {
	d, e := current()
	if d == nil {
		return 0
	}
	return C.uint(e.mask() | maskBound)
}

//export goSudoOpen
func goSudoOpen(version C.uint, conv C.sudo_conv_t, printf C.sudo_printf_t,
	settings, userInfo, commandInfo **C.char, argc C.int,
	argv, userEnv, pluginOptions **C.char,
) C.int {
	return handleExportedCall("open", func() C.int {
		host := &cHost{conv: conv, printf: printf}
		d, _ := current()
		if d == nil {
			host.Printf(entities.MessageError, "sudo-plugin-sdk: no plugin registered\n")
			return C.int(outcome.CodeAbort)
		}

		raw := bridge.RawEnvironment{
			Settings:      goStrings(settings),
			UserInfo:      goStrings(userInfo),
			CommandInfo:   goStrings(commandInfo),
			Argv:          goStrings(argv),
			Argc:          int(argc),
			UserEnv:       goStrings(userEnv),
			PluginOptions: goStrings(pluginOptions),
			Version:       entities.Version(version),
		}
		return C.int(d.Open(raw, host))
	})
}

//export goSudoClose
func goSudoClose(exitStatus, errnum C.int) {
	handleExportedCall("close", func() C.int {
		if d, _ := current(); d != nil {
			d.Close(int(exitStatus), int(errnum))
		}
		return 0
	})
}

//export goSudoShowVersion
func goSudoShowVersion(verbose C.int) C.int {
	return handleExportedCall("show_version", func() C.int {
		d, _ := current()
		if d == nil {
			return C.int(outcome.CodeAllow)
		}
		return C.int(d.ShowVersion(verbose != 0))
	})
}

//export goSudoLog
func goSudoLog(stream C.int, buf *C.char, n C.uint) C.int {
	return handleExportedCall("log", func() C.int {
		d, _ := current()
		if d == nil {
			return C.int(outcome.CodeAbort)
		}
		if buf == nil && n > 0 {
			slog.Error("sdk: host passed a NULL buffer", "stream", entities.Stream(stream).String(), "len", uint(n))
			return C.int(outcome.CodeAbort)
		}
		return C.int(d.Log(entities.Stream(stream), borrowed(buf, n)))
	})
}

// handleExportedCall is the wrapper every exported entry point runs in.
// A panic that escapes the adapter is logged and reported as the abort
// code, so the host never unwinds through Go frames.
func handleExportedCall(name string, f func() C.int) (rc C.int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sdk: panic in exported call", "call", name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			rc = C.int(outcome.CodeAbort)
		}
	}()
	return f()
}
