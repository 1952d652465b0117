//go:build cgo

package abi

/*
#include <stdarg.h>
#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include "sudo_plugin.h"

static char loopback_out[4096];
static int loopback_last_type;
static int loopback_last_timeout;
static int loopback_suspend_rc;
static int loopback_fail;

static int loopback_printf(int msg_type, const char *fmt, ...)
{
    va_list ap;
    size_t used = strlen(loopback_out);
    int n;

    loopback_last_type = msg_type;
    va_start(ap, fmt);
    n = vsnprintf(loopback_out + used, sizeof(loopback_out) - used, fmt, ap);
    va_end(ap);
    return n;
}

static int loopback_conv(int num_msgs, const struct sudo_conv_message msgs[],
    struct sudo_conv_reply replies[], struct sudo_conv_callback *callback)
{
    char buf[128];
    int i;

    if (callback != NULL && callback->version == SUDO_CONV_CALLBACK_VERSION) {
        loopback_suspend_rc = callback->on_suspend(20, callback->closure);
        loopback_suspend_rc |= callback->on_resume(20, callback->closure);
    }
    for (i = 0; i < num_msgs; i++) {
        int kind = msgs[i].msg_type & ~SUDO_CONV_PROMPT_ECHO_OK;
        loopback_last_timeout = msgs[i].timeout;
        if (kind == SUDO_CONV_ERROR_MSG || kind == SUDO_CONV_INFO_MSG)
            continue;
        snprintf(buf, sizeof(buf), "echo:%s", msgs[i].msg);
        replies[i].reply = strdup(buf);
    }
    return loopback_fail ? -1 : 0;
}

static void loopback_reset(int fail)
{
    loopback_out[0] = '\0';
    loopback_last_type = 0;
    loopback_last_timeout = 0;
    loopback_suspend_rc = 0;
    loopback_fail = fail;
}

static const char *loopback_output(void) { return loopback_out; }
static int loopback_type(void) { return loopback_last_type; }
static int loopback_timeout(void) { return loopback_last_timeout; }
static int loopback_suspend(void) { return loopback_suspend_rc; }
static sudo_conv_t loopback_conv_fn(void) { return loopback_conv; }
static sudo_printf_t loopback_printf_fn(void) { return loopback_printf; }

static int loopback_hooks_live;
static int loopback_refuse_hooks;

static int loopback_register(struct sudo_hook *hook)
{
    if (hook == NULL || loopback_refuse_hooks)
        return -1;
    if (SUDO_API_VERSION_GET_MAJOR(hook->hook_version) != SUDO_HOOK_VERSION_MAJOR)
        return -1;
    loopback_hooks_live++;
    return 0;
}

static int loopback_deregister(struct sudo_hook *hook)
{
    if (hook == NULL)
        return -1;
    loopback_hooks_live--;
    return 0;
}

static sudo_hook_register_t loopback_register_fn(void) { return loopback_register; }
static sudo_hook_register_t loopback_deregister_fn(void) { return loopback_deregister; }
static int loopback_live(void) { return loopback_hooks_live; }
static void loopback_hooks_reset(int refuse) { loopback_hooks_live = 0; loopback_refuse_hooks = refuse; }

static int loopback_setenv(struct sudo_hook *h, const char *name, const char *value, int overwrite)
{
    return ((sudo_hook_fn_setenv_t)h->hook_fn)(name, value, overwrite, h->closure);
}

static int loopback_unsetenv(struct sudo_hook *h, const char *name)
{
    return ((sudo_hook_fn_unsetenv_t)h->hook_fn)(name, h->closure);
}

static int loopback_putenv(struct sudo_hook *h, char *entry)
{
    return ((sudo_hook_fn_putenv_t)h->hook_fn)(entry, h->closure);
}

static int loopback_getenv(struct sudo_hook *h, const char *name, char *out, size_t outlen)
{
    char *value = NULL;
    int rc = ((sudo_hook_fn_getenv_t)h->hook_fn)(name, &value, h->closure);

    out[0] = '\0';
    if (value != NULL)
        snprintf(out, outlen, "%s", value);
    return rc;
}

static uintptr_t loopback_getenv_ptr(struct sudo_hook *h, const char *name)
{
    char *value = NULL;

    ((sudo_hook_fn_getenv_t)h->hook_fn)(name, &value, h->closure);
    return (uintptr_t)value;
}

static unsigned int loopback_table_entries(void)
{
    unsigned int m = 0;

    if (sudo_go_io_plugin.log_ttyin != NULL) m |= SUDO_GO_ENTRY_STREAM(SUDO_GO_STREAM_TTYIN);
    if (sudo_go_io_plugin.log_ttyout != NULL) m |= SUDO_GO_ENTRY_STREAM(SUDO_GO_STREAM_TTYOUT);
    if (sudo_go_io_plugin.log_stdin != NULL) m |= SUDO_GO_ENTRY_STREAM(SUDO_GO_STREAM_STDIN);
    if (sudo_go_io_plugin.log_stdout != NULL) m |= SUDO_GO_ENTRY_STREAM(SUDO_GO_STREAM_STDOUT);
    if (sudo_go_io_plugin.log_stderr != NULL) m |= SUDO_GO_ENTRY_STREAM(SUDO_GO_STREAM_STDERR);
    if (sudo_go_io_plugin.register_hooks != NULL && sudo_go_io_plugin.deregister_hooks != NULL)
        m |= SUDO_GO_ENTRY_HOOKS;
    return m;
}
*/
import "C"

import (
	"unsafe"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// The loopback callbacks are implemented in C inside this package so the
// Go half of the contract can be exercised without a sudo front end.

type loopbackState struct {
	Output         string
	LastKind       int
	LastTimeout    int
	SuspendResults int
}

func loopbackHost(fail bool) *cHost {
	f := 0
	if fail {
		f = 1
	}
	C.loopback_reset(C.int(f))
	return &cHost{conv: C.loopback_conv_fn(), printf: C.loopback_printf_fn()}
}

func loopbackResult() loopbackState {
	return loopbackState{
		Output:         C.GoString(C.loopback_output()),
		LastKind:       int(C.loopback_type()),
		LastTimeout:    int(C.loopback_timeout()),
		SuspendResults: int(C.loopback_suspend()),
	}
}

// roundTripStrings copies ss into a NULL-terminated C array and reads it
// back with goStrings.
func roundTripStrings(ss []string) []string {
	arr, free := cArray(ss)
	defer free()
	return goStrings(arr)
}

// borrowedCopy passes p through C memory and the borrowed view.
func borrowedCopy(p []byte) []byte {
	if len(p) == 0 {
		return borrowed(nil, 0)
	}
	buf := (*C.char)(C.CBytes(p))
	defer C.free(unsafe.Pointer(buf))
	return append([]byte(nil), borrowed(buf, C.uint(len(p)))...)
}

// cArray builds a NULL-terminated C string array. nil stays NULL.
func cArray(ss []string) (**C.char, func()) {
	if ss == nil {
		return nil, func() {}
	}
	arr := (**C.char)(C.calloc(C.size_t(len(ss)+1), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	view := unsafe.Slice(arr, len(ss)+1)
	for i, s := range ss {
		view[i] = C.CString(s)
	}
	return arr, func() {
		for i := range ss {
			C.free(unsafe.Pointer(view[i]))
		}
		C.free(unsafe.Pointer(arr))
	}
}

// loopbackOpen drives the open export with the loopback callbacks.
func loopbackOpen(raw bridge.RawEnvironment) int {
	arrays := [][]string{raw.Settings, raw.UserInfo, raw.CommandInfo, raw.Argv, raw.UserEnv, raw.PluginOptions}
	ptrs := make([]**C.char, len(arrays))
	for i, a := range arrays {
		p, free := cArray(a)
		defer free()
		ptrs[i] = p
	}
	return int(goSudoOpen(C.uint(raw.Version), C.loopback_conv_fn(), C.loopback_printf_fn(),
		ptrs[0], ptrs[1], ptrs[2], C.int(raw.Argc), ptrs[3], ptrs[4], ptrs[5]))
}

func loopbackLog(s entities.Stream, p []byte) int {
	if len(p) == 0 {
		return int(goSudoLog(C.int(s), nil, 0))
	}
	buf := (*C.char)(C.CBytes(p))
	defer C.free(unsafe.Pointer(buf))
	return int(goSudoLog(C.int(s), buf, C.uint(len(p))))
}

func loopbackShowVersion(verbose bool) int {
	v := 0
	if verbose {
		v = 1
	}
	return int(goSudoShowVersion(C.int(v)))
}

// loopbackBindTable runs the one-shot C bind and reports which optional
// entries ended up non-NULL.
func loopbackBindTable() (bound bool, entries uint32) {
	ok := C.sudo_go_io_plugin_bind()
	return ok != 0, uint32(C.loopback_table_entries())
}

func loopbackRegisterHooks(version entities.Version, refuse bool) int {
	r := 0
	if refuse {
		r = 1
	}
	C.loopback_hooks_reset(C.int(r))
	goSudoRegisterHooks(C.int(version), C.loopback_register_fn())
	return int(C.loopback_live())
}

func loopbackDeregisterHooks(version entities.Version) int {
	goSudoDeregisterHooks(C.int(version), C.loopback_deregister_fn())
	return int(C.loopback_live())
}

// loopbackHookCall invokes the C hook function of rec the way the host
// would.
type loopbackHookCall struct {
	hook *C.struct_sudo_hook
}

func loopbackHook(b *cgoBinder, rec entities.HookRecord) loopbackHookCall {
	return loopbackHookCall{hook: b.lookup(rec)}
}

func (c loopbackHookCall) setenv(name, value string, overwrite bool) int {
	cn, cv := C.CString(name), C.CString(value)
	defer C.free(unsafe.Pointer(cn))
	defer C.free(unsafe.Pointer(cv))
	o := 0
	if overwrite {
		o = 1
	}
	return int(C.loopback_setenv(c.hook, cn, cv, C.int(o)))
}

func (c loopbackHookCall) unsetenv(name string) int {
	cn := C.CString(name)
	defer C.free(unsafe.Pointer(cn))
	return int(C.loopback_unsetenv(c.hook, cn))
}

func (c loopbackHookCall) putenv(entry string) int {
	ce := C.CString(entry)
	defer C.free(unsafe.Pointer(ce))
	return int(C.loopback_putenv(c.hook, ce))
}

func (c loopbackHookCall) getenv(name string) (string, int) {
	cn := C.CString(name)
	defer C.free(unsafe.Pointer(cn))
	out := (*C.char)(C.calloc(1, 256))
	defer C.free(unsafe.Pointer(out))
	rc := C.loopback_getenv(c.hook, cn, out, 256)
	return C.GoString(out), int(rc)
}

// getenvPointer returns the address of the value the hook handed back.
func (c loopbackHookCall) getenvPointer(name string) uintptr {
	cn := C.CString(name)
	defer C.free(unsafe.Pointer(cn))
	return uintptr(C.loopback_getenv_ptr(c.hook, cn))
}
