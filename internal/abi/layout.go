//go:build cgo

package abi

/*
#include <stddef.h>
#include "sudo_plugin.h"

static size_t sudo_go_offset(int s, int f)
{
    switch (s) {
    case 0:
        switch (f) {
        case 0: return offsetof(struct io_plugin, type);
        case 1: return offsetof(struct io_plugin, version);
        case 2: return offsetof(struct io_plugin, open);
        case 3: return offsetof(struct io_plugin, close);
        case 4: return offsetof(struct io_plugin, show_version);
        case 5: return offsetof(struct io_plugin, log_ttyin);
        case 6: return offsetof(struct io_plugin, log_ttyout);
        case 7: return offsetof(struct io_plugin, log_stdin);
        case 8: return offsetof(struct io_plugin, log_stdout);
        case 9: return offsetof(struct io_plugin, log_stderr);
        case 10: return offsetof(struct io_plugin, register_hooks);
        case 11: return offsetof(struct io_plugin, deregister_hooks);
        }
        break;
    case 1:
        switch (f) {
        case 0: return offsetof(struct sudo_hook, hook_version);
        case 1: return offsetof(struct sudo_hook, hook_type);
        case 2: return offsetof(struct sudo_hook, hook_fn);
        case 3: return offsetof(struct sudo_hook, closure);
        }
        break;
    case 2:
        switch (f) {
        case 0: return offsetof(struct sudo_conv_message, msg_type);
        case 1: return offsetof(struct sudo_conv_message, timeout);
        case 2: return offsetof(struct sudo_conv_message, msg);
        }
        break;
    case 3:
        switch (f) {
        case 0: return offsetof(struct sudo_conv_reply, reply);
        }
        break;
    case 4:
        switch (f) {
        case 0: return offsetof(struct sudo_conv_callback, version);
        case 1: return offsetof(struct sudo_conv_callback, closure);
        case 2: return offsetof(struct sudo_conv_callback, on_suspend);
        case 3: return offsetof(struct sudo_conv_callback, on_resume);
        }
        break;
    }
    return (size_t)-1;
}

static size_t sudo_go_sizeof(int s)
{
    switch (s) {
    case 0: return sizeof(struct io_plugin);
    case 1: return sizeof(struct sudo_hook);
    case 2: return sizeof(struct sudo_conv_message);
    case 3: return sizeof(struct sudo_conv_reply);
    case 4: return sizeof(struct sudo_conv_callback);
    }
    return 0;
}

static unsigned int sudo_go_table_type(void) { return sudo_go_io_plugin.type; }
static unsigned int sudo_go_table_version(void) { return sudo_go_io_plugin.version; }
*/
import "C"

var layoutFields = []struct {
	name   string
	fields []string
}{
	{"io_plugin", []string{"type", "version", "open", "close", "show_version",
		"log_ttyin", "log_ttyout", "log_stdin", "log_stdout", "log_stderr",
		"register_hooks", "deregister_hooks"}},
	{"sudo_hook", []string{"hook_version", "hook_type", "hook_fn", "closure"}},
	{"sudo_conv_message", []string{"msg_type", "timeout", "msg"}},
	{"sudo_conv_reply", []string{"reply"}},
	{"sudo_conv_callback", []string{"version", "closure", "on_suspend", "on_resume"}},
}

// Layout reports sizeof and offsetof of the C structs as the C compiler
// laid them out.
func Layout() []Struct {
	out := make([]Struct, 0, len(layoutFields))
	for si, s := range layoutFields {
		st := Struct{Name: s.name, Size: uintptr(C.sudo_go_sizeof(C.int(si)))}
		for fi, f := range s.fields {
			st.Fields = append(st.Fields, Field{Name: f, Offset: uintptr(C.sudo_go_offset(C.int(si), C.int(fi)))})
		}
		out = append(out, st)
	}
	return out
}

// Constants reports the values of the header macros the Go side mirrors.
func Constants() map[string]int {
	return map[string]int{
		"SUDO_API_VERSION":           int(C.SUDO_API_VERSION),
		"SUDO_IO_PLUGIN":             int(C.SUDO_IO_PLUGIN),
		"SUDO_CONV_PROMPT_ECHO_OFF":  int(C.SUDO_CONV_PROMPT_ECHO_OFF),
		"SUDO_CONV_PROMPT_ECHO_ON":   int(C.SUDO_CONV_PROMPT_ECHO_ON),
		"SUDO_CONV_ERROR_MSG":        int(C.SUDO_CONV_ERROR_MSG),
		"SUDO_CONV_INFO_MSG":         int(C.SUDO_CONV_INFO_MSG),
		"SUDO_CONV_PROMPT_MASK":      int(C.SUDO_CONV_PROMPT_MASK),
		"SUDO_CONV_PROMPT_ECHO_OK":   int(C.SUDO_CONV_PROMPT_ECHO_OK),
		"SUDO_CONV_CALLBACK_VERSION": int(C.SUDO_CONV_CALLBACK_VERSION),
		"SUDO_HOOK_VERSION":          int(C.SUDO_HOOK_VERSION),
		"SUDO_HOOK_SETENV":           int(C.SUDO_HOOK_SETENV),
		"SUDO_HOOK_UNSETENV":         int(C.SUDO_HOOK_UNSETENV),
		"SUDO_HOOK_PUTENV":           int(C.SUDO_HOOK_PUTENV),
		"SUDO_HOOK_GETENV":           int(C.SUDO_HOOK_GETENV),
		"SUDO_HOOK_RET_ERROR":        int(C.SUDO_HOOK_RET_ERROR),
		"SUDO_HOOK_RET_NEXT":         int(C.SUDO_HOOK_RET_NEXT),
		"SUDO_HOOK_RET_STOP":         int(C.SUDO_HOOK_RET_STOP),
	}
}

// Table reports the static header of the exported table.
func Table() (pluginType, version uint32) {
	return uint32(C.sudo_go_table_type()), uint32(C.sudo_go_table_version())
}
