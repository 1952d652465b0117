//go:build cgo && linux

package host

/*
#cgo CFLAGS: -I${SRCDIR}/../internal/abi
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
#include "sudo_plugin.h"

extern int probe_printf(int msg_type, const char *fmt, ...);
extern int probe_conv(int num_msgs, const struct sudo_conv_message msgs[],
    struct sudo_conv_reply replies[], struct sudo_conv_callback *callback);
extern int probe_register_hook(struct sudo_hook *hook);
extern int probe_deregister_hook(struct sudo_hook *hook);

static int probe_call_bind(void *fn)
{
    return ((int (*)(void))fn)();
}

static int probe_entry(struct io_plugin *p, int i)
{
    switch (i) {
    case 0: return p->open != NULL;
    case 1: return p->close != NULL;
    case 2: return p->show_version != NULL;
    case 3: return p->log_ttyin != NULL;
    case 4: return p->log_ttyout != NULL;
    case 5: return p->log_stdin != NULL;
    case 6: return p->log_stdout != NULL;
    case 7: return p->log_stderr != NULL;
    case 8: return p->register_hooks != NULL;
    case 9: return p->deregister_hooks != NULL;
    }
    return 0;
}

static int probe_open(struct io_plugin *p, unsigned int version,
    char **settings, char **user_info, char **command_info, int argc,
    char **argv, char **user_env, char **plugin_options)
{
    return p->open(version, probe_conv, probe_printf, settings, user_info,
        command_info, argc, argv, user_env, plugin_options);
}

static int probe_log(struct io_plugin *p, int stream, const char *buf, unsigned int len)
{
    switch (stream) {
    case SUDO_GO_STREAM_TTYIN: return p->log_ttyin(buf, len);
    case SUDO_GO_STREAM_TTYOUT: return p->log_ttyout(buf, len);
    case SUDO_GO_STREAM_STDIN: return p->log_stdin(buf, len);
    case SUDO_GO_STREAM_STDOUT: return p->log_stdout(buf, len);
    case SUDO_GO_STREAM_STDERR: return p->log_stderr(buf, len);
    }
    return -1;
}

static int probe_show_version(struct io_plugin *p, int verbose)
{
    return p->show_version(verbose);
}

static void probe_close(struct io_plugin *p, int exit_status, int error)
{
    p->close(exit_status, error);
}

static void probe_hooks(struct io_plugin *p, int version, int deregister)
{
    if (deregister)
        p->deregister_hooks(version, probe_deregister_hook);
    else
        p->register_hooks(version, probe_register_hook);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// TableSymbol is the data symbol every SDK plugin exports.
const TableSymbol = "sudo_go_io_plugin"

// BindSymbol fills the optional entries of the table. The library runs it
// when it is loaded and the open entry runs it again as a fallback; the
// front end never calls it. The probe calls it to learn whether a plugin
// registered itself.
const BindSymbol = "sudo_go_io_plugin_bind"

var entryNames = []string{
	"open", "close", "show_version",
	"log_ttyin", "log_ttyout", "log_stdin", "log_stdout", "log_stderr",
	"register_hooks", "deregister_hooks",
}

// LoadError reports a shared object that could not be loaded as a plugin.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load plugin %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Plugin is a loaded plugin shared object. The object stays mapped for the
// life of the process because a Go runtime cannot be unloaded.
type Plugin struct {
	path   string
	table  *C.struct_io_plugin
	bound  bool
	atLoad []string
}

var _ Driver = (*Plugin)(nil)

// Load dlopens path and resolves its plugin table.
func Load(path string) (*Plugin, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, &LoadError{Path: path, Err: errors.New(C.GoString(C.dlerror()))}
	}

	sym := C.CString(TableSymbol)
	defer C.free(unsafe.Pointer(sym))
	table := C.dlsym(handle, sym)
	if table == nil {
		C.dlclose(handle)
		return nil, &LoadError{Path: path, Err: fmt.Errorf("no %s symbol", TableSymbol)}
	}

	p := &Plugin{path: path, table: (*C.struct_io_plugin)(table)}
	p.atLoad = p.entries()

	bindSym := C.CString(BindSymbol)
	defer C.free(unsafe.Pointer(bindSym))
	if bind := C.dlsym(handle, bindSym); bind != nil {
		p.bound = C.probe_call_bind(bind) != 0
	} else {
		slog.Debug("probe: plugin exports no bind routine", "path", path)
	}
	return p, nil
}

// TableInfo is what the plugin table advertises.
type TableInfo struct {
	Path    string
	Type    uint32
	Version entities.Version
	// Entries lists the non-NULL entry points in table order.
	Entries []string
	// LoadEntries lists the entry points present right after dlopen, which
	// is all the front end sees before it calls register_hooks.
	LoadEntries []string
	// Bound reports whether a plugin registered itself with the SDK.
	Bound bool
}

// Info reads the table header and entry points.
func (p *Plugin) Info() TableInfo {
	return TableInfo{
		Path:        p.path,
		Type:        uint32(p.table._type),
		Version:     entities.Version(p.table.version),
		Entries:     p.entries(),
		LoadEntries: append([]string(nil), p.atLoad...),
		Bound:       p.bound,
	}
}

func (p *Plugin) entries() []string {
	var out []string
	for i, name := range entryNames {
		if p.has(i) {
			out = append(out, name)
		}
	}
	return out
}

func (p *Plugin) has(i int) bool {
	return C.probe_entry(p.table, C.int(i)) != 0
}

// Open implements Driver. Host callbacks are recorded in t until Close.
func (p *Plugin) Open(sc *Scenario, t *Transcript) (int, error) {
	if !p.has(0) {
		return 0, &NoEntryError{Entry: "open"}
	}
	version, err := sc.APIVersion()
	if err != nil {
		return 0, err
	}

	arrays := [][]string{sc.Settings, sc.UserInfo, sc.CommandInfo, sc.Argv, sc.UserEnv, sc.PluginOptions}
	ptrs := make([]**C.char, len(arrays))
	for i, a := range arrays {
		arr, free := cArray(a)
		defer free()
		ptrs[i] = arr
	}

	setActive(t)
	rc := C.probe_open(p.table, C.uint(version), ptrs[0], ptrs[1], ptrs[2],
		C.int(sc.ArgCount()), ptrs[3], ptrs[4], ptrs[5])
	return int(rc), nil
}

// Log implements Driver.
func (p *Plugin) Log(s entities.Stream, data []byte) (int, error) {
	if !p.has(3 + int(s)) {
		return 0, &NoEntryError{Entry: "log_" + s.String()}
	}
	var buf *C.char
	if len(data) > 0 {
		buf = (*C.char)(C.CBytes(data))
		defer C.free(unsafe.Pointer(buf))
	}
	return int(C.probe_log(p.table, C.int(s), buf, C.uint(len(data)))), nil
}

// ShowVersion implements Driver. Output goes to the transcript of the open
// session, if any.
func (p *Plugin) ShowVersion(verbose bool) int {
	v := 0
	if verbose {
		v = 1
	}
	return int(C.probe_show_version(p.table, C.int(v)))
}

// ShowVersionTo runs show_version with t recording the output.
func (p *Plugin) ShowVersionTo(t *Transcript, verbose bool) int {
	prev := activeTranscript()
	setActive(t)
	defer setActive(prev)
	return p.ShowVersion(verbose)
}

// Close implements Driver and ends the session's transcript.
func (p *Plugin) Close(exitStatus, errno int) {
	defer setActive(nil)
	if p.has(1) {
		C.probe_close(p.table, C.int(exitStatus), C.int(errno))
	}
}

// ProbeHooks registers the plugin's hooks with a recording registrar,
// reports their types, and deregisters them again.
func (p *Plugin) ProbeHooks() ([]entities.HookType, error) {
	if !p.has(8) || !p.has(9) {
		return nil, &NoEntryError{Entry: "register_hooks"}
	}
	takeHooks()
	C.probe_hooks(p.table, C.int(entities.HookVersion), 0)
	registered := liveHooks()
	C.probe_hooks(p.table, C.int(entities.HookVersion), 1)
	if left := takeHooks(); len(left) > 0 {
		return registered, fmt.Errorf("%d hooks still registered after deregister_hooks", len(left))
	}
	return registered, nil
}

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
