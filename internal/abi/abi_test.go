//go:build cgo

package abi

import (
	"errors"
	"math"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
	"github.com/reglet-dev/sudo-plugin-sdk/application/outcome"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

type fakeDispatcher struct {
	openCode outcome.Code
	raw      bridge.RawEnvironment
	host     ports.Host
	logged   map[entities.Stream][]byte
	panicOn  string
	verbose  bool
	closed   []int
}

func (d *fakeDispatcher) Open(raw bridge.RawEnvironment, host ports.Host) outcome.Code {
	if d.panicOn == "open" {
		panic("boom")
	}
	d.raw, d.host = raw, host
	host.Printf(entities.MessageInfo, "opened\n")
	return d.openCode
}

func (d *fakeDispatcher) Log(s entities.Stream, p []byte) outcome.Code {
	if d.logged == nil {
		d.logged = make(map[entities.Stream][]byte)
	}
	d.logged[s] = append(d.logged[s], p...)
	return outcome.CodeAllow
}

func (d *fakeDispatcher) ShowVersion(verbose bool) outcome.Code {
	d.verbose = verbose
	return outcome.CodeAllow
}

func (d *fakeDispatcher) Close(exitStatus, errno int) {
	d.closed = append(d.closed, exitStatus, errno)
}

func TestLayout_LP64(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("offsets below are for LP64 targets")
	}

	want := map[string]struct {
		size    uintptr
		offsets []uintptr
	}{
		"io_plugin":          {88, []uintptr{0, 4, 8, 16, 24, 32, 40, 48, 56, 64, 72, 80}},
		"sudo_hook":          {24, []uintptr{0, 4, 8, 16}},
		"sudo_conv_message":  {16, []uintptr{0, 4, 8}},
		"sudo_conv_reply":    {8, []uintptr{0}},
		"sudo_conv_callback": {32, []uintptr{0, 8, 16, 24}},
	}

	layout := Layout()
	require.Len(t, layout, len(want))
	for _, s := range layout {
		w, ok := want[s.Name]
		require.True(t, ok, s.Name)
		assert.Equal(t, w.size, s.Size, s.Name)
		require.Len(t, s.Fields, len(w.offsets), s.Name)
		for i, f := range s.Fields {
			assert.Equal(t, w.offsets[i], f.Offset, "%s.%s", s.Name, f.Name)
		}
	}
}

func TestConstants_MatchGoValues(t *testing.T) {
	c := Constants()

	assert.Equal(t, int(entities.CompiledVersion), c["SUDO_API_VERSION"])
	assert.Equal(t, IOPluginType, c["SUDO_IO_PLUGIN"])
	assert.Equal(t, ConvCallbackVersion, c["SUDO_CONV_CALLBACK_VERSION"])
	assert.Equal(t, int(entities.MessagePromptEchoOff), c["SUDO_CONV_PROMPT_ECHO_OFF"])
	assert.Equal(t, int(entities.MessagePromptEchoOn), c["SUDO_CONV_PROMPT_ECHO_ON"])
	assert.Equal(t, int(entities.MessageError), c["SUDO_CONV_ERROR_MSG"])
	assert.Equal(t, int(entities.MessageInfo), c["SUDO_CONV_INFO_MSG"])
	assert.Equal(t, int(entities.MessagePromptMask), c["SUDO_CONV_PROMPT_MASK"])
	assert.Equal(t, int(entities.MessageFlagEchoOK), c["SUDO_CONV_PROMPT_ECHO_OK"])
	assert.Equal(t, int(entities.HookVersion), c["SUDO_HOOK_VERSION"])
	assert.Equal(t, int(entities.HookSetenv), c["SUDO_HOOK_SETENV"])
	assert.Equal(t, int(entities.HookUnsetenv), c["SUDO_HOOK_UNSETENV"])
	assert.Equal(t, int(entities.HookPutenv), c["SUDO_HOOK_PUTENV"])
	assert.Equal(t, int(entities.HookGetenv), c["SUDO_HOOK_GETENV"])
	assert.Equal(t, int(entities.HookError), c["SUDO_HOOK_RET_ERROR"])
	assert.Equal(t, int(entities.HookNext), c["SUDO_HOOK_RET_NEXT"])
	assert.Equal(t, int(entities.HookStop), c["SUDO_HOOK_RET_STOP"])
}

func TestTable_Header(t *testing.T) {
	typ, version := Table()
	assert.Equal(t, uint32(IOPluginType), typ)
	assert.Equal(t, uint32(entities.CompiledVersion), version)
}

func TestEntries_Mask(t *testing.T) {
	assert.Equal(t, uint32(0), Entries{}.mask())
	assert.Equal(t, uint32(1<<1|1<<4), Entries{Streams: [5]bool{false, true, false, false, true}}.mask())
	assert.Equal(t, uint32(0x3f), Entries{Streams: [5]bool{true, true, true, true, true}, Hooks: true}.mask())
}

func TestGoStrings(t *testing.T) {
	assert.Nil(t, roundTripStrings(nil))
	assert.Empty(t, roundTripStrings([]string{}))
	assert.Equal(t, []string{"progname=sudo", "", "env=A=B"}, roundTripStrings([]string{"progname=sudo", "", "env=A=B"}))
}

func TestBorrowed(t *testing.T) {
	assert.Nil(t, borrowedCopy(nil))
	assert.Equal(t, []byte("a\x00b\n"), borrowedCopy([]byte("a\x00b\n")))
}

func TestCHost_PrintfIsNotAFormat(t *testing.T) {
	h := loopbackHost(false)

	rc := h.Printf(entities.MessageError, "100% %s %n done\n")
	assert.Equal(t, len("100% %s %n done\n"), rc)

	res := loopbackResult()
	assert.Equal(t, "100% %s %n done\n", res.Output)
	assert.Equal(t, int(entities.MessageError), res.LastKind)
}

func TestCHost_EmbeddedNUL(t *testing.T) {
	h := loopbackHost(false)
	h.Printf(entities.MessageInfo, "a\x00b\n")
	assert.Equal(t, "a\\0b\n", loopbackResult().Output)

	h = loopbackHost(false)
	replies, code := h.Converse([]entities.Message{{Kind: entities.MessagePromptEchoOn, Text: "x\x00y"}}, nil)
	require.Equal(t, 0, code)
	assert.Equal(t, []string{`echo:x\0y`}, replies)
}

func TestCHost_ConverseLongTimeout(t *testing.T) {
	h := loopbackHost(false)
	_, code := h.Converse([]entities.Message{
		{Kind: entities.MessagePromptEchoOn, Text: "wait", Timeout: 100 * 365 * 24 * time.Hour},
	}, nil)
	require.Equal(t, 0, code)
	assert.Equal(t, math.MaxInt32, loopbackResult().LastTimeout)
}

func TestCHost_NilCallbacks(t *testing.T) {
	h := &cHost{}
	assert.Equal(t, -1, h.Printf(entities.MessageInfo, "x"))
	_, code := h.Converse([]entities.Message{entities.InfoMessage("x")}, nil)
	assert.Equal(t, -1, code)
}

func TestCHost_Converse(t *testing.T) {
	h := loopbackHost(false)

	replies, code := h.Converse([]entities.Message{
		entities.InfoMessage("hello"),
		{Kind: entities.MessagePromptEchoOn | entities.MessageFlagEchoOK, Text: "Token: ", Timeout: 1500 * time.Millisecond},
	}, nil)
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"", "echo:Token: "}, replies)

	res := loopbackResult()
	assert.Equal(t, 2, res.LastTimeout)
	assert.Equal(t, 0, res.SuspendResults)
}

func TestCHost_ConverseSuspendHandler(t *testing.T) {
	var signals []int
	handler := ports.SuspendFuncs{
		Suspend: func(sig int) error { signals = append(signals, sig); return nil },
		Resume:  func(sig int) error { signals = append(signals, -sig); return nil },
	}

	h := loopbackHost(false)
	_, code := h.Converse([]entities.Message{{Kind: entities.MessagePromptEchoOff, Text: "Password: "}}, handler)
	require.Equal(t, 0, code)
	assert.Equal(t, []int{20, -20}, signals)
	assert.Equal(t, 0, loopbackResult().SuspendResults)

	failing := ports.SuspendFuncs{Suspend: func(int) error { return errors.New("no") }}
	h = loopbackHost(false)
	_, code = h.Converse([]entities.Message{{Kind: entities.MessagePromptEchoOff, Text: "Password: "}}, failing)
	require.Equal(t, 0, code)
	assert.Equal(t, -1, loopbackResult().SuspendResults)
}

func TestCHost_ConverseFailure(t *testing.T) {
	h := loopbackHost(true)
	replies, code := h.Converse([]entities.Message{{Kind: entities.MessagePromptEchoOn, Text: "x"}}, nil)
	assert.Equal(t, -1, code)
	assert.Nil(t, replies)
}

func TestExports_OpenLogCloseShowVersion(t *testing.T) {
	d := &fakeDispatcher{openCode: outcome.CodeAllow}
	Bind(d, Entries{Streams: [5]bool{false, true}}, nil)
	t.Cleanup(func() { Bind(nil, Entries{}, nil) })

	loopbackHost(false)
	raw := bridge.RawEnvironment{
		Settings:      []string{"progname=sudo"},
		UserInfo:      []string{"user=alice", "uid=1000"},
		CommandInfo:   []string{"command=/bin/ls", "iolog_ttyout=true"},
		Argv:          []string{"ls", "-l"},
		Argc:          2,
		UserEnv:       []string{"PATH=/bin"},
		PluginOptions: nil,
		Version:       entities.CompiledVersion,
	}
	require.Equal(t, 1, loopbackOpen(raw))
	assert.Equal(t, raw, d.raw)
	assert.Equal(t, "opened\n", loopbackResult().Output)

	require.Equal(t, 1, loopbackLog(entities.StreamTTYOut, []byte("total 0\n")))
	require.Equal(t, 1, loopbackLog(entities.StreamTTYOut, nil))
	assert.Equal(t, []byte("total 0\n"), d.logged[entities.StreamTTYOut])

	assert.Equal(t, 1, loopbackShowVersion(true))
	assert.True(t, d.verbose)

	goSudoClose(3, 0)
	assert.Equal(t, []int{3, 0}, d.closed)
}

func TestExports_PanicIsAbort(t *testing.T) {
	Bind(&fakeDispatcher{panicOn: "open"}, Entries{}, nil)
	t.Cleanup(func() { Bind(nil, Entries{}, nil) })

	loopbackHost(false)
	assert.Equal(t, -1, loopbackOpen(bridge.RawEnvironment{Version: entities.CompiledVersion}))
}

func TestExports_Unbound(t *testing.T) {
	Bind(nil, Entries{}, nil)

	loopbackHost(false)
	assert.Equal(t, -1, loopbackOpen(bridge.RawEnvironment{Version: entities.CompiledVersion}))
	assert.Equal(t, "sudo-plugin-sdk: no plugin registered\n", loopbackResult().Output)
	assert.Equal(t, -1, loopbackLog(entities.StreamStdout, []byte("x")))
	assert.Equal(t, 1, loopbackShowVersion(false))
}

func TestTableBind(t *testing.T) {
	set := hooks.MustNewSet(hooks.WithUnsetenv(func(string) entities.HookResult { return entities.HookNext }))
	Bind(&fakeDispatcher{}, Entries{Streams: [5]bool{false, true, false, false, true}, Hooks: true}, set)
	t.Cleanup(func() { Bind(nil, Entries{}, nil) })

	bound, entries := loopbackBindTable()
	assert.True(t, bound)
	assert.Equal(t, uint32(1<<1|1<<4|1<<5), entries)

	// The table is filled once; a later bind does not rewrite it.
	Bind(&fakeDispatcher{}, Entries{}, nil)
	bound, entries = loopbackBindTable()
	assert.True(t, bound)
	assert.Equal(t, uint32(1<<1|1<<4|1<<5), entries)
}

func TestHooks_RegisterCallDeregister(t *testing.T) {
	var setenvCalls []string
	set := hooks.MustNewSet(
		hooks.WithSetenv(func(name, value string, overwrite bool) entities.HookResult {
			setenvCalls = append(setenvCalls, name+"="+value)
			if name == "LD_PRELOAD" {
				return entities.HookStop
			}
			return entities.HookNext
		}),
		hooks.WithGetenv(func(name string) (string, entities.HookResult) {
			if name == "SUDO_PLUGIN" {
				return "go", entities.HookStop
			}
			return "", entities.HookNext
		}),
	)
	Bind(&fakeDispatcher{}, Entries{Hooks: true}, set)
	t.Cleanup(func() { Bind(nil, Entries{}, nil) })

	require.Equal(t, 2, loopbackRegisterHooks(entities.HookVersion, false))

	reg, binder := currentHooks()
	recs := reg.Registered()
	require.Len(t, recs, 2)
	assert.Equal(t, entities.HookSetenv, recs[0].Type)
	assert.Equal(t, entities.HookGetenv, recs[1].Type)
	assert.NotNil(t, recs[0].Fn)

	setenv := loopbackHook(binder, recs[0])
	assert.Equal(t, int(entities.HookStop), setenv.setenv("LD_PRELOAD", "/tmp/x.so", true))
	assert.Equal(t, int(entities.HookNext), setenv.setenv("TERM", "xterm", false))
	assert.Equal(t, []string{"LD_PRELOAD=/tmp/x.so", "TERM=xterm"}, setenvCalls)
	// A setenv hook ignores calls of another type.
	assert.Equal(t, int(entities.HookNext), setenv.unsetenv("TERM"))
	assert.Equal(t, int(entities.HookNext), setenv.putenv("TERM=vt100"))

	getenv := loopbackHook(binder, recs[1])
	v, rc := getenv.getenv("SUDO_PLUGIN")
	assert.Equal(t, int(entities.HookStop), rc)
	assert.Equal(t, "go", v)
	v, rc = getenv.getenv("HOME")
	assert.Equal(t, int(entities.HookNext), rc)
	assert.Empty(t, v)

	// Repeated lookups of one value share a single C string.
	first := getenv.getenvPointer("SUDO_PLUGIN")
	assert.NotZero(t, first)
	assert.Equal(t, first, getenv.getenvPointer("SUDO_PLUGIN"))
	assert.Equal(t, 1, binder.values.Count())

	assert.Equal(t, 0, loopbackDeregisterHooks(entities.HookVersion))
	assert.Empty(t, reg.Registered())
	assert.Zero(t, binder.values.Count())
}

func TestHooks_Refused(t *testing.T) {
	set := hooks.MustNewSet(hooks.WithPutenv(func(string) entities.HookResult { return entities.HookNext }))
	Bind(&fakeDispatcher{}, Entries{Hooks: true}, set)
	t.Cleanup(func() { Bind(nil, Entries{}, nil) })

	assert.Equal(t, 0, loopbackRegisterHooks(entities.HookVersion, true))
	reg, _ := currentHooks()
	assert.Empty(t, reg.Registered())
}

func TestHooks_VersionMismatch(t *testing.T) {
	set := hooks.MustNewSet(hooks.WithPutenv(func(string) entities.HookResult { return entities.HookNext }))
	Bind(&fakeDispatcher{}, Entries{Hooks: true}, set)
	t.Cleanup(func() { Bind(nil, Entries{}, nil) })

	assert.Equal(t, 0, loopbackRegisterHooks(entities.MakeVersion(2, 0), false))
}
