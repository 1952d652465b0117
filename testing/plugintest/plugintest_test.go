package plugintest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

type recordingSuspend struct {
	signals []int
	fail    bool
}

func (r *recordingSuspend) OnSuspend(sig int) error {
	r.signals = append(r.signals, sig)
	if r.fail {
		return errors.New("no")
	}
	return nil
}

func (r *recordingSuspend) OnResume(sig int) error {
	r.signals = append(r.signals, -sig)
	return nil
}

func TestHost_Printf(t *testing.T) {
	h := &Host{}
	assert.Equal(t, 3, h.Printf(entities.MessageInfo, "hi\n"))
	assert.Equal(t, 4, h.Printf(entities.MessageError, "bad\n"))
	assert.Equal(t, "hi\n", h.Output())
	assert.Equal(t, "bad\n", h.Errors())
	assert.Len(t, h.Printed(), 2)

	h.PrintfResult = -1
	assert.Equal(t, -1, h.Printf(entities.MessageInfo, "x"))

	h.Reset()
	assert.Empty(t, h.Printed())
	assert.Empty(t, h.Conversations())
}

func TestHost_Converse(t *testing.T) {
	h := &Host{SuspendSignals: []int{20}}
	msgs := []entities.Message{{Kind: entities.MessagePromptEchoOn, Text: "name? "}}

	s := &recordingSuspend{}
	replies, code := h.Converse(msgs, s)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{""}, replies)
	assert.Equal(t, []int{20, -20}, s.signals)

	_, code = h.Converse(msgs, &recordingSuspend{fail: true})
	assert.Equal(t, -1, code)

	h.OnConverse = func(m []entities.Message) ([]string, int) { return []string{"alice"}, 0 }
	replies, _ = h.Converse(msgs, nil)
	assert.Equal(t, []string{"alice"}, replies)
	assert.Len(t, h.Conversations(), 3)
}

func TestOptions(t *testing.T) {
	raw := DefaultEnvironment()
	assert.Equal(t, entities.CompiledVersion, raw.Version)
	assert.Contains(t, raw.CommandInfo, "iolog_stdout=true")

	for _, opt := range []Option{
		WithoutIologHints(),
		WithArgv("ls", "-l"),
		WithCommandInfo("iolog_ttyout=true"),
		WithPluginOptions("output=/tmp/x"),
		WithVersion(entities.MakeVersion(1, 12)),
	} {
		opt(&raw)
	}
	assert.Equal(t, []string{"command=/usr/bin/true", "cwd=/", "runas_uid=0", "iolog_ttyout=true"}, raw.CommandInfo)
	assert.Equal(t, []string{"ls", "-l"}, raw.Argv)
	assert.Equal(t, 2, raw.Argc)
	assert.Equal(t, []string{"output=/tmp/x"}, raw.PluginOptions)
	assert.Equal(t, "1.12", raw.Version.String())

	WithArgc(5)(&raw)
	assert.Equal(t, 5, raw.Argc)
	assert.Contains(t, DefaultEnvironment().CommandInfo, "iolog_ttyin=true", "defaults are not shared")
}

func TestHookHost(t *testing.T) {
	set := hooks.MustNewSet(
		hooks.WithSetenv(func(name, value string, overwrite bool) entities.HookResult {
			if name == "LD_PRELOAD" {
				return entities.HookStop
			}
			return entities.HookNext
		}),
		hooks.WithGetenv(func(name string) (string, entities.HookResult) {
			if name == "SECRET" {
				return "***", entities.HookStop
			}
			return "", entities.HookNext
		}),
	)

	h, err := NewHookHost(set)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Live())

	assert.Equal(t, entities.HookStop, h.Setenv("LD_PRELOAD", "x.so", true))
	assert.Equal(t, entities.HookNext, h.Setenv("PATH", "/bin", true))
	assert.Equal(t, entities.HookNext, h.Unsetenv("PATH"))

	v, r := h.Getenv("SECRET")
	assert.Equal(t, entities.HookStop, r)
	assert.Equal(t, "***", v)

	require.NoError(t, h.Close())
	assert.Zero(t, h.Live())
}
