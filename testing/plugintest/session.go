package plugintest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/application/outcome"
	"github.com/reglet-dev/sudo-plugin-sdk/application/plugin"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// Session runs one command's lifecycle against an Adapter.
type Session struct {
	t       testing.TB
	Adapter *plugin.Adapter
	Host    *Host
	Raw     bridge.RawEnvironment
}

// Option adjusts the environment passed to open.
type Option func(*bridge.RawEnvironment)

// DefaultEnvironment is what open receives when no option overrides it.
// Every iolog hint is set.
func DefaultEnvironment() bridge.RawEnvironment {
	cmdInfo := []string{"command=/usr/bin/true", "cwd=/", "runas_uid=0"}
	for _, s := range entities.Streams {
		cmdInfo = append(cmdInfo, s.HintKey()+"=true")
	}
	return bridge.RawEnvironment{
		Settings:    []string{"progname=sudo"},
		UserInfo:    []string{"user=tester", "uid=1000", "gid=1000", "pid=4242", "tty=/dev/pts/0"},
		CommandInfo: cmdInfo,
		Argv:        []string{"true"},
		Argc:        1,
		UserEnv:     []string{"PATH=/usr/bin:/bin"},
		Version:     entities.CompiledVersion,
	}
}

// WithVersion changes the API version advertised by the host.
func WithVersion(v entities.Version) Option {
	return func(r *bridge.RawEnvironment) { r.Version = v }
}

// WithSettings appends settings entries.
func WithSettings(entries ...string) Option {
	return func(r *bridge.RawEnvironment) { r.Settings = append(r.Settings, entries...) }
}

// WithUserInfo appends user_info entries.
func WithUserInfo(entries ...string) Option {
	return func(r *bridge.RawEnvironment) { r.UserInfo = append(r.UserInfo, entries...) }
}

// WithCommandInfo appends command_info entries. Later entries win, so this
// also overrides defaults such as an iolog hint.
func WithCommandInfo(entries ...string) Option {
	return func(r *bridge.RawEnvironment) { r.CommandInfo = append(r.CommandInfo, entries...) }
}

// WithoutIologHints drops every iolog_* entry from command_info.
func WithoutIologHints() Option {
	return func(r *bridge.RawEnvironment) {
		kept := r.CommandInfo[:0:0]
		for _, e := range r.CommandInfo {
			if !isHint(e) {
				kept = append(kept, e)
			}
		}
		r.CommandInfo = kept
	}
}

func isHint(entry string) bool {
	for _, s := range entities.Streams {
		if strings.HasPrefix(entry, s.HintKey()+"=") {
			return true
		}
	}
	return false
}

// WithArgv sets argv and argc.
func WithArgv(args ...string) Option {
	return func(r *bridge.RawEnvironment) {
		r.Argv = args
		r.Argc = len(args)
	}
}

// WithArgc overrides argc without touching argv.
func WithArgc(n int) Option {
	return func(r *bridge.RawEnvironment) { r.Argc = n }
}

// WithUserEnv appends user_env entries.
func WithUserEnv(entries ...string) Option {
	return func(r *bridge.RawEnvironment) { r.UserEnv = append(r.UserEnv, entries...) }
}

// WithPluginOptions sets plugin_options entries.
func WithPluginOptions(entries ...string) Option {
	return func(r *bridge.RawEnvironment) { r.PluginOptions = entries }
}

// NewSession prepares a session; nothing is called until Open.
func NewSession(t testing.TB, a *plugin.Adapter, opts ...Option) *Session {
	t.Helper()
	raw := DefaultEnvironment()
	for _, opt := range opts {
		opt(&raw)
	}
	return &Session{t: t, Adapter: a, Host: &Host{}, Raw: raw}
}

// Open calls the adapter's open entry point.
func (s *Session) Open() outcome.Code {
	return s.Adapter.Open(s.Raw, s.Host)
}

// MustOpen opens and fails the test unless the plugin accepted the command.
func (s *Session) MustOpen() {
	s.t.Helper()
	code := s.Open()
	require.Equal(s.t, outcome.CodeAllow, code, "open refused: %s", s.Host.Errors())
}

// Log delivers one chunk of a stream.
func (s *Session) Log(stream entities.Stream, data string) outcome.Code {
	return s.Adapter.Log(stream, []byte(data))
}

// ShowVersion calls show_version.
func (s *Session) ShowVersion(verbose bool) outcome.Code {
	return s.Adapter.ShowVersion(verbose)
}

// Close delivers the exit status.
func (s *Session) Close(exitStatus, errno int) {
	s.Adapter.Close(exitStatus, errno)
}

// Bind is plugin.Bind that fails the test on error.
func Bind[T any](t testing.TB, def plugin.PluginDef, open plugin.OpenFunc[T]) *plugin.Adapter {
	t.Helper()
	a, err := plugin.Bind(def, open)
	require.NoError(t, err)
	return a
}
