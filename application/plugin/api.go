package plugin

import (
	"context"
	"fmt"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
)

// PluginDef defines plugin identity and configuration.
type PluginDef struct {
	// Options is a zero value of the plugin's options struct, used for
	// the schema printed by verbose show_version. Optional.
	Options any

	// ShowVersion replaces the default version banner. Optional.
	ShowVersion func(env *bridge.Environment, verbose bool) error

	// Hooks subscribes to host environment hooks. Optional.
	Hooks *hooks.Set

	Name    string
	Version string

	// IgnoreIologHints delivers every stream the instance can log, even
	// those the policy did not ask to transcribe.
	IgnoreIologHints bool
}

func (d PluginDef) validate() error {
	if d.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if d.Version == "" {
		return fmt.Errorf("plugin %s: version is required", d.Name)
	}
	return nil
}

// OpenFunc constructs the per-command plugin instance. Returning an error
// refuses the command: the host never starts it.
type OpenFunc[T any] func(ctx context.Context, env *bridge.Environment) (T, error)

// Closer is implemented by instances that want the command's exit status.
// exitStatus is a wait status when errno is zero; otherwise errno says why
// the command could not be run.
type Closer interface {
	Close(exitStatus, errno int)
}

// TTYInLogger receives keystrokes typed at the terminal. The slice is only
// valid for the duration of the call.
type TTYInLogger interface {
	LogTTYIn(p []byte) error
}

// TTYOutLogger receives terminal output.
type TTYOutLogger interface {
	LogTTYOut(p []byte) error
}

// StdinLogger receives non-terminal standard input.
type StdinLogger interface {
	LogStdin(p []byte) error
}

// StdoutLogger receives non-terminal standard output.
type StdoutLogger interface {
	LogStdout(p []byte) error
}

// StderrLogger receives non-terminal standard error.
type StderrLogger interface {
	LogStderr(p []byte) error
}
