// Package plugin adapts a Go plugin implementation to the sudo I/O plugin
// lifecycle: open, log callbacks, show_version and close.
//
// A plugin author provides an OpenFunc that builds a per-command instance
// and lets the instance's method set decide which streams it transcribes:
//
//	type guard struct{ env *bridge.Environment }
//
//	func (g *guard) LogTTYOut(p []byte) error { ... }
//
//	func init() {
//	    plugin.Register(plugin.PluginDef{Name: "guard", Version: "1.0.0"},
//	        func(ctx context.Context, env *bridge.Environment) (*guard, error) {
//	            return &guard{env: env}, nil
//	        })
//	}
//
//	func main() {}
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
	"github.com/reglet-dev/sudo-plugin-sdk/application/outcome"
	"github.com/reglet-dev/sudo-plugin-sdk/application/schema"
	"github.com/reglet-dev/sudo-plugin-sdk/config"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
	sdklog "github.com/reglet-dev/sudo-plugin-sdk/log"
)

// State is the lifecycle position of an Adapter.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Adapter sequences host calls against one plugin. Host entry points arrive
// serialized; the mutex keeps state consistent for goroutines the plugin
// starts itself.
type Adapter struct {
	def    PluginDef
	caps   Capabilities
	open   func(ctx context.Context, env *bridge.Environment) (any, error)
	schema []byte
	usage  string

	mu       sync.Mutex
	state    State
	aborted  bool
	env      *bridge.Environment
	instance any
	cancel   context.CancelFunc
}

// Bind builds an Adapter for instances of type T without touching the
// exported plugin table. T must be a concrete type; its method set decides
// the capabilities.
func Bind[T any](def PluginDef, open OpenFunc[T]) (*Adapter, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	if open == nil {
		return nil, fmt.Errorf("plugin %s: open function is required", def.Name)
	}
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		return nil, fmt.Errorf("plugin %s: instance type %s must be concrete", def.Name, reflect.TypeFor[T]())
	}

	optSchema, err := schema.GenerateSchema(def.Options)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", def.Name, err)
	}

	return &Adapter{
		def:  def,
		caps: capabilitiesOf[T](def),
		open: func(ctx context.Context, env *bridge.Environment) (any, error) {
			return open(ctx, env)
		},
		schema: optSchema,
		usage:  schema.Usage(def.Options),
	}, nil
}

// Def returns the definition the adapter was bound with.
func (a *Adapter) Def() PluginDef {
	return a.def
}

// Capabilities returns the entry points the plugin provides.
func (a *Adapter) Capabilities() Capabilities {
	return a.caps
}

// Hooks returns the plugin's hook set, possibly nil.
func (a *Adapter) Hooks() *hooks.Set {
	return a.def.Hooks
}

// State reports the lifecycle position and whether a log callback vetoed
// the command.
func (a *Adapter) State() (state State, aborted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.aborted
}

// Open handles the host's open call. Any failure refuses the command: the
// error is written to the user and the abort code returned, or the usage
// code for a usage error.
func (a *Adapter) Open(raw bridge.RawEnvironment, host ports.Host) outcome.Code {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateUnopened {
		a.reportTo(host, &errors.ContractViolationError{
			Call:   "open",
			Detail: fmt.Sprintf("plugin is already %s", a.state),
		})
		return outcome.CodeAbort
	}

	if err := a.doOpen(raw, host); err != nil {
		a.state = StateClosed
		o := outcome.Classify(err)
		slog.Debug("sdk: open refused", "plugin", a.def.Name, "outcome", o.Kind.String())
		if o.Kind == outcome.Usage {
			if a.usage != "" {
				host.Printf(entities.MessageError, fmt.Sprintf("%s: options: %s\n", a.def.Name, a.usage))
			}
			return outcome.CodeUsage
		}
		return outcome.CodeAbort
	}

	a.state = StateOpen
	return outcome.CodeAllow
}

func (a *Adapter) doOpen(raw bridge.RawEnvironment, host ports.Host) error {
	if !raw.Version.CompatibleWith(entities.CompiledVersion) {
		err := &errors.VersionMismatchError{Host: raw.Version, Compiled: entities.CompiledVersion}
		a.reportTo(host, err)
		return err
	}

	env, err := bridge.NewEnvironment(raw, host)
	if err != nil {
		a.reportTo(host, err)
		return err
	}

	cfg, err := config.FromOptions(env.PluginOptions)
	if err != nil {
		a.surface(env, err)
		return err
	}
	env.PluginOptions = config.PluginOptions(env.PluginOptions)

	sdklog.Attach(sdklog.Sink{Out: env.Stdout(), Err: env.Stderr(), Prefix: a.def.Name})
	sdklog.Install(sdklog.WithLevel(cfg.LogLevel), sdklog.WithSource(cfg.LogSource))

	ctx, cancel := context.WithCancel(context.Background())
	var inst any
	err = outcome.Guard(func() error {
		var openErr error
		inst, openErr = a.open(ctx, env)
		return openErr
	})
	if err != nil {
		cancel()
		a.surface(env, err)
		sdklog.Detach()
		return err
	}

	a.env = env
	a.instance = inst
	a.cancel = cancel
	return nil
}

// Log handles one log_* call. An Unauthorized outcome aborts the command and
// every later log and show_version call is refused without reaching the
// plugin. Other failures are written to the user and the command goes on.
func (a *Adapter) Log(s entities.Stream, p []byte) outcome.Code {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.state != StateOpen:
		slog.Warn("sdk: log call outside an open session", "stream", s.String(), "state", a.state.String())
		return outcome.CodeAbort
	case a.aborted:
		return outcome.CodeAbort
	case !a.caps.Logs(s):
		return outcome.CodeAllow
	case !a.def.IgnoreIologHints && !a.env.IologHint(s):
		return outcome.CodeAllow
	}

	o := outcome.Classify(outcome.Guard(func() error {
		return a.dispatch(s, p)
	}))
	switch o.Kind {
	case outcome.Success:
		return outcome.CodeAllow
	case outcome.Unauthorized:
		a.aborted = true
		a.surface(a.env, o.Err)
		return outcome.CodeAbort
	}
	a.surface(a.env, o.Err)
	return outcome.CodeAllow
}

func (a *Adapter) dispatch(s entities.Stream, p []byte) error {
	switch s {
	case entities.StreamTTYIn:
		return a.instance.(TTYInLogger).LogTTYIn(p)
	case entities.StreamTTYOut:
		return a.instance.(TTYOutLogger).LogTTYOut(p)
	case entities.StreamStdin:
		return a.instance.(StdinLogger).LogStdin(p)
	case entities.StreamStdout:
		return a.instance.(StdoutLogger).LogStdout(p)
	case entities.StreamStderr:
		return a.instance.(StderrLogger).LogStderr(p)
	}
	return &errors.ContractViolationError{Call: "log", Detail: fmt.Sprintf("unknown stream %d", int(s))}
}

// ShowVersion prints the version banner. Failures are written to the user
// but never change the result.
func (a *Adapter) ShowVersion(verbose bool) outcome.Code {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.aborted {
		return outcome.CodeAbort
	}
	if a.state != StateOpen {
		slog.Warn("sdk: show_version outside an open session", "state", a.state.String())
		return outcome.CodeAllow
	}

	err := outcome.Guard(func() error {
		if a.def.ShowVersion != nil {
			return a.def.ShowVersion(a.env, verbose)
		}
		return a.defaultShowVersion(verbose)
	})
	if err != nil {
		a.surface(a.env, err)
	}
	return outcome.CodeAllow
}

func (a *Adapter) defaultShowVersion(verbose bool) error {
	if err := a.env.Printf("%s I/O plugin version %s\n", a.def.Name, a.def.Version); err != nil {
		return err
	}
	if !verbose {
		return nil
	}
	if err := a.env.Printf("%s: sudo plugin API %s, host %s\n", a.def.Name, entities.CompiledVersion, a.env.Version); err != nil {
		return err
	}
	if a.def.Options == nil {
		return nil
	}
	return a.env.Printf("%s options schema:\n%s\n", a.def.Name, a.schema)
}

// Close delivers the command's exit status to the instance and releases it.
// It only reaches the plugin once, after a successful open.
func (a *Adapter) Close(exitStatus, errno int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateOpen {
		slog.Debug("sdk: close ignored", "state", a.state.String())
		return
	}

	if a.caps.Close {
		err := outcome.Guard(func() error {
			a.instance.(Closer).Close(exitStatus, errno)
			return nil
		})
		if err != nil {
			a.surface(a.env, err)
		}
	}

	a.cancel()
	a.cancel = nil
	a.instance = nil
	a.env = nil
	a.state = StateClosed
	sdklog.Detach()
}

// surface writes "<name>: <message>" to the user's error sink. The write is
// best-effort.
func (a *Adapter) surface(env *bridge.Environment, err error) {
	if err == nil {
		return
	}
	if werr := env.Errorf("%s: %v\n", a.def.Name, err); werr != nil {
		slog.Debug("sdk: could not surface error", "error", err.Error(), "write_error", werr.Error())
	}
}

// reportTo is surface for failures that happen before an Environment
// exists.
func (a *Adapter) reportTo(host ports.Host, err error) {
	if host == nil {
		slog.Error("sdk: "+err.Error(), "plugin", a.def.Name)
		return
	}
	host.Printf(entities.MessageError, fmt.Sprintf("%s: %v\n", a.def.Name, err))
}
