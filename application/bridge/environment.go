package bridge

import (
	"fmt"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

// RawEnvironment is what the host passed to open, already copied out of host
// memory. Each array holds the entries before its NULL terminator.
type RawEnvironment struct {
	Settings      []string
	UserInfo      []string
	CommandInfo   []string
	Argv          []string
	UserEnv       []string
	PluginOptions []string
	// Argc is the explicit count passed alongside argv.
	Argc    int
	Version entities.Version
}

// Environment is the per-command context created by open and valid until
// close.
type Environment struct {
	host ports.Host

	Settings      Lookup
	UserInfo      Lookup
	CommandInfo   Lookup
	PluginOptions Lookup

	// Argv is the command being run, argv[0] first.
	Argv []string
	// UserEnv is the environment the command runs with, as key=value
	// entries in host order.
	UserEnv []string

	// Version is the API version the host advertised.
	Version entities.Version

	stdout *hostWriter
	stderr *hostWriter
}

// NewEnvironment parses raw and binds it to host.
func NewEnvironment(raw RawEnvironment, host ports.Host) (*Environment, error) {
	if host == nil {
		return nil, &errors.ContractViolationError{Call: "open", Detail: "no host callbacks"}
	}
	if raw.Argc != len(raw.Argv) {
		return nil, &errors.ContractViolationError{
			Call:   "open",
			Detail: fmt.Sprintf("argc is %d but argv holds %d entries before its terminator", raw.Argc, len(raw.Argv)),
		}
	}

	env := &Environment{
		host:    host,
		Argv:    append([]string(nil), raw.Argv...),
		UserEnv: append([]string(nil), raw.UserEnv...),
		Version: raw.Version,
	}

	var err error
	if env.Settings, err = ParseKeyValues("open(settings)", raw.Settings); err != nil {
		return nil, err
	}
	if env.UserInfo, err = ParseKeyValues("open(user_info)", raw.UserInfo); err != nil {
		return nil, err
	}
	if env.CommandInfo, err = ParseKeyValues("open(command_info)", raw.CommandInfo); err != nil {
		return nil, err
	}
	if env.PluginOptions, err = ParseKeyValues("open(plugin_options)", raw.PluginOptions); err != nil {
		return nil, err
	}

	env.stdout = &hostWriter{host: host, kind: entities.MessageInfo}
	env.stderr = &hostWriter{host: host, kind: entities.MessageError}
	return env, nil
}

// Host returns the callbacks this environment is bound to.
func (e *Environment) Host() ports.Host {
	return e.host
}

// Progname is the name sudo was invoked as.
func (e *Environment) Progname() string {
	return e.Settings.String("progname", "sudo")
}

// RunasUser is the user the command runs as, when given on the command line.
func (e *Environment) RunasUser() (string, bool) {
	return e.Settings.Get("runas_user")
}

// User is the name of the invoking user.
func (e *Environment) User() (string, bool) {
	return e.UserInfo.Get("user")
}

// UID is the real uid of the invoking user.
func (e *Environment) UID() (uint64, bool) {
	return e.UserInfo.Uint("uid")
}

// TTY is the invoking user's terminal, if any.
func (e *Environment) TTY() (string, bool) {
	return e.UserInfo.Get("tty")
}

// PID is the process id of the sudo front end.
func (e *Environment) PID() (int64, bool) {
	return e.UserInfo.Int("pid")
}

// Command is the fully qualified path of the command being run.
func (e *Environment) Command() (string, bool) {
	return e.CommandInfo.Get("command")
}

// Cwd is the working directory the command runs in.
func (e *Environment) Cwd() (string, bool) {
	return e.CommandInfo.Get("cwd")
}

// IologHint reports whether the policy asked for stream s to be logged.
// A missing hint means no.
func (e *Environment) IologHint(s entities.Stream) bool {
	v, ok := e.CommandInfo.Bool(s.HintKey())
	return ok && v
}
