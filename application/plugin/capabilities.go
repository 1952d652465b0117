package plugin

import (
	"strings"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// Capabilities records which optional entry points a plugin provides. It is
// computed once when the plugin is bound and decides which table entries are
// non-NULL.
type Capabilities struct {
	Streams [len(streamOrder)]bool
	// Close is set when the instance implements Closer. The close entry
	// itself is always present.
	Close bool
	Hooks bool
}

var streamOrder = [...]entities.Stream{
	entities.StreamTTYIn,
	entities.StreamTTYOut,
	entities.StreamStdin,
	entities.StreamStdout,
	entities.StreamStderr,
}

// capabilitiesOf inspects the method set of T.
func capabilitiesOf[T any](def PluginDef) Capabilities {
	var zero T
	inst := any(zero)

	var c Capabilities
	_, c.Streams[entities.StreamTTYIn] = inst.(TTYInLogger)
	_, c.Streams[entities.StreamTTYOut] = inst.(TTYOutLogger)
	_, c.Streams[entities.StreamStdin] = inst.(StdinLogger)
	_, c.Streams[entities.StreamStdout] = inst.(StdoutLogger)
	_, c.Streams[entities.StreamStderr] = inst.(StderrLogger)
	_, c.Close = inst.(Closer)
	c.Hooks = def.Hooks.Len() > 0
	return c
}

// Logs reports whether the plugin transcribes s.
func (c Capabilities) Logs(s entities.Stream) bool {
	if s < 0 || int(s) >= len(c.Streams) {
		return false
	}
	return c.Streams[s]
}

func (c Capabilities) String() string {
	parts := []string{"open", "close", "show_version"}
	for _, s := range streamOrder {
		if c.Streams[s] {
			parts = append(parts, "log_"+s.String())
		}
	}
	if c.Hooks {
		parts = append(parts, "hooks")
	}
	return strings.Join(parts, ",")
}
