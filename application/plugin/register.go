package plugin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/sudo-plugin-sdk/internal/abi"
)

var (
	registerMu sync.Mutex
	registered *Adapter
)

// Register binds the process-wide plugin behind the exported
// sudo_go_io_plugin table. Plugin authors call it from an init function of
// their main package. It panics if the definition is invalid, since the
// shared object would be unusable.
func Register[T any](def PluginDef, open OpenFunc[T]) {
	registerMu.Lock()
	defer registerMu.Unlock()

	if registered != nil {
		slog.Warn("sdk: plugin already registered, ignoring second call", "plugin", def.Name, "registered", registered.def.Name)
		return
	}

	a, err := Bind(def, open)
	if err != nil {
		panic(fmt.Sprintf("sdk: cannot register plugin: %v", err))
	}
	registered = a
	abi.Bind(a, a.entries(), def.Hooks)
	slog.Debug("sdk: plugin registered", "plugin", def.Name, "capabilities", a.caps.String())
}

func (a *Adapter) entries() abi.Entries {
	return abi.Entries{
		Streams: a.caps.Streams,
		Hooks:   a.caps.Hooks,
	}
}
