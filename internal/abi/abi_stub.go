//go:build !cgo

package abi

import (
	"log/slog"

	"github.com/reglet-dev/sudo-plugin-sdk/application/hooks"
)

// Bind for builds without cgo. There is no table to export; plugins built
// this way can only be driven in-process, e.g. with plugintest.
func Bind(d Dispatcher, e Entries, set *hooks.Set) {
	slog.Debug("sdk: built without cgo, sudo_go_io_plugin is not exported")
}

// Layout is empty without cgo.
func Layout() []Struct {
	return nil
}
