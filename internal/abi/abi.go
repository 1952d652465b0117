// Package abi is the C side of the SDK: the exported sudo_go_io_plugin table,
// the //export entry points behind it, and ports.Host over the callbacks the
// front end passes to open. Nothing here makes policy decisions; every call
// is forwarded to the bound Dispatcher.
package abi

import (
	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/application/outcome"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

// Constants of the binary contract. They match sudo_plugin.h.
const (
	// IOPluginType is the type tag of an I/O plugin table.
	IOPluginType = 2
	// ConvCallbackVersion is the sudo_conv_callback structure version.
	ConvCallbackVersion = 1 << 16
)

// Dispatcher receives the lifecycle calls of the exported table.
type Dispatcher interface {
	Open(raw bridge.RawEnvironment, host ports.Host) outcome.Code
	Log(s entities.Stream, p []byte) outcome.Code
	ShowVersion(verbose bool) outcome.Code
	Close(exitStatus, errno int)
}

// Entries selects the optional table entries. Open, close and show_version
// are always present.
type Entries struct {
	Streams [5]bool
	Hooks   bool
}

// mask encodes e the way the C bind routine reads it.
func (e Entries) mask() uint32 {
	var m uint32
	for i, on := range e.Streams {
		if on {
			m |= 1 << uint(i)
		}
	}
	if e.Hooks {
		m |= 1 << 5
	}
	return m
}

const maskBound = 1 << 6

// Field is the offset of one member of a C struct.
type Field struct {
	Name   string
	Offset uintptr
}

// Struct describes the layout of one C struct as compiled.
type Struct struct {
	Name   string
	Size   uintptr
	Fields []Field
}
