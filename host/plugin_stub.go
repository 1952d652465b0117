//go:build !cgo || !linux

package host

import (
	"errors"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// TableSymbol is the data symbol every SDK plugin exports.
const TableSymbol = "sudo_go_io_plugin"

var errUnsupported = errors.New("loading plugins requires cgo on linux")

// TableInfo is what the plugin table advertises.
type TableInfo struct {
	Path        string
	Type        uint32
	Version     entities.Version
	Entries     []string
	LoadEntries []string
	Bound       bool
}

// Plugin is unavailable in this build.
type Plugin struct{}

// Load always fails in this build.
func Load(string) (*Plugin, error) { return nil, errUnsupported }

func (p *Plugin) Info() TableInfo { return TableInfo{} }
func (p *Plugin) Open(*Scenario, *Transcript) (int, error) { return 0, errUnsupported }
func (p *Plugin) Log(entities.Stream, []byte) (int, error) { return 0, errUnsupported }
func (p *Plugin) ShowVersion(bool) int { return -1 }
func (p *Plugin) ShowVersionTo(*Transcript, bool) int { return -1 }
func (p *Plugin) Close(int, int) {}
func (p *Plugin) ProbeHooks() ([]entities.HookType, error) { return nil, errUnsupported }
