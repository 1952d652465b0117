package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
)

func TestFromOptions(t *testing.T) {
	tests := []struct {
		name string
		opts bridge.Lookup
		want SDK
	}{
		{name: "defaults", opts: bridge.Lookup{"output": "/tmp"}, want: Default()},
		{name: "level", opts: bridge.Lookup{KeyLogLevel: "debug"}, want: SDK{LogLevel: slog.LevelDebug}},
		{name: "upper case level", opts: bridge.Lookup{KeyLogLevel: "ERROR"}, want: SDK{LogLevel: slog.LevelError}},
		{name: "source", opts: bridge.Lookup{KeyLogSource: "true", KeyLogLevel: "info"}, want: SDK{LogLevel: slog.LevelInfo, LogSource: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromOptions(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromOptions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		opts  bridge.Lookup
		field string
	}{
		{name: "bad level", opts: bridge.Lookup{KeyLogLevel: "loud"}, field: KeyLogLevel},
		{name: "bad source", opts: bridge.Lookup{KeyLogSource: "sometimes"}, field: KeyLogSource},
		{name: "unknown reserved", opts: bridge.Lookup{"sdk_colour": "on"}, field: "sdk_colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromOptions(tt.opts)
			var oe *errors.OptionsError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, tt.field, oe.Field)
		})
	}
}

func TestPluginOptions(t *testing.T) {
	got := PluginOptions(bridge.Lookup{KeyLogLevel: "debug", "output": "/var/log"})
	assert.Equal(t, bridge.Lookup{"output": "/var/log"}, got)
}

func TestHelpers(t *testing.T) {
	opts := bridge.Lookup{"output": "/var/log", "empty": "", "limit": "10", "bad": "x"}

	v, err := RequireString(opts, "output")
	require.NoError(t, err)
	assert.Equal(t, "/var/log", v)

	_, err = RequireString(opts, "missing")
	assert.Error(t, err)
	_, err = RequireString(opts, "empty")
	assert.Error(t, err)

	assert.Equal(t, "def", OptionalString(opts, "empty", "def"))
	assert.Equal(t, "/var/log", OptionalString(opts, "output", "def"))
	assert.Equal(t, 10, OptionalInt(opts, "limit", 1))
	assert.Equal(t, 1, OptionalInt(opts, "bad", 1))
}
