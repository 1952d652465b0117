// Package config reads the SDK's own settings out of the plugin options the
// host passes to open, and provides lookup helpers for plugin-defined
// options. Option keys starting with "sdk_" are reserved for the SDK.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/reglet-dev/sudo-plugin-sdk/application/bridge"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
)

// ReservedPrefix marks option keys consumed by the SDK.
const ReservedPrefix = "sdk_"

const (
	// KeyLogLevel sets the minimum level of SDK log records (debug, info,
	// warn, error).
	KeyLogLevel = "sdk_log_level"
	// KeyLogSource adds file:line to SDK log records.
	KeyLogSource = "sdk_log_source"
)

// SDK holds the settings taken from reserved plugin options.
type SDK struct {
	LogLevel  slog.Level
	LogSource bool
}

// Default is used when no reserved option is given.
func Default() SDK {
	return SDK{LogLevel: slog.LevelWarn}
}

// FromOptions parses the reserved keys of opts. Unknown reserved keys are
// rejected so a typo does not silently fall back to the default.
func FromOptions(opts bridge.Lookup) (SDK, error) {
	cfg := Default()
	for _, key := range opts.Keys() {
		if !strings.HasPrefix(key, ReservedPrefix) {
			continue
		}
		value := opts[key]
		switch key {
		case KeyLogLevel:
			if err := cfg.LogLevel.UnmarshalText([]byte(value)); err != nil {
				return SDK{}, &errors.OptionsError{Field: key, Err: err}
			}
		case KeyLogSource:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return SDK{}, &errors.OptionsError{Field: key, Err: err}
			}
			cfg.LogSource = b
		default:
			return SDK{}, &errors.OptionsError{Field: key, Err: fmt.Errorf("unknown reserved option")}
		}
	}
	return cfg, nil
}

// PluginOptions returns opts without the reserved keys.
func PluginOptions(opts bridge.Lookup) bridge.Lookup {
	out := make(bridge.Lookup, len(opts))
	for k, v := range opts {
		if !strings.HasPrefix(k, ReservedPrefix) {
			out[k] = v
		}
	}
	return out
}

// RequireString returns the value of key.
// It returns an error if the key is missing or empty.
func RequireString(opts bridge.Lookup, key string) (string, error) {
	val, ok := opts.Get(key)
	if !ok {
		return "", &errors.OptionsError{Field: key, Err: fmt.Errorf("missing required option")}
	}
	if val == "" {
		return "", &errors.OptionsError{Field: key, Err: fmt.Errorf("must be non-empty")}
	}
	return val, nil
}

// OptionalString returns the value of key.
// It returns the default value if the key is missing or empty.
func OptionalString(opts bridge.Lookup, key, defaultVal string) string {
	if val, ok := opts.Get(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// OptionalInt returns the integer value of key.
// It returns the default value if the key is missing or not a number.
func OptionalInt(opts bridge.Lookup, key string, defaultVal int) int {
	if n, ok := opts.Int(key); ok {
		return int(n)
	}
	return defaultVal
}
