// Package hooks lets a plugin subscribe to the host's environment hooks
// (setenv, unsetenv, putenv, getenv). Hooks are independent of the I/O
// lifecycle: the host registers them once and deregisters them at exit.
package hooks

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// SetenvFunc observes setenv(name, value, overwrite).
type SetenvFunc func(name, value string, overwrite bool) entities.HookResult

// UnsetenvFunc observes unsetenv(name).
type UnsetenvFunc func(name string) entities.HookResult

// PutenvFunc observes putenv(entry), entry being "name=value".
type PutenvFunc func(entry string) entities.HookResult

// GetenvFunc observes getenv(name). Returning HookStop makes value the result
// of the host's getenv call.
type GetenvFunc func(name string) (value string, result entities.HookResult)

// Hook is one subscription. Exactly one of its functions is set, matching
// Type.
type Hook struct {
	setenv   SetenvFunc
	unsetenv UnsetenvFunc
	putenv   PutenvFunc
	getenv   GetenvFunc
	typ      entities.HookType
}

// Type reports which host extension point the hook subscribes to.
func (h *Hook) Type() entities.HookType {
	return h.typ
}

// Setenv runs a setenv hook. Hooks of another type answer HookNext.
func (h *Hook) Setenv(name, value string, overwrite bool) entities.HookResult {
	if h.setenv == nil {
		return entities.HookNext
	}
	return guard(h.typ, func() entities.HookResult { return h.setenv(name, value, overwrite) })
}

// Unsetenv runs an unsetenv hook.
func (h *Hook) Unsetenv(name string) entities.HookResult {
	if h.unsetenv == nil {
		return entities.HookNext
	}
	return guard(h.typ, func() entities.HookResult { return h.unsetenv(name) })
}

// Putenv runs a putenv hook.
func (h *Hook) Putenv(entry string) entities.HookResult {
	if h.putenv == nil {
		return entities.HookNext
	}
	return guard(h.typ, func() entities.HookResult { return h.putenv(entry) })
}

// Getenv runs a getenv hook. value is only meaningful with HookStop.
func (h *Hook) Getenv(name string) (value string, result entities.HookResult) {
	if h.getenv == nil {
		return "", entities.HookNext
	}
	result = guard(h.typ, func() entities.HookResult {
		var r entities.HookResult
		value, r = h.getenv(name)
		return r
	})
	if result != entities.HookStop {
		value = ""
	}
	return value, result
}

// guard turns a panicking hook into HookError. The host treats that as a
// failed libc call rather than crashing the front end.
func guard(typ entities.HookType, f func() entities.HookResult) (result entities.HookResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sdk: hook panic recovered", "hook", typ.String(), "panic", fmt.Sprint(r))
			result = entities.HookError
		}
	}()
	result = f()
	switch result {
	case entities.HookError, entities.HookNext, entities.HookStop:
		return result
	}
	slog.Warn("sdk: hook returned unknown result, treating as error", "hook", typ.String(), "result", int(result))
	return entities.HookError
}

// Set is an immutable collection of hooks, at most one per type, in the
// order they were configured.
type Set struct {
	hooks []*Hook
}

// Option configures a Set.
type Option func(*setBuilder)

type setBuilder struct {
	hooks  []*Hook
	seen   map[entities.HookType]bool
	errors []error
}

func (b *setBuilder) add(h *Hook) {
	if b.seen[h.typ] {
		b.errors = append(b.errors, fmt.Errorf("duplicate %s hook", h.typ))
		return
	}
	b.seen[h.typ] = true
	b.hooks = append(b.hooks, h)
}

// NewSet builds a Set. It fails if a hook type is configured twice or a
// function is nil.
//
// Example usage:
//
//	set, err := hooks.NewSet(
//	    hooks.WithSetenv(auditSetenv),
//	    hooks.WithGetenv(maskSecrets),
//	)
func NewSet(opts ...Option) (*Set, error) {
	b := &setBuilder{seen: make(map[entities.HookType]bool)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	return &Set{hooks: b.hooks}, nil
}

// MustNewSet is NewSet that panics on error. Use it in package-level vars.
func MustNewSet(opts ...Option) *Set {
	s, err := NewSet(opts...)
	if err != nil {
		panic(fmt.Sprintf("sdk: invalid hook set: %v", err))
	}
	return s
}

// Hooks returns the hooks in configuration order.
func (s *Set) Hooks() []*Hook {
	if s == nil {
		return nil
	}
	out := make([]*Hook, len(s.hooks))
	copy(out, s.hooks)
	return out
}

// Len is the number of hooks in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.hooks)
}

// WithSetenv subscribes to setenv.
func WithSetenv(f SetenvFunc) Option {
	return func(b *setBuilder) {
		if f == nil {
			b.errors = append(b.errors, fmt.Errorf("nil %s hook", entities.HookSetenv))
			return
		}
		b.add(&Hook{typ: entities.HookSetenv, setenv: f})
	}
}

// WithUnsetenv subscribes to unsetenv.
func WithUnsetenv(f UnsetenvFunc) Option {
	return func(b *setBuilder) {
		if f == nil {
			b.errors = append(b.errors, fmt.Errorf("nil %s hook", entities.HookUnsetenv))
			return
		}
		b.add(&Hook{typ: entities.HookUnsetenv, unsetenv: f})
	}
}

// WithPutenv subscribes to putenv.
func WithPutenv(f PutenvFunc) Option {
	return func(b *setBuilder) {
		if f == nil {
			b.errors = append(b.errors, fmt.Errorf("nil %s hook", entities.HookPutenv))
			return
		}
		b.add(&Hook{typ: entities.HookPutenv, putenv: f})
	}
}

// WithGetenv subscribes to getenv.
func WithGetenv(f GetenvFunc) Option {
	return func(b *setBuilder) {
		if f == nil {
			b.errors = append(b.errors, fmt.Errorf("nil %s hook", entities.HookGetenv))
			return
		}
		b.add(&Hook{typ: entities.HookGetenv, getenv: f})
	}
}
