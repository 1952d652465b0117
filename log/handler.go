// Package log provides structured logging (slog) routed through the sudo
// front end's printf callback, so SDK and plugin messages reach the user's
// terminal the way sudo's own diagnostics do.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Sink receives formatted records. Warnings and errors go to Err, everything
// else to Out. Prefix leads every line, normally the sudo progname.
type Sink struct {
	Out    io.Writer
	Err    io.Writer
	Prefix string
}

var (
	current  atomic.Pointer[Sink]
	fallback = &Sink{Out: os.Stderr, Err: os.Stderr, Prefix: "sudo-plugin-sdk"}
)

// Attach makes s the destination of handlers created without WithSink.
func Attach(s Sink) {
	current.Store(&s)
}

// Detach drops the attached sink. Handlers fall back to stderr.
func Detach() {
	current.Store(nil)
}

// HostHandler implements slog.Handler on top of a Sink.
type HostHandler struct {
	opts   handlerConfig
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// HandlerOption configures the HostHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	sink      *Sink
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithSink pins the handler to s instead of the attached sink.
func WithSink(s Sink) HandlerOption {
	return func(c *handlerConfig) {
		c.sink = &s
	}
}

// NewHandler creates a new HostHandler with the given options.
func NewHandler(opts ...HandlerOption) *HostHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HostHandler{opts: cfg, mu: &sync.Mutex{}}
}

// Install replaces the default slog logger with a HostHandler.
func Install(opts ...HandlerOption) {
	slog.SetDefault(slog.New(NewHandler(opts...)))
}

// Enabled reports whether the handler handles records at the given level.
func (h *HostHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// WithAttrs returns a new HostHandler that includes the given attributes.
func (h *HostHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, qualify(h.groups, a))
	}
	return &nh
}

// WithGroup returns a new HostHandler with the given group name.
func (h *HostHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string(nil), h.groups...), name)
	return &nh
}

// Handle writes one line: "<prefix>: <message> key=value ...".
func (h *HostHandler) Handle(_ context.Context, record slog.Record) error {
	sink := h.sink()

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	if sink.Prefix != "" {
		_, _ = bb.WriteString(sink.Prefix)
		_, _ = bb.WriteString(": ")
	}
	if record.Level >= slog.LevelWarn {
		_, _ = bb.WriteString(record.Level.String())
		_ = bb.WriteByte(' ')
	}
	_, _ = bb.WriteString(record.Message)

	for _, a := range h.attrs {
		appendAttr(bb, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(bb, qualify(h.groups, a))
		return true
	})
	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		appendAttr(bb, slog.String(slog.SourceKey, f.File+":"+strconv.Itoa(f.Line)))
	}
	_ = bb.WriteByte('\n')

	w := sink.Out
	if record.Level >= slog.LevelWarn {
		w = sink.Err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := w.Write(bb.B)
	return err
}

func (h *HostHandler) sink() *Sink {
	if h.opts.sink != nil {
		return h.opts.sink
	}
	if s := current.Load(); s != nil {
		return s
	}
	return fallback
}

// qualify prefixes the attribute key with the open groups.
func qualify(groups []string, a slog.Attr) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a.Key = groups[i] + "." + a.Key
	}
	return a
}

// init configures the default slog handler to report SDK warnings through
// whichever sink is attached.
func init() {
	Install(WithLevel(slog.LevelWarn))
}
