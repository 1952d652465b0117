package bridge

import (
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

// WriteError reports a negative result from the host printf callback.
type WriteError struct {
	Kind entities.MessageKind
	Code int
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("host printf (%s) failed with code %d", e.Kind, e.Code)
}

// hostWriter forwards writes through the host printf callback.
type hostWriter struct {
	host ports.Host
	kind entities.MessageKind
}

func (w *hostWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if rc := w.host.Printf(w.kind, string(p)); rc < 0 {
		return 0, &WriteError{Kind: w.kind, Code: rc}
	}
	return len(p), nil
}

// Stdout is the info sink. Text written to it reaches the user's terminal.
func (e *Environment) Stdout() io.Writer {
	return e.stdout
}

// Stderr is the error sink.
func (e *Environment) Stderr() io.Writer {
	return e.stderr
}

// Printf formats to the info sink. Writes are best-effort; the error is
// returned for callers that care but never needs to fail an operation.
func (e *Environment) Printf(format string, args ...any) error {
	return e.printf(e.stdout, format, args...)
}

// Errorf formats to the error sink.
func (e *Environment) Errorf(format string, args ...any) error {
	return e.printf(e.stderr, format, args...)
}

func (e *Environment) printf(w *hostWriter, format string, args ...any) error {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	_, _ = fmt.Fprintf(bb, format, args...)
	_, err := w.Write(bb.B)
	return err
}
