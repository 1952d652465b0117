package host

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// Driver is a loaded plugin table the runner can call into.
type Driver interface {
	Open(sc *Scenario, t *Transcript) (int, error)
	// Log returns ErrNoEntry when the table has no entry for s.
	Log(s entities.Stream, data []byte) (int, error)
	ShowVersion(verbose bool) int
	Close(exitStatus, errno int)
}

// NoEntryError reports a call to an entry point the table leaves NULL.
type NoEntryError struct {
	Entry string
}

func (e *NoEntryError) Error() string {
	return fmt.Sprintf("plugin table has no %s entry", e.Entry)
}

// Step is one call made into the plugin.
type Step struct {
	Call string
	Code int
	// Skipped is set when the table had no entry for the call.
	Skipped bool
}

// Report is the outcome of a replayed scenario.
type Report struct {
	Steps  []Step
	Events []Event
	// Closed reports whether close was delivered.
	Closed bool
}

// Run replays sc against d the way the front end sequences a command: open,
// then every stream chunk in order, then close. A failed open ends the
// session without close. A log entry answering anything but 1 stops further
// logging, and close still follows.
func Run(d Driver, sc *Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	t := NewTranscript(sc.Replies)
	r := &Report{}

	rc, err := d.Open(sc, t)
	if err != nil {
		return nil, err
	}
	r.Steps = append(r.Steps, Step{Call: "open", Code: rc})
	if rc != 1 {
		r.Events = t.Events()
		return r, nil
	}

	for _, c := range sc.Streams {
		s, _ := c.StreamID()
		call := "log_" + s.String()
		rc, err := d.Log(s, []byte(c.Data))
		if err != nil {
			var ne *NoEntryError
			if errors.As(err, &ne) {
				r.Steps = append(r.Steps, Step{Call: call, Skipped: true})
				continue
			}
			return nil, err
		}
		r.Steps = append(r.Steps, Step{Call: call, Code: rc})
		if rc != 1 {
			break
		}
	}

	d.Close(sc.ExitStatus, sc.Error)
	r.Steps = append(r.Steps, Step{Call: "close"})
	r.Closed = true
	r.Events = t.Events()
	return r, nil
}
