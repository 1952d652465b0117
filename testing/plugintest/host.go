// Package plugintest provides a test harness for sudo I/O plugins. It
// drives a plugin.Adapter in-process the same way the exported plugin
// table does, against a fake host that records everything the plugin
// writes.
package plugintest

import (
	"strings"
	"sync"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

// Printed is one message the plugin passed to the host printf callback.
type Printed struct {
	Text string
	Kind entities.MessageKind
}

// Host is an in-memory ports.Host.
type Host struct {
	// OnConverse answers conversations. The default answers every prompt
	// with an empty reply.
	OnConverse func(msgs []entities.Message) (replies []string, code int)

	// PrintfResult, when negative, is returned by every Printf call.
	PrintfResult int

	// SuspendSignals are delivered to the conversation's suspend handler
	// (suspend then resume) before OnConverse runs.
	SuspendSignals []int

	mu            sync.Mutex
	printed       []Printed
	conversations [][]entities.Message
}

var _ ports.Host = (*Host)(nil)

// Converse implements ports.Host.
func (h *Host) Converse(msgs []entities.Message, suspend ports.SuspendHandler) ([]string, int) {
	h.mu.Lock()
	h.conversations = append(h.conversations, append([]entities.Message(nil), msgs...))
	respond := h.OnConverse
	signals := h.SuspendSignals
	h.mu.Unlock()

	if suspend != nil {
		for _, sig := range signals {
			if err := suspend.OnSuspend(sig); err != nil {
				return nil, -1
			}
			if err := suspend.OnResume(sig); err != nil {
				return nil, -1
			}
		}
	}
	if respond != nil {
		return respond(msgs)
	}
	return make([]string, len(msgs)), 0
}

// Printf implements ports.Host.
func (h *Host) Printf(kind entities.MessageKind, msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.printed = append(h.printed, Printed{Kind: kind, Text: msg})
	if h.PrintfResult < 0 {
		return h.PrintfResult
	}
	return len(msg)
}

// Printed returns every printf message in order.
func (h *Host) Printed() []Printed {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Printed(nil), h.printed...)
}

// Conversations returns every conversation in order.
func (h *Host) Conversations() [][]entities.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]entities.Message(nil), h.conversations...)
}

// Output is the concatenated text of info messages.
func (h *Host) Output() string {
	return h.text(entities.MessageInfo)
}

// Errors is the concatenated text of error messages.
func (h *Host) Errors() string {
	return h.text(entities.MessageError)
}

func (h *Host) text(kind entities.MessageKind) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	for _, p := range h.printed {
		if p.Kind == kind {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Reset forgets recorded output and conversations.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.printed = nil
	h.conversations = nil
}
