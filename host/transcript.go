package host

import (
	"sync"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// Event is one message the plugin sent to the host.
type Event struct {
	// Call is "printf" or "conversation".
	Call string
	Kind entities.MessageKind
	Text string
	// Reply is what the host answered to a prompt.
	Reply string
}

// Transcript records host callback traffic and answers prompts.
type Transcript struct {
	mu      sync.Mutex
	events  []Event
	replies []string
}

// NewTranscript creates a transcript that answers prompts with replies in
// order.
func NewTranscript(replies []string) *Transcript {
	return &Transcript{replies: append([]string(nil), replies...)}
}

// Events returns a copy of everything recorded so far.
func (t *Transcript) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

func (t *Transcript) printf(kind entities.MessageKind, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, Event{Call: "printf", Kind: kind, Text: text})
}

// converse records msgs and returns one reply per message. Only prompts
// consume replies.
func (t *Transcript) converse(msgs []entities.Message) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(msgs))
	for i, m := range msgs {
		ev := Event{Call: "conversation", Kind: m.Kind, Text: m.Text}
		if m.Kind.IsPrompt() && len(t.replies) > 0 {
			out[i] = t.replies[0]
			t.replies = t.replies[1:]
			ev.Reply = out[i]
		}
		t.events = append(t.events, ev)
	}
	return out
}
