package entities

import (
	"math"
	"time"
)

// MessageKind is the msg_type of a conversation or printf message.
type MessageKind int

const (
	MessagePromptEchoOff MessageKind = 0x0001
	MessagePromptEchoOn  MessageKind = 0x0002
	MessageError         MessageKind = 0x0003
	MessageInfo          MessageKind = 0x0004
	MessagePromptMask    MessageKind = 0x0005

	// MessageFlagEchoOK allows echo when no tty is available. It is or-ed
	// into a prompt kind.
	MessageFlagEchoOK MessageKind = 0x1000
)

// Base strips flag bits from the kind.
func (k MessageKind) Base() MessageKind {
	return k &^ MessageFlagEchoOK
}

// IsPrompt reports whether the host is expected to read a reply.
func (k MessageKind) IsPrompt() bool {
	switch k.Base() {
	case MessagePromptEchoOff, MessagePromptEchoOn, MessagePromptMask:
		return true
	}
	return false
}

// Valid reports whether k is a kind the host understands.
func (k MessageKind) Valid() bool {
	return k.IsPrompt() || k == MessageError || k == MessageInfo
}

func (k MessageKind) String() string {
	switch k.Base() {
	case MessagePromptEchoOff:
		return "prompt_echo_off"
	case MessagePromptEchoOn:
		return "prompt_echo_on"
	case MessagePromptMask:
		return "prompt_mask"
	case MessageError:
		return "error"
	case MessageInfo:
		return "info"
	}
	return "unknown"
}

// Message is one entry of a conversation exchange.
type Message struct {
	Text string
	Kind MessageKind
	// Timeout bounds how long the host waits for a reply. Zero means the
	// host default. It travels to the host in whole seconds.
	Timeout time.Duration
}

// ErrorMessage builds an error-kind message.
func ErrorMessage(text string) Message {
	return Message{Kind: MessageError, Text: text}
}

// InfoMessage builds an info-kind message.
func InfoMessage(text string) Message {
	return Message{Kind: MessageInfo, Text: text}
}

// TimeoutSeconds converts the timeout to the integer seconds the host expects,
// rounding partial seconds up. The host field is a C int, so longer
// timeouts are clamped to math.MaxInt32.
func (m Message) TimeoutSeconds() int {
	if m.Timeout <= 0 {
		return 0
	}
	secs := m.Timeout / time.Second
	if m.Timeout%time.Second != 0 {
		secs++
	}
	if secs > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(secs)
}
