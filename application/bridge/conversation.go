package bridge

import (
	"context"
	"fmt"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

// ConverseOption configures one conversation.
type ConverseOption func(*converseConfig)

type converseConfig struct {
	suspend ports.SuspendHandler
}

// WithSuspendHandler is notified if the command is suspended while the host
// waits for input, and again when it resumes.
func WithSuspendHandler(h ports.SuspendHandler) ConverseOption {
	return func(c *converseConfig) {
		c.suspend = h
	}
}

// Converse sends msgs to the host's prompt callback and returns one reply per
// message. Replies for error and info messages are empty. Each message's
// Timeout bounds the host wait; ctx is only checked before the call because
// the host call itself cannot be interrupted.
func (e *Environment) Converse(ctx context.Context, msgs []entities.Message, opts ...ConverseOption) ([]string, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	for i, m := range msgs {
		if !m.Kind.Valid() {
			return nil, fmt.Errorf("message %d: unknown kind %#x", i, int(m.Kind))
		}
		if m.Timeout < 0 {
			return nil, fmt.Errorf("message %d: negative timeout %v", i, m.Timeout)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := converseConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	replies, code := e.host.Converse(msgs, cfg.suspend)
	if code != 0 {
		return nil, &errors.ConversationError{Code: code}
	}
	if len(replies) != len(msgs) {
		return nil, &errors.ContractViolationError{
			Call:   "conversation",
			Detail: fmt.Sprintf("%d replies for %d messages", len(replies), len(msgs)),
		}
	}
	return replies, nil
}

// Inform shows text to the user as an info message.
func (e *Environment) Inform(ctx context.Context, text string) error {
	_, err := e.Converse(ctx, []entities.Message{entities.InfoMessage(text)})
	return err
}

// Warn shows text to the user as an error message.
func (e *Environment) Warn(ctx context.Context, text string) error {
	_, err := e.Converse(ctx, []entities.Message{entities.ErrorMessage(text)})
	return err
}
