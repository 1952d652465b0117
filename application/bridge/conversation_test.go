package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
	"github.com/reglet-dev/sudo-plugin-sdk/domain/ports"
)

func TestConverse(t *testing.T) {
	host := &fakeHost{replies: []string{"", "s3cret"}}
	env, err := NewEnvironment(newRaw(), host)
	require.NoError(t, err)

	msgs := []entities.Message{
		entities.InfoMessage("approval required"),
		{Kind: entities.MessagePromptEchoOff, Text: "Token: ", Timeout: 30 * time.Second},
	}
	replies, err := env.Converse(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "s3cret"}, replies)
	require.Len(t, host.asked, 1)
	assert.Equal(t, msgs, host.asked[0])
}

func TestConverse_Empty(t *testing.T) {
	host := &fakeHost{}
	env, err := NewEnvironment(newRaw(), host)
	require.NoError(t, err)

	replies, err := env.Converse(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, replies)
	assert.Empty(t, host.asked)
}

func TestConverse_Rejected(t *testing.T) {
	tests := []struct {
		name string
		msg  entities.Message
	}{
		{name: "unknown kind", msg: entities.Message{Kind: 9, Text: "?"}},
		{name: "negative timeout", msg: entities.Message{Kind: entities.MessageInfo, Timeout: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &fakeHost{}
			env, err := NewEnvironment(newRaw(), host)
			require.NoError(t, err)

			_, err = env.Converse(context.Background(), []entities.Message{tt.msg})
			assert.Error(t, err)
			assert.Empty(t, host.asked, "host must not be called")
		})
	}
}

func TestConverse_CanceledContext(t *testing.T) {
	host := &fakeHost{}
	env, err := NewEnvironment(newRaw(), host)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = env.Inform(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, host.asked)
}

func TestConverse_HostFailure(t *testing.T) {
	host := &fakeHost{convCode: -1}
	env, err := NewEnvironment(newRaw(), host)
	require.NoError(t, err)

	err = env.Warn(context.Background(), "careful")
	var ce *errors.ConversationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, -1, ce.Code)
}

func TestConverse_ReplyCountMismatch(t *testing.T) {
	host := &fakeHost{replies: []string{"a", "b"}}
	env, err := NewEnvironment(newRaw(), host)
	require.NoError(t, err)

	_, err = env.Converse(context.Background(), []entities.Message{entities.InfoMessage("x")})
	var cv *errors.ContractViolationError
	require.ErrorAs(t, err, &cv)
}

func TestConverse_SuspendHandler(t *testing.T) {
	host := &fakeHost{suspended: true, signal: 20}
	env, err := NewEnvironment(newRaw(), host)
	require.NoError(t, err)

	var events []string
	h := ports.SuspendFuncs{
		Suspend: func(sig int) error { events = append(events, "suspend"); return nil },
		Resume:  func(sig int) error { events = append(events, "resume"); return nil },
	}
	_, err = env.Converse(context.Background(),
		[]entities.Message{{Kind: entities.MessagePromptEchoOn, Text: "Reason: "}},
		WithSuspendHandler(h))
	require.NoError(t, err)
	assert.Equal(t, []string{"suspend", "resume"}, events)
}
