package app

import (
	"testing"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Broadcast_IsolatesFailedRecipient(t *testing.T) {
	req := require.New(t)
	h := newHarness(DropPolicy{})
	a := h.connect(t, "c-a", "a")
	b := h.connect(t, "c-b", "b")
	b.full = true
	h.join(t, "42", "c-a")
	h.join(t, "42", "c-b")
	h.resetAll()

	res := h.d.Broadcast(h.rooms.MembersOf("42"), protocol.NewPong())

	req.Equal(1, res.SendTo)
	req.Equal([]core.ConnectionID{"c-b"}, res.Dropped)
	req.Equal([]protocol.Type{protocol.TypePong}, a.types(t))
	req.False(b.isClosed(), "drop policy keeps the connection")
}

func TestDispatcher_KickPolicy_ClosesSlowConnection(t *testing.T) {
	req := require.New(t)
	h := newHarness(SimplePolicy{})
	slow := h.connect(t, "c-slow", "slow")
	slow.full = true

	err := h.d.Send("c-slow", protocol.NewPong())
	req.ErrorIs(err, errQueueFull)
	req.True(slow.isClosed())
}

func TestDispatcher_Send_UnknownConnection(t *testing.T) {
	h := newHarness(SimplePolicy{})
	require.ErrorIs(t, h.d.Send("ghost", protocol.NewPong()), core.ErrNotFound)
}

func TestDispatcher_Broadcast_SkipsUntypedEvent(t *testing.T) {
	req := require.New(t)
	h := newHarness(nil)
	a := h.connect(t, "c-a", "a")
	h.join(t, "42", "c-a")
	h.resetAll()

	res := h.d.Broadcast(h.rooms.MembersOf("42"), protocol.Pong{})
	req.Zero(res.SendTo)
	req.Empty(a.types(t))
}
