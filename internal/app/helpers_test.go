package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

var errQueueFull = errors.New("queue full")

// recordingSignal keeps every frame it is handed.
type recordingSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (s *recordingSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full || s.closed {
		return errQueueFull
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *recordingSignal) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *recordingSignal) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recordingSignal) events(t *testing.T) []protocol.Outbound {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Outbound, 0, len(s.frames))
	for _, f := range s.frames {
		ev, err := protocol.DecodeOutbound(f)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func (s *recordingSignal) types(t *testing.T) []protocol.Type {
	return lo.Map(s.events(t), func(ev protocol.Outbound, _ int) protocol.Type { return ev.OutboundType() })
}

func (s *recordingSignal) reset() {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}

type harness struct {
	conns *core.ConnectionRegistry
	rooms *core.RoomRegistry
	d     *Dispatcher
	sigs  map[core.ConnectionID]*recordingSignal
}

func newHarness(policy Policy) *harness {
	conns := core.NewConnectionRegistry()
	return &harness{
		conns: conns,
		rooms: core.NewRoomRegistry(),
		d:     NewDispatcher(conns, policy),
		sigs:  make(map[core.ConnectionID]*recordingSignal),
	}
}

func (h *harness) connect(t *testing.T, cid core.ConnectionID, identity domain.Identity) *recordingSignal {
	t.Helper()
	sig := &recordingSignal{}
	require.NoError(t, h.conns.Register(cid, identity, domain.DisplayName("name-"+identity), sig))
	h.sigs[cid] = sig
	return sig
}

func (h *harness) join(t *testing.T, streamID domain.StreamID, cid core.ConnectionID) core.JoinResult {
	t.Helper()
	info, err := h.conns.Lookup(cid)
	require.NoError(t, err)
	res := h.rooms.Join(streamID, cid, info.Identity, info.DisplayName)
	h.conns.Associate(cid, streamID)
	return res
}

func (h *harness) resetAll() {
	for _, s := range h.sigs {
		s.reset()
	}
}
