package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

type StreamState int

const (
	StreamLive StreamState = iota
	StreamEnded
)

func (s StreamState) String() string {
	if s == StreamEnded {
		return "ended"
	}
	return "live"
}

type EndResult struct {
	StreamID     domain.StreamID
	AlreadyEnded bool
	// Notified is how many members received stream-ended.
	Notified int
}

// Coordinator owns the Live → Ended transition of every stream and is the
// only path that tears down a room's membership in bulk.
type Coordinator struct {
	Rooms *core.RoomRegistry
	Conns *core.ConnectionRegistry
	D     *Dispatcher
	Store StreamStore

	mu     sync.Mutex
	states map[domain.StreamID]StreamState
}

func NewCoordinator(rooms *core.RoomRegistry, conns *core.ConnectionRegistry, d *Dispatcher, store StreamStore) *Coordinator {
	return &Coordinator{
		Rooms:  rooms,
		Conns:  conns,
		D:      d,
		Store:  store,
		states: make(map[domain.StreamID]StreamState),
	}
}

func (c *Coordinator) State(streamID domain.StreamID) StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[streamID]
}

// End marks the stream ended, tears down its room and tells the members.
// Ending twice is a successful no-op. A store failure does not stop the
// teardown; it is returned wrapped in ErrMarkEndedFailed and the stream is
// not remembered as ended, so an unknown record stays unknown and a retry
// reaches the store again. Only ends the store accepted (or every end when
// there is no store) leave an entry in states.
func (c *Coordinator) End(ctx context.Context, streamID domain.StreamID) (EndResult, error) {
	res := EndResult{StreamID: streamID}

	c.mu.Lock()
	if c.states[streamID] == StreamEnded {
		c.mu.Unlock()
		res.AlreadyEnded = true
		log.Info().Str("module", "app.lifecycle").Str("stream", string(streamID)).Msg("already ended")
		return res, nil
	}
	c.states[streamID] = StreamEnded
	c.mu.Unlock()

	var storeErr error
	if c.Store != nil {
		if err := c.Store.MarkStreamEnded(ctx, streamID); err != nil {
			storeErr = fmt.Errorf("%w: %w", ErrMarkEndedFailed, err)
			c.mu.Lock()
			delete(c.states, streamID)
			c.mu.Unlock()
			log.Error().Err(err).Str("module", "app.lifecycle").Str("stream", string(streamID)).Msg("mark stream ended")
		}
	}

	// Detach first so a join racing with End either made it into this
	// snapshot or lands in a fresh room.
	snap, _ := c.Rooms.Close(streamID)
	out := c.D.Broadcast(snap.Members, protocol.NewStreamEnded(streamID))
	for _, m := range snap.Members {
		c.Conns.Dissociate(m.ConnectionID, streamID)
	}
	res.Notified = out.SendTo

	log.Info().
		Str("module", "app.lifecycle").
		Str("stream", string(streamID)).
		Uint64("generation", snap.Generation).
		Int("notified", out.SendTo).
		Msg("stream ended")
	return res, storeErr
}
