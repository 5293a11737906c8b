package app

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Envelope is one negotiation message in flight. Payload is never inspected.
type Envelope struct {
	Kind           protocol.Type
	Payload        json.RawMessage
	TargetIdentity domain.Identity
}

// Sender is who relays an envelope.
type Sender struct {
	Identity     domain.Identity
	ConnectionID core.ConnectionID
}

// SignalingRelay forwards opaque payloads between two members of a room.
type SignalingRelay struct {
	Rooms *core.RoomRegistry
	D     *Dispatcher
}

func NewSignalingRelay(rooms *core.RoomRegistry, d *Dispatcher) *SignalingRelay {
	return &SignalingRelay{Rooms: rooms, D: d}
}

// Relay resolves the target identity inside streamID and forwards the
// envelope to its current connection, stamped with the sender's connection
// id. Missing targets and stale senders are dropped without error; only a
// structurally invalid envelope returns one.
func (r *SignalingRelay) Relay(streamID domain.StreamID, env Envelope, from Sender) error {
	if !protocol.IsSignal(env.Kind) {
		return fmt.Errorf("%w: kind %q", ErrInvalidEnvelope, env.Kind)
	}
	if env.TargetIdentity == "" || len(env.Payload) == 0 {
		return fmt.Errorf("%w: missing target or payload", ErrInvalidEnvelope)
	}

	logger := log.With().
		Str("module", "app.signaling").
		Str("stream", string(streamID)).
		Str("kind", string(env.Kind)).
		Str("from", string(from.Identity)).
		Str("to", string(env.TargetIdentity)).
		Logger()

	if cid, err := r.Rooms.ConnectionFor(streamID, from.Identity); err != nil || cid != from.ConnectionID {
		logger.Debug().Msg("sender not bound in room, dropped")
		return nil
	}
	target, err := r.Rooms.ConnectionFor(streamID, env.TargetIdentity)
	if err != nil {
		logger.Debug().Msg("target not in room, dropped")
		return nil
	}

	ev := protocol.SignalDelivery{
		Type:               env.Kind,
		StreamID:           streamID,
		Payload:            env.Payload,
		SourceIdentity:     from.Identity,
		SourceConnectionID: from.ConnectionID,
	}
	if err := r.D.Send(target, ev); err != nil {
		logger.Debug().Err(err).Msg("delivery failed, dropped")
		return nil
	}
	logger.Debug().Msg("relayed")
	return nil
}
