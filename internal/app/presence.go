package app

import (
	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

// PresenceBroadcaster emits join/leave notifications to a room.
type PresenceBroadcaster struct {
	D *Dispatcher
}

func NewPresenceBroadcaster(d *Dispatcher) *PresenceBroadcaster {
	return &PresenceBroadcaster{D: d}
}

// Joined notifies the whole snapshot, the new member included. A superseded
// binding gets no member-left.
func (p *PresenceBroadcaster) Joined(res core.JoinResult) PublishResult {
	ev := protocol.NewMemberJoined(res.Snapshot.StreamID, res.Member)
	out := p.D.Broadcast(res.Snapshot.Members, ev)
	log.Info().
		Str("module", "app.presence").
		Str("stream", string(res.Snapshot.StreamID)).
		Str("identity", string(res.Member.Identity)).
		Int("sent_to", out.SendTo).
		Msg("member-joined")
	return out
}

// Left notifies only the remaining members; the departed connection may
// already be closed.
func (p *PresenceBroadcaster) Left(dep core.Departure) PublishResult {
	ev := protocol.NewMemberLeft(dep.StreamID, dep.Member)
	out := p.D.Broadcast(dep.Remaining, ev)
	log.Info().
		Str("module", "app.presence").
		Str("stream", string(dep.StreamID)).
		Str("identity", string(dep.Member.Identity)).
		Int("sent_to", out.SendTo).
		Msg("member-left")
	return out
}
