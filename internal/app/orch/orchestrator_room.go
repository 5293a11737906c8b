package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Stream/internal/app"
	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join binds cid into streamID. A connection sits in at most one room, so a
// join into another room first leaves the previous one. room-state and
// member-joined go out from roomEvents.
func (o *Orchestrator) Join(
	cid core.ConnectionID,
	streamID domain.StreamID,
	identity domain.Identity,
	name domain.DisplayName,
) (core.JoinResult, error) {
	info, err := o.Conns.Lookup(cid)
	if err != nil {
		return core.JoinResult{}, err
	}
	if identity != info.Identity {
		return core.JoinResult{}, app.ErrIdentityMismatch
	}
	if info.StreamID != "" && info.StreamID != streamID {
		o.Rooms.LeaveConnection(info.StreamID, identity, cid)
		log.Info().Str("module", "orch").Str("cid", string(cid)).Str("from_room", string(info.StreamID)).Msg("left previous room")
	}
	if name == "" {
		name = info.DisplayName
	} else if name != info.DisplayName {
		o.Conns.Rename(cid, name)
	}

	return o.Rooms.Join(streamID, cid, identity, name), nil
}

// Leave removes cid's own binding from streamID.
func (o *Orchestrator) Leave(cid core.ConnectionID, streamID domain.StreamID) error {
	info, err := o.Conns.Lookup(cid)
	if err != nil {
		return err
	}
	if _, ok := o.Rooms.LeaveConnection(streamID, info.Identity, cid); !ok {
		return app.ErrNotMember
	}
	_ = o.Dispatch.Send(cid, protocol.NewLeft(streamID))
	return nil
}

// Kick removes identity from streamID whatever connection it is bound to.
func (o *Orchestrator) Kick(streamID domain.StreamID, identity domain.Identity) bool {
	dep, ok := o.Rooms.Leave(streamID, identity)
	if !ok {
		return false
	}
	_ = o.Dispatch.Send(dep.Member.ConnectionID, protocol.NewLeft(streamID))
	log.Info().Str("module", "orch").Str("stream", string(streamID)).Str("identity", string(identity)).Msg("kicked")
	return true
}

func (o *Orchestrator) ListMembers(streamID domain.StreamID) []core.MemberEntry {
	return o.Rooms.MembersOf(streamID)
}

func (o *Orchestrator) End(ctx context.Context, streamID domain.StreamID) (app.EndResult, error) {
	return o.Lifecycle.End(ctx, streamID)
}

// EndAs ends streamID on behalf of a connection. Only the record's streamer
// may do so; a stream without a record cannot be ended this way.
func (o *Orchestrator) EndAs(ctx context.Context, cid core.ConnectionID, streamID domain.StreamID) (app.EndResult, error) {
	info, err := o.Conns.Lookup(cid)
	if err != nil {
		return app.EndResult{}, err
	}
	if o.Streams == nil {
		return app.EndResult{}, app.ErrForbidden
	}
	rec, err := o.Streams.GetStream(ctx, streamID)
	if err != nil {
		return app.EndResult{}, fmt.Errorf("%w: %w", app.ErrForbidden, err)
	}
	if rec.StreamerID != info.Identity {
		log.Warn().Str("module", "orch").Str("cid", string(cid)).Str("stream", string(streamID)).Msg("end refused, not the streamer")
		return app.EndResult{}, app.ErrForbidden
	}
	return o.Lifecycle.End(ctx, streamID)
}
