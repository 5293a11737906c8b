package signal

import (
	"context"
	"errors"

	"github.com/dkeye/Stream/internal/app"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(conn *WsSignalConn, p protocol.JoinRoom) {
	identity, err := domain.ParseIdentity(p.Identity)
	if err != nil {
		ctl.sendError(conn, errorCode(err), protocol.TypeJoinRoom)
		return
	}
	name, err := domain.ParseDisplayName(p.DisplayName)
	if err != nil {
		ctl.sendError(conn, errorCode(err), protocol.TypeJoinRoom)
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(conn.cid)).Str("stream", p.StreamID).Msg("join")
	// room-state and member-joined are sent by the orchestrator.
	if _, err := ctl.Orch.Join(conn.cid, domain.StreamID(p.StreamID), identity, name); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(conn.cid)).Msg("join rejected")
		ctl.sendError(conn, errorCode(err), protocol.TypeJoinRoom)
	}
}

// handleLeave leaves the room; the connection stays open.
func (ctl *SignalWSController) handleLeave(conn *WsSignalConn, p protocol.LeaveRoom) {
	log.Info().Str("module", "signal").Str("cid", string(conn.cid)).Str("stream", p.StreamID).Msg("leave")
	if err := ctl.Orch.Leave(conn.cid, domain.StreamID(p.StreamID)); err != nil {
		ctl.sendError(conn, errorCode(err), protocol.TypeLeaveRoom)
	}
}

func (ctl *SignalWSController) handleListMembers(conn *WsSignalConn, p protocol.ListMembers) {
	streamID := domain.StreamID(p.StreamID)
	ctl.send(conn, protocol.NewMembers(streamID, p.RequestID, ctl.Orch.ListMembers(streamID)))
}

// handleEndStream ends the stream for its streamer. The teardown has already
// happened when mark_ended_failed is reported.
func (ctl *SignalWSController) handleEndStream(ctx context.Context, conn *WsSignalConn, p protocol.EndStream) {
	streamID := domain.StreamID(p.StreamID)
	res, err := ctl.Orch.EndAs(ctx, conn.cid, streamID)
	if err != nil {
		if !errors.Is(err, app.ErrForbidden) {
			log.Error().Err(err).Str("module", "signal").Str("stream", p.StreamID).Msg("end stream")
		}
		ctl.sendError(conn, errorCode(err), protocol.TypeEndStream)
		return
	}
	log.Info().
		Str("module", "signal").
		Str("cid", string(conn.cid)).
		Str("stream", p.StreamID).
		Bool("already_ended", res.AlreadyEnded).
		Msg("stream end requested")
}
