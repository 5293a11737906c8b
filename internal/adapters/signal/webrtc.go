package signal

import (
	"github.com/dkeye/Stream/internal/app"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards offer/answer/ice payloads untouched. Unknown targets
// are dropped by the relay without an error reply.
func (ctl *SignalWSController) handleRelay(conn *WsSignalConn, p protocol.Signal) {
	env := app.Envelope{
		Kind:           p.Kind,
		Payload:        p.Payload,
		TargetIdentity: domain.Identity(p.TargetIdentity),
	}
	if err := ctl.Orch.Relay(conn.cid, domain.StreamID(p.StreamID), env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(conn.cid)).Str("kind", string(p.Kind)).Msg("relay rejected")
		ctl.sendError(conn, errorCode(err), p.Kind)
	}
}
