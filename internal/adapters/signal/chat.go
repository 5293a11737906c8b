package signal

import (
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleChat(conn *WsSignalConn, p protocol.ChatMessage) {
	info, err := ctl.Orch.WhoAmI(conn.cid)
	if err != nil {
		return
	}
	if !ctl.chat.Allow(info.Identity) {
		log.Warn().Str("module", "signal").Str("identity", string(info.Identity)).Msg("chat rate limited")
		ctl.sendError(conn, protocol.CodeRateLimited, protocol.TypeChatMessage)
		return
	}

	var name domain.DisplayName
	if p.DisplayName != "" {
		if name, err = domain.ParseDisplayName(p.DisplayName); err != nil {
			ctl.sendError(conn, errorCode(err), protocol.TypeChatMessage)
			return
		}
	}
	if _, err := ctl.Orch.Chat(conn.cid, domain.StreamID(p.StreamID), p.Text, name); err != nil {
		ctl.sendError(conn, errorCode(err), protocol.TypeChatMessage)
	}
}
