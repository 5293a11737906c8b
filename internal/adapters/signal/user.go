package signal

import "github.com/dkeye/Stream/internal/protocol"

func (ctl *SignalWSController) handleWhoAmI(conn *WsSignalConn) {
	info, err := ctl.Orch.WhoAmI(conn.cid)
	if err != nil {
		ctl.sendError(conn, errorCode(err), protocol.TypeWhoAmI)
		return
	}
	ctl.send(conn, protocol.NewIdentity(info))
}
