package signal

import "github.com/dkeye/Stream/internal/protocol"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.send(conn, protocol.NewPong())
}
