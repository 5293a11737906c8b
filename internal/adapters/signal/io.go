package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Stream/internal/app"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("cid", string(c.cid)).Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("cid", string(c.cid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.cid)).Msg("writePump write error")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.cid)).Msg("ping failed")
				c.Close()
				return
			}
		}
	}
}

// readPump handles one request at a time, which is what keeps a sender's
// messages in order. When it returns the connection is gone for good.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, identity domain.Identity, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(c.cid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.Disconnect(c.cid)
		ctl.chat.Forget(identity)
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", string(c.cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.cid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, c *WsSignalConn, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		t, _ := protocol.PeekType(data)
		code := protocol.CodeBadPayload
		if errors.Is(err, protocol.ErrUnknownType) {
			code = protocol.CodeUnknownType
		}
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.cid)).Str("type", string(t)).Msg("rejected message")
		ctl.sendError(c, code, t)
		return
	}

	switch m := msg.(type) {
	case protocol.JoinRoom:
		ctl.handleJoin(c, m)
	case protocol.LeaveRoom:
		ctl.handleLeave(c, m)
	case protocol.ChatMessage:
		ctl.handleChat(c, m)
	case protocol.Signal:
		ctl.handleRelay(c, m)
	case protocol.ListMembers:
		ctl.handleListMembers(c, m)
	case protocol.EndStream:
		ctl.handleEndStream(ctx, c, m)
	case protocol.Ping:
		ctl.handlePing(c)
	case protocol.WhoAmI:
		ctl.handleWhoAmI(c)
	}
}

func (ctl *SignalWSController) send(c *WsSignalConn, ev protocol.Outbound) {
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send encode")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code string, requestType protocol.Type) {
	ctl.send(c, protocol.NewError(code, requestType))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrIdentityMismatch):
		return protocol.CodeIdentityMismatch
	case errors.Is(err, app.ErrNotMember):
		return protocol.CodeNotInRoom
	case errors.Is(err, app.ErrForbidden):
		return protocol.CodeForbidden
	case errors.Is(err, app.ErrMarkEndedFailed):
		return protocol.CodeMarkEndedFailed
	case errors.Is(err, app.ErrInvalidEnvelope),
		errors.Is(err, domain.ErrIdentityEmpty),
		errors.Is(err, domain.ErrIdentityTooLong),
		errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong):
		return protocol.CodeBadPayload
	}
	return protocol.CodeInternal
}
