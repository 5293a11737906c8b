package orch

import (
	"github.com/dkeye/Stream/internal/app"
	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Relay(cid core.ConnectionID, streamID domain.StreamID, env app.Envelope) error {
	info, err := o.Conns.Lookup(cid)
	if err != nil {
		return err
	}
	return o.Signals.Relay(streamID, env, app.Sender{Identity: info.Identity, ConnectionID: cid})
}

// Chat relays text from cid to streamID. Chat into a room that does not
// exist, e.g. an ended stream, is a silent no-op. In a live room the sender
// must hold the current binding for its identity. name overrides the
// connection's display name for this one message.
func (o *Orchestrator) Chat(cid core.ConnectionID, streamID domain.StreamID, text string, name domain.DisplayName) (app.PublishResult, error) {
	info, err := o.Conns.Lookup(cid)
	if err != nil {
		return app.PublishResult{}, err
	}
	if _, ok := o.Rooms.Snapshot(streamID); !ok {
		log.Debug().Str("module", "orch").Str("cid", string(cid)).Str("stream", string(streamID)).Msg("chat to absent room dropped")
		return app.PublishResult{}, nil
	}
	bound, err := o.Rooms.ConnectionFor(streamID, info.Identity)
	if err != nil || bound != cid {
		return app.PublishResult{}, app.ErrNotMember
	}
	if name == "" {
		name = info.DisplayName
	}
	return o.Chats.Send(streamID, domain.ChatEntry{
		Identity:    info.Identity,
		DisplayName: name,
		Text:        text,
	}), nil
}
