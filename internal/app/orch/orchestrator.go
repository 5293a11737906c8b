package orch

import (
	"github.com/dkeye/Stream/internal/app"
	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator drives the real-time channel: it is what transport handlers
// call for every inbound request and every connection open/close.
type Orchestrator struct {
	Conns     *core.ConnectionRegistry
	Rooms     *core.RoomRegistry
	Dispatch  *app.Dispatcher
	Presence  *app.PresenceBroadcaster
	Signals   *app.SignalingRelay
	Chats     *app.ChatRelay
	Lifecycle *app.Coordinator
	Streams   app.StreamReader
}

type Deps struct {
	Policy       app.Policy
	Store        app.StreamStore
	Streams      app.StreamReader
	ChatLog      app.ChatLog
	ChatLogQueue int
}

func New(deps Deps) *Orchestrator {
	conns := core.NewConnectionRegistry()
	rooms := core.NewRoomRegistry()
	d := app.NewDispatcher(conns, deps.Policy)
	presence := app.NewPresenceBroadcaster(d)
	rooms.SetEvents(roomEvents{conns: conns, d: d, presence: presence})
	return &Orchestrator{
		Conns:     conns,
		Rooms:     rooms,
		Dispatch:  d,
		Presence:  presence,
		Signals:   app.NewSignalingRelay(rooms, d),
		Chats:     app.NewChatRelay(rooms, d, deps.ChatLog, deps.ChatLogQueue),
		Lifecycle: app.NewCoordinator(rooms, conns, d, deps.Store),
		Streams:   deps.Streams,
	}
}

func (o *Orchestrator) Connect(cid core.ConnectionID, user domain.User, sig core.SignalConnection) error {
	if err := o.Conns.Register(cid, user.Identity, user.DisplayName, sig); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("cid", string(cid)).Msg("register rejected")
		return err
	}
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("identity", string(user.Identity)).Msg("connected")
	return nil
}

// Disconnect forgets cid and removes it from every room it is still bound
// in; the remaining members hear member-left from roomEvents. Safe to call
// more than once.
func (o *Orchestrator) Disconnect(cid core.ConnectionID) {
	o.Conns.Unregister(cid)
	deps := o.Rooms.LeaveByConnection(cid)
	log.Info().Str("module", "orch").Str("cid", string(cid)).Int("rooms", len(deps)).Msg("disconnected")
}

func (o *Orchestrator) WhoAmI(cid core.ConnectionID) (core.ConnectionInfo, error) {
	return o.Conns.Lookup(cid)
}

// roomEvents runs under the room lock, so a member-joined or member-left
// always reaches a connection before any stream-ended for the same room,
// and a connection's room association never outlives the room's Close.
type roomEvents struct {
	conns    *core.ConnectionRegistry
	d        *app.Dispatcher
	presence *app.PresenceBroadcaster
}

func (e roomEvents) Joined(res core.JoinResult) {
	e.conns.Associate(res.Member.ConnectionID, res.Snapshot.StreamID)
	if res.Superseded != "" {
		e.conns.Dissociate(res.Superseded, res.Snapshot.StreamID)
	}
	if err := e.d.Send(res.Member.ConnectionID, protocol.NewRoomState(res.Snapshot)); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("cid", string(res.Member.ConnectionID)).Msg("room-state not delivered")
	}
	e.presence.Joined(res)
}

func (e roomEvents) Left(dep core.Departure) {
	e.conns.Dissociate(dep.Member.ConnectionID, dep.StreamID)
	e.presence.Left(dep)
}
