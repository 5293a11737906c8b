package app

import (
	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []core.ConnectionID
}

// Dispatcher delivers encoded events to connections by id. Delivery never
// blocks; a failure for one recipient never affects the others.
type Dispatcher struct {
	Conns  *core.ConnectionRegistry
	Policy Policy
}

func NewDispatcher(conns *core.ConnectionRegistry, policy Policy) *Dispatcher {
	return &Dispatcher{Conns: conns, Policy: policy}
}

// Send delivers ev to one connection.
func (d *Dispatcher) Send(cid core.ConnectionID, ev protocol.Outbound) error {
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("encode event")
		return err
	}
	return d.sendFrame(cid, frame)
}

// Broadcast delivers ev to every member of the snapshot.
func (d *Dispatcher) Broadcast(members []core.MemberEntry, ev protocol.Outbound) PublishResult {
	res := PublishResult{}
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("encode event")
		return res
	}
	for _, m := range members {
		if err := d.sendFrame(m.ConnectionID, frame); err != nil {
			res.Dropped = append(res.Dropped, m.ConnectionID)
			continue
		}
		res.SendTo++
	}
	log.Debug().
		Str("module", "app.dispatch").
		Str("type", string(ev.OutboundType())).
		Int("sent_to", res.SendTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}

func (d *Dispatcher) sendFrame(cid core.ConnectionID, frame core.Frame) error {
	info, err := d.Conns.Lookup(cid)
	if err != nil {
		// Closed between snapshot and delivery.
		log.Debug().Str("module", "app.dispatch").Str("cid", string(cid)).Msg("recipient gone")
		return err
	}
	if info.Signal == nil {
		return core.ErrNotFound
	}
	err = info.Signal.TrySend(frame)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Str("module", "app.dispatch").Str("cid", string(cid)).Msg("delivery failed")
	if d.Policy == nil {
		return err
	}
	switch d.Policy.OnBackPressure(info) {
	case KickMember:
		info.Signal.Close()
		log.Info().Str("module", "app.dispatch").Str("cid", string(cid)).Msg("kicked slow connection")
	case MarkSlow, DropFrame, NoAction:
	}
	return err
}
