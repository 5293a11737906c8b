package client

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (c *Client) handle(ctx context.Context, ev protocol.Outbound) error {
	switch e := ev.(type) {
	case protocol.RoomState:
		if c.opts.Role == Streamer {
			for _, m := range e.Members {
				if m.Identity != c.opts.Identity {
					c.offerTo(ctx, m.Identity)
				}
			}
		}
	case protocol.MemberEvent:
		if e.Identity == c.opts.Identity {
			return nil
		}
		switch e.Type {
		case protocol.TypeMemberJoined:
			if c.opts.Role == Streamer {
				c.offerTo(ctx, e.Identity)
			}
		case protocol.TypeMemberLeft:
			c.closePeer(e.Identity)
		}
	case protocol.SignalDelivery:
		c.onSignal(ctx, e)
	case protocol.StreamEnded:
		log.Info().Str("module", "client").Str("stream", string(e.StreamID)).Msg(e.Message)
		c.closePeers()
		if c.opts.ExitOnEnd {
			return ErrStreamEnded
		}
	case protocol.Left:
		c.closePeers()
	case protocol.Error:
		log.Warn().Str("module", "client").Str("error", e.Error).Str("request", string(e.RequestType)).Msg("server error")
	}
	return nil
}

// newPeer replaces any existing peer for remote.
func (c *Client) newPeer(ctx context.Context, remote domain.Identity) (Peer, error) {
	c.closePeer(remote)
	p, err := c.opts.NewPeer(ctx, remote, c.opts.Role)
	if err != nil {
		return nil, err
	}
	p.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		c.relay(protocol.TypeSignalICE, remote, ci)
	})
	c.mu.Lock()
	c.peers[remote] = p
	c.mu.Unlock()
	return p, nil
}

func (c *Client) peer(remote domain.Identity) (Peer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[remote]
	return p, ok
}

func (c *Client) offerTo(ctx context.Context, remote domain.Identity) {
	p, err := c.newPeer(ctx, remote)
	if err != nil {
		log.Error().Err(err).Str("module", "client").Str("remote", string(remote)).Msg("new peer")
		return
	}
	offer, err := p.CreateOffer()
	if err != nil {
		log.Error().Err(err).Str("module", "client").Str("remote", string(remote)).Msg("create offer")
		c.closePeer(remote)
		return
	}
	c.relay(protocol.TypeSignalOffer, remote, offer)
}

func (c *Client) onSignal(ctx context.Context, e protocol.SignalDelivery) {
	logger := log.With().Str("module", "client").Str("kind", string(e.Type)).Str("from", string(e.SourceIdentity)).Logger()
	switch e.Type {
	case protocol.TypeSignalOffer:
		var offer webrtc.SessionDescription
		if err := json.Unmarshal(e.Payload, &offer); err != nil {
			logger.Warn().Err(err).Msg("bad offer")
			return
		}
		p, err := c.newPeer(ctx, e.SourceIdentity)
		if err != nil {
			logger.Error().Err(err).Msg("new peer")
			return
		}
		answer, err := p.ApplyOffer(offer)
		if err != nil {
			logger.Error().Err(err).Msg("apply offer")
			c.closePeer(e.SourceIdentity)
			return
		}
		c.relay(protocol.TypeSignalAnswer, e.SourceIdentity, answer)
	case protocol.TypeSignalAnswer:
		var answer webrtc.SessionDescription
		if err := json.Unmarshal(e.Payload, &answer); err != nil {
			logger.Warn().Err(err).Msg("bad answer")
			return
		}
		p, ok := c.peer(e.SourceIdentity)
		if !ok {
			logger.Debug().Msg("answer without peer")
			return
		}
		if err := p.ApplyAnswer(answer); err != nil {
			logger.Error().Err(err).Msg("apply answer")
		}
	case protocol.TypeSignalICE:
		var ci webrtc.ICECandidateInit
		if err := json.Unmarshal(e.Payload, &ci); err != nil {
			logger.Warn().Err(err).Msg("bad candidate")
			return
		}
		p, ok := c.peer(e.SourceIdentity)
		if !ok {
			logger.Debug().Msg("candidate without peer")
			return
		}
		if err := p.AddICECandidate(ci); err != nil {
			logger.Warn().Err(err).Msg("add candidate")
		}
	}
}

func (c *Client) closePeer(remote domain.Identity) {
	c.mu.Lock()
	p, ok := c.peers[remote]
	delete(c.peers, remote)
	c.mu.Unlock()
	if ok {
		p.Close()
		log.Info().Str("module", "client").Str("remote", string(remote)).Msg("peer closed")
	}
}

func (c *Client) closePeers() {
	c.mu.Lock()
	peers := c.peers
	c.peers = make(map[domain.Identity]Peer)
	c.mu.Unlock()
	for _, p := range peers {
		p.Close()
	}
}
