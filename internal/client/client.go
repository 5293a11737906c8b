// Package client is a headless participant of the signaling channel. It
// keeps one peer connection per remote identity: a streamer offers to every
// member that joins, a viewer answers offers, and both forward ICE.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrStreamEnded = errors.New("stream ended")
	ErrClosed      = errors.New("client closed")
)

type Role int

const (
	Viewer Role = iota
	Streamer
)

func (r Role) String() string {
	if r == Streamer {
		return "streamer"
	}
	return "viewer"
}

// Peer is the part of a WebRTC peer connection the client drives.
type Peer interface {
	CreateOffer() (webrtc.SessionDescription, error)
	ApplyOffer(webrtc.SessionDescription) (webrtc.SessionDescription, error)
	ApplyAnswer(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	OnICECandidate(func(webrtc.ICECandidateInit))
	Close()
}

type PeerFactory func(ctx context.Context, remote domain.Identity, role Role) (Peer, error)

type Options struct {
	// URL is the signaling endpoint, e.g. ws://host:8080/api/ws/signal.
	URL         string
	Identity    domain.Identity
	DisplayName domain.DisplayName
	StreamID    domain.StreamID
	Role        Role
	NewPeer     PeerFactory
	// OnEvent sees every server event after the client has handled it.
	OnEvent func(protocol.Outbound)
	// ExitOnEnd makes Run return ErrStreamEnded on stream-ended.
	ExitOnEnd  bool
	SendBuffer int
}

type Client struct {
	opts Options
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	peers  map[domain.Identity]Peer
	closed bool
}

func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.NewPeer == nil {
		return nil, errors.New("client: NewPeer is required")
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("client: bad url: %w", err)
	}
	q := u.Query()
	q.Set("identity", string(opts.Identity))
	q.Set("name", string(opts.DisplayName))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", opts.URL, err)
	}
	log.Info().Str("module", "client").Str("identity", string(opts.Identity)).Str("role", opts.Role.String()).Msg("connected")
	return &Client{
		opts:  opts,
		conn:  conn,
		send:  make(chan []byte, opts.SendBuffer),
		peers: make(map[domain.Identity]Peer),
	}, nil
}

// Run pumps the connection until ctx is done, the server closes it, or the
// stream ends with ExitOnEnd set. Every peer is closed on return.
func (c *Client) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(ctx) })
	g.Go(func() error { return c.writeLoop(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		_ = c.conn.Close()
		return nil
	})
	err := g.Wait()
	c.closePeers()
	return err
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("client: read: %w", err)
		}
		ev, err := protocol.DecodeOutbound(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("unreadable event")
			continue
		}
		if err := c.handle(ctx, ev); err != nil {
			return err
		}
		if c.opts.OnEvent != nil {
			c.opts.OnEvent(ev)
		}
	}
}

func (c *Client) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("client: write: %w", err)
			}
		}
	}
}

func (c *Client) Send(m protocol.Inbound) error {
	data, err := protocol.EncodeInbound(m)
	if err != nil {
		return err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("client: send queue full")
	}
}

func (c *Client) Join() error {
	return c.Send(protocol.JoinRoom{
		StreamID:    string(c.opts.StreamID),
		Identity:    string(c.opts.Identity),
		DisplayName: string(c.opts.DisplayName),
	})
}

func (c *Client) Leave() error {
	return c.Send(protocol.LeaveRoom{StreamID: string(c.opts.StreamID)})
}

func (c *Client) Chat(text string) error {
	return c.Send(protocol.ChatMessage{StreamID: string(c.opts.StreamID), Text: text})
}

func (c *Client) ListMembers(requestID string) error {
	return c.Send(protocol.ListMembers{StreamID: string(c.opts.StreamID), RequestID: requestID})
}

func (c *Client) End() error {
	return c.Send(protocol.EndStream{StreamID: string(c.opts.StreamID)})
}

// Peers lists the remote identities with an open peer connection.
func (c *Client) Peers() []domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Identity, 0, len(c.peers))
	for id := range c.peers {
		out = append(out, id)
	}
	return out
}

func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
	c.closePeers()
}

func (c *Client) relay(kind protocol.Type, target domain.Identity, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "client").Msg("marshal signal payload")
		return
	}
	err = c.Send(protocol.Signal{
		Kind:           kind,
		StreamID:       string(c.opts.StreamID),
		TargetIdentity: string(target),
		Payload:        raw,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Str("kind", string(kind)).Msg("signal not sent")
	}
}
