package rtc

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Stream/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

func TestICEServers(t *testing.T) {
	req := require.New(t)

	req.Equal(DefaultWebRTCConfig().ICEServers, ICEServers(nil))

	got := ICEServers([]config.ICEServer{
		{URLs: []string{"stun:a"}},
		{URLs: []string{"turn:b"}, Username: "u", Credential: "p"},
	})
	req.Len(got, 2)
	req.Equal([]string{"stun:a"}, got[0].URLs)
	req.Nil(got[0].Credential)
	req.Equal("p", got[1].Credential)
}

func TestWebRTCConnection_OfferAnswer(t *testing.T) {
	req := require.New(t)
	cfg := webrtc.Configuration{}

	streamer, err := NewWebRTCConnection(cfg, "v1")
	req.NoError(err)
	viewer, err := NewWebRTCConnection(cfg, "s")
	req.NoError(err)
	streamer.Start(t.Context())
	viewer.Start(t.Context())
	defer streamer.Close()
	defer viewer.Close()

	req.NoError(streamer.SendMedia())
	offer, err := streamer.CreateOffer()
	req.NoError(err)
	req.Equal(webrtc.SDPTypeOffer, offer.Type)

	// Candidates before the offer are held until it arrives.
	req.NoError(viewer.AddICECandidate(webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 127.0.0.1 9 typ host"}))

	answer, err := viewer.ApplyOffer(offer)
	req.NoError(err)
	req.Equal(webrtc.SDPTypeAnswer, answer.Type)
	req.NoError(streamer.ApplyAnswer(answer))
	req.NotNil(streamer.LocalDescription())
}

func TestWebRTCConnection_CloseRunsCallbackOnce(t *testing.T) {
	req := require.New(t)
	c, err := NewWebRTCConnection(webrtc.Configuration{}, "x")
	req.NoError(err)
	c.Start(t.Context())

	var mu sync.Mutex
	calls := 0
	c.OnClosed(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	c.Close()
	c.Close()

	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 10*time.Millisecond)
}
