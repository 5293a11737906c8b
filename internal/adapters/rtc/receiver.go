package rtc

import (
	"context"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type TrackStats struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	Lost    uint64 `json:"lost"`
	SSRC    uint32 `json:"ssrc"`
}

// Receiver counts what arrives on one remote track. Lost is inferred from
// gaps in the sequence number, with wraparound.
type Receiver struct {
	mu      sync.Mutex
	stats   TrackStats
	lastSeq uint16
	started bool
}

func (r *Receiver) Observe(pkt *rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Packets++
	r.stats.Bytes += uint64(len(pkt.Payload))
	r.stats.SSRC = pkt.SSRC
	if r.started {
		gap := pkt.SequenceNumber - r.lastSeq
		// Reordered or duplicate packets land in the upper half.
		if gap == 0 || gap >= 1<<15 {
			return
		}
		r.stats.Lost += uint64(gap - 1)
	}
	r.started = true
	r.lastSeq = pkt.SequenceNumber
}

func (r *Receiver) Stats() TrackStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Drain reads track until ctx is done or the track fails.
func (r *Receiver) Drain(ctx context.Context, track *webrtc.TrackRemote) TrackStats {
	return r.drain(ctx, track.ID(), func() (*rtp.Packet, error) {
		pkt, _, err := track.ReadRTP()
		return pkt, err
	})
}

func (r *Receiver) drain(ctx context.Context, id string, read func() (*rtp.Packet, error)) TrackStats {
	for {
		select {
		case <-ctx.Done():
			st := r.Stats()
			log.Info().Str("module", "webrtc").Str("track_id", id).Uint64("packets", st.Packets).Uint64("lost", st.Lost).Msg("receiver ctx done")
			return st
		default:
		}
		pkt, err := read()
		if err != nil {
			st := r.Stats()
			log.Info().Err(err).Str("module", "webrtc").Str("track_id", id).Uint64("packets", st.Packets).Uint64("lost", st.Lost).Msg("receiver stopped")
			return st
		}
		r.Observe(pkt)
	}
}
