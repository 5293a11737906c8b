package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoomRateLimiter_SlidingWindow(t *testing.T) {
	req := require.New(t)
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("a"))
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))
	req.True(rl.Allow("b"), "limits are per identity")

	now = now.Add(1100 * time.Millisecond)
	req.True(rl.Allow("a"))
}

func TestRoomRateLimiter_ForgetKeepsLiveWindow(t *testing.T) {
	req := require.New(t)
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("a"))
	rl.Forget("a")
	req.False(rl.Allow("a"))

	now = now.Add(2 * time.Second)
	rl.Forget("a")
	req.NotContains(rl.history, "a")
}
