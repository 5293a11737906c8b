package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/mocks"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func countType(t *testing.T, sig *recordingSignal, typ protocol.Type) int {
	n := 0
	for _, got := range sig.types(t) {
		if got == typ {
			n++
		}
	}
	return n
}

func TestCoordinator_End_NotifiesEveryMemberOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStreamStore(ctrl)
	store.EXPECT().MarkStreamEnded(gomock.Any(), domain.StreamID("42")).Return(nil).Times(1)

	h := newHarness(SimplePolicy{})
	coord := NewCoordinator(h.rooms, h.conns, h.d, store)
	s := h.connect(t, "c-s", "s")
	v1 := h.connect(t, "c-v1", "v1")
	v2 := h.connect(t, "c-v2", "v2")
	h.join(t, "42", "c-s")
	h.join(t, "42", "c-v1")
	h.join(t, "42", "c-v2")

	res, err := coord.End(context.Background(), "42")
	req.NoError(err)
	req.False(res.AlreadyEnded)
	req.Equal(3, res.Notified)
	req.Equal(StreamEnded, coord.State("42"))

	res, err = coord.End(context.Background(), "42")
	req.NoError(err)
	req.True(res.AlreadyEnded)

	for _, sig := range []*recordingSignal{s, v1, v2} {
		req.Equal(1, countType(t, sig, protocol.TypeStreamEnded))
		ended := sig.events(t)[0].(protocol.StreamEnded)
		req.Equal(domain.StreamEndedMessage, ended.Message)
	}
	req.Empty(h.rooms.MembersOf("42"))
	_, err = h.rooms.ConnectionFor("42", "v1")
	req.ErrorIs(err, core.ErrNotFound)

	info, err := h.conns.Lookup("c-v1")
	req.NoError(err)
	req.Empty(info.StreamID)
}

func TestCoordinator_End_StoreFailureStillTearsDown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStreamStore(ctrl)
	store.EXPECT().MarkStreamEnded(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(2)

	h := newHarness(SimplePolicy{})
	coord := NewCoordinator(h.rooms, h.conns, h.d, store)
	v1 := h.connect(t, "c-v1", "v1")
	h.join(t, "42", "c-v1")

	res, err := coord.End(context.Background(), "42")
	req.ErrorIs(err, ErrMarkEndedFailed)
	req.Equal(1, res.Notified)
	req.Equal(1, countType(t, v1, protocol.TypeStreamEnded))
	req.Empty(h.rooms.MembersOf("42"))
	req.Equal(StreamLive, coord.State("42"))

	res, err = coord.End(context.Background(), "42")
	req.ErrorIs(err, ErrMarkEndedFailed)
	req.False(res.AlreadyEnded)
	req.Zero(res.Notified)
}

func TestCoordinator_End_UnknownStreamSucceeds(t *testing.T) {
	req := require.New(t)
	h := newHarness(SimplePolicy{})
	coord := NewCoordinator(h.rooms, h.conns, h.d, nil)

	res, err := coord.End(context.Background(), "nobody-here")
	req.NoError(err)
	req.Zero(res.Notified)
	req.Equal(StreamLive, coord.State("other"))
}

func TestCoordinator_JoinAfterEnd_GetsFreshRoom(t *testing.T) {
	req := require.New(t)
	h := newHarness(SimplePolicy{})
	coord := NewCoordinator(h.rooms, h.conns, h.d, nil)
	v1 := h.connect(t, "c-v1", "v1")
	v2 := h.connect(t, "c-v2", "v2")
	h.join(t, "42", "c-v1")

	_, err := coord.End(context.Background(), "42")
	req.NoError(err)

	res := h.join(t, "42", "c-v2")
	req.Equal(uint64(2), res.Snapshot.Generation)
	req.Len(res.Snapshot.Members, 1)
	req.Equal(1, countType(t, v1, protocol.TypeStreamEnded))
	req.Zero(countType(t, v2, protocol.TypeStreamEnded))
}
