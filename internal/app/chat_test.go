package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/mocks"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatRelay_DeliversOnlyWithinRoom(t *testing.T) {
	req := require.New(t)
	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, nil, 0)
	a := h.connect(t, "c-a", "a")
	b := h.connect(t, "c-b", "b")
	x := h.connect(t, "c-x", "x")
	h.join(t, "42", "c-a")
	h.join(t, "42", "c-b")
	h.join(t, "7", "c-x")

	res := chat.Send("42", domain.ChatEntry{Identity: "a", DisplayName: "Alice", Text: "hi"})

	req.Equal(2, res.SendTo)
	for _, sig := range []*recordingSignal{a, b} {
		evs := sig.events(t)
		req.Len(evs, 1)
		msg := evs[0].(protocol.ChatBroadcast)
		req.Equal("hi", msg.Text)
		req.EqualValues("Alice", msg.DisplayName)
		req.EqualValues("42", msg.StreamID)
		req.False(msg.Timestamp.IsZero())
	}
	req.Empty(x.types(t))
}

func TestChatRelay_PreservesSenderOrder(t *testing.T) {
	req := require.New(t)
	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, nil, 0)
	a := h.connect(t, "c-a", "a")
	b := h.connect(t, "c-b", "b")
	h.join(t, "42", "c-a")
	h.join(t, "42", "c-b")

	texts := []string{"one", "two", "three", "four"}
	for _, txt := range texts {
		chat.Send("42", domain.ChatEntry{Identity: "a", DisplayName: "A", Text: txt})
	}

	for _, sig := range []*recordingSignal{a, b} {
		var got []string
		for _, ev := range sig.events(t) {
			got = append(got, ev.(protocol.ChatBroadcast).Text)
		}
		req.Equal(texts, got)
	}
}

func TestChatRelay_AppendsToChatLog(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chatLog := mocks.NewMockChatLog(ctrl)

	var mu sync.Mutex
	var logged []domain.ChatEntry
	chatLog.EXPECT().
		AppendChatLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e domain.ChatEntry) error {
			mu.Lock()
			logged = append(logged, e)
			mu.Unlock()
			return nil
		}).
		Times(2)

	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, chatLog, 8)
	chat.Start(context.Background())
	h.connect(t, "c-a", "a")
	h.join(t, "42", "c-a")

	chat.Send("42", domain.ChatEntry{Identity: "a", DisplayName: "A", Text: "first"})
	chat.Send("42", domain.ChatEntry{Identity: "a", DisplayName: "A", Text: "second"})
	chat.Stop()

	mu.Lock()
	defer mu.Unlock()
	req.Len(logged, 2)
	req.Equal("first", logged[0].Text)
	req.EqualValues("42", logged[0].StreamID)
	req.Equal("second", logged[1].Text)
}

func TestChatRelay_LogFailureDoesNotBlockDelivery(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chatLog := mocks.NewMockChatLog(ctrl)
	chatLog.EXPECT().AppendChatLog(gomock.Any(), gomock.Any()).Return(errors.New("disk full")).AnyTimes()

	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, chatLog, 1)
	chat.Start(context.Background())
	defer chat.Stop()
	a := h.connect(t, "c-a", "a")
	h.join(t, "42", "c-a")

	for range 10 {
		chat.Send("42", domain.ChatEntry{Identity: "a", Text: "x"})
	}
	req.Len(a.events(t), 10)
}

func TestChatRelay_SendAfterStopIsStillDelivered(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chatLog := mocks.NewMockChatLog(ctrl)

	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, chatLog, 4)
	chat.Start(context.Background())
	chat.Stop()
	chat.Stop()

	a := h.connect(t, "c-a", "a")
	h.join(t, "42", "c-a")
	res := chat.Send("42", domain.ChatEntry{Identity: "a", Text: "late"})
	req.Equal(1, res.SendTo)
	req.Len(a.events(t), 1)
}

func TestChatRelay_CancelledContextStillFlushesQueue(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chatLog := mocks.NewMockChatLog(ctrl)

	var mu sync.Mutex
	var logged []string
	chatLog.EXPECT().
		AppendChatLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e domain.ChatEntry) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			mu.Lock()
			logged = append(logged, e.Text)
			mu.Unlock()
			return nil
		}).
		Times(3)

	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, chatLog, 8)
	ctx, cancel := context.WithCancel(context.Background())
	chat.Start(ctx)
	h.connect(t, "c-a", "a")
	h.join(t, "42", "c-a")

	cancel()
	for _, txt := range []string{"one", "two", "three"} {
		chat.Send("42", domain.ChatEntry{Identity: "a", Text: txt})
	}
	chat.Stop()

	mu.Lock()
	defer mu.Unlock()
	req.Equal([]string{"one", "two", "three"}, logged)
}

func TestChatRelay_StopWithoutStartFlushes(t *testing.T) {
	ctrl := gomock.NewController(t)
	chatLog := mocks.NewMockChatLog(ctrl)
	chatLog.EXPECT().AppendChatLog(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	h := newHarness(SimplePolicy{})
	chat := NewChatRelay(h.rooms, h.d, chatLog, 4)
	h.connect(t, "c-a", "a")
	h.join(t, "42", "c-a")

	chat.Send("42", domain.ChatEntry{Identity: "a", Text: "x"})
	chat.Send("42", domain.ChatEntry{Identity: "a", Text: "y"})
	chat.Stop()
}
