// Package storetest runs the same behaviour checks against every store
// implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/Stream/internal/adapters/store"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/stretchr/testify/require"
)

func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("CreateGetList", func(t *testing.T) { testCreateGetList(t, open(t)) })
	t.Run("MarkEndedIsIdempotent", func(t *testing.T) { testMarkEnded(t, open(t)) })
	t.Run("ChatHistory", func(t *testing.T) { testChatHistory(t, open(t)) })
}

func testCreateGetList(t *testing.T, s store.Store) {
	req := require.New(t)
	ctx := context.Background()

	first, err := store.NewStreamRecord("first", "alice", time.Now())
	req.NoError(err)
	second, err := store.NewStreamRecord("second", "bob", time.Now())
	req.NoError(err)
	req.NoError(s.CreateStream(ctx, first))
	req.NoError(s.CreateStream(ctx, second))
	req.ErrorIs(s.CreateStream(ctx, first), store.ErrAlreadyExists)

	got, err := s.GetStream(ctx, first.ID)
	req.NoError(err)
	req.Equal(first.ID, got.ID)
	req.Equal("first", got.Title)
	req.EqualValues("alice", got.StreamerID)
	req.Equal(domain.StreamLive, got.Status)
	req.WithinDuration(first.CreatedAt, got.CreatedAt, time.Millisecond)
	req.Nil(got.EndedAt)

	_, err = s.GetStream(ctx, "missing")
	req.ErrorIs(err, store.ErrNotFound)

	all, err := s.ListStreams(ctx)
	req.NoError(err)
	req.Len(all, 2)
	req.Equal(first.ID, all[0].ID)
	req.Equal(second.ID, all[1].ID)
}

func testMarkEnded(t *testing.T, s store.Store) {
	req := require.New(t)
	ctx := context.Background()

	rec, err := store.NewStreamRecord("live", "alice", time.Now())
	req.NoError(err)
	req.NoError(s.CreateStream(ctx, rec))

	req.NoError(s.MarkStreamEnded(ctx, rec.ID))
	ended, err := s.GetStream(ctx, rec.ID)
	req.NoError(err)
	req.True(ended.IsEnded())
	req.NotNil(ended.EndedAt)

	req.NoError(s.MarkStreamEnded(ctx, rec.ID))
	again, err := s.GetStream(ctx, rec.ID)
	req.NoError(err)
	req.True(ended.EndedAt.Equal(*again.EndedAt), "first end time is kept")

	req.ErrorIs(s.MarkStreamEnded(ctx, "missing"), store.ErrNotFound)
}

func testChatHistory(t *testing.T, s store.Store) {
	req := require.New(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := range 5 {
		req.NoError(s.AppendChatLog(ctx, domain.ChatEntry{
			StreamID:    "a",
			Identity:    "alice",
			DisplayName: "Alice",
			Text:        fmt.Sprintf("msg-%d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Millisecond),
		}))
	}
	req.NoError(s.AppendChatLog(ctx, domain.ChatEntry{StreamID: "a:b", Identity: "x", Text: "other", Timestamp: base}))

	all, err := s.ListChat(ctx, "a", 0)
	req.NoError(err)
	req.Len(all, 5)
	for i, e := range all {
		req.Equal(fmt.Sprintf("msg-%d", i), e.Text)
		req.EqualValues("a", e.StreamID)
	}

	last, err := s.ListChat(ctx, "a", 2)
	req.NoError(err)
	req.Len(last, 2)
	req.Equal("msg-3", last[0].Text)
	req.Equal("msg-4", last[1].Text)
	req.True(base.Add(4*time.Millisecond).Equal(last[1].Timestamp))

	none, err := s.ListChat(ctx, "empty", 10)
	req.NoError(err)
	req.Empty(none)
}
