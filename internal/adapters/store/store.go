// Package store holds the durable stream records and chat log. The
// coordinator reaches it only through the narrow interfaces in app.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/oklog/ulid/v2"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidRecord = errors.New("invalid stream record")
)

const MaxTitleLen = 120

type Streams interface {
	CreateStream(ctx context.Context, rec domain.StreamRecord) error
	GetStream(ctx context.Context, id domain.StreamID) (domain.StreamRecord, error)
	// ListStreams returns records oldest first.
	ListStreams(ctx context.Context) ([]domain.StreamRecord, error)
	// MarkStreamEnded is idempotent; the first end time is kept.
	MarkStreamEnded(ctx context.Context, id domain.StreamID) error
}

type Chats interface {
	AppendChatLog(ctx context.Context, entry domain.ChatEntry) error
	// ListChat returns the newest limit entries of a stream in the order
	// they were sent. limit <= 0 means all.
	ListChat(ctx context.Context, id domain.StreamID, limit int) ([]domain.ChatEntry, error)
}

type Store interface {
	Streams
	Chats
	Close() error
}

func NewStreamID() domain.StreamID {
	return domain.StreamID(strings.ToLower(ulid.Make().String()))
}

// NewStreamRecord builds a live record with a fresh id.
func NewStreamRecord(title string, streamer domain.Identity, now time.Time) (domain.StreamRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLen {
		return domain.StreamRecord{}, ErrInvalidRecord
	}
	if streamer == "" {
		return domain.StreamRecord{}, ErrInvalidRecord
	}
	return domain.StreamRecord{
		ID:         NewStreamID(),
		Title:      title,
		StreamerID: streamer,
		Status:     domain.StreamLive,
		CreatedAt:  now.UTC(),
	}, nil
}

// ChatKey orders chat entries by send time; ties keep insertion order.
func ChatKey(ts time.Time) string {
	return ulid.MustNew(ulid.Timestamp(ts), ulid.DefaultEntropy()).String()
}
