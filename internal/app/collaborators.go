//go:generate go run go.uber.org/mock/mockgen -source=collaborators.go -destination=../mocks/mock_collaborators.go -package=mocks
package app

import (
	"context"

	"github.com/dkeye/Stream/internal/domain"
)

// StreamStore is the durable stream-record store. The coordinator only ever
// marks records ended; it does not own their consistency.
type StreamStore interface {
	MarkStreamEnded(ctx context.Context, id domain.StreamID) error
}

// StreamReader resolves stream records, e.g. to check who may end a stream.
type StreamReader interface {
	GetStream(ctx context.Context, id domain.StreamID) (domain.StreamRecord, error)
}

// ChatLog receives a copy of every relayed chat entry for durable append.
type ChatLog interface {
	AppendChatLog(ctx context.Context, entry domain.ChatEntry) error
}
