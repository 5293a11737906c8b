package domain

import "time"

type StreamID string

type StreamStatus string

const (
	StreamLive  StreamStatus = "live"
	StreamEnded StreamStatus = "ended"
)

// StreamEndedMessage is what viewers see when the streamer ends the stream.
const StreamEndedMessage = "The stream has ended."

// StreamRecord is the durable description of a stream. The coordinator only
// reads it and marks it ended; the store owns it.
type StreamRecord struct {
	ID         StreamID     `json:"id"`
	Title      string       `json:"title"`
	StreamerID Identity     `json:"streamerId"`
	Status     StreamStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	EndedAt    *time.Time   `json:"endedAt,omitempty"`
}

func (s *StreamRecord) IsEnded() bool { return s.Status == StreamEnded }

// MarkEnded is idempotent; the first end time wins.
func (s *StreamRecord) MarkEnded(at time.Time) {
	if s.IsEnded() {
		return
	}
	s.Status = StreamEnded
	s.EndedAt = &at
}
