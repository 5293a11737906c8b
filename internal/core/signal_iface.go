package core

// Frame is a raw binary payload.
type Frame []byte

// ConnectionID is assigned by the transport when a channel opens and is
// never reused.
type ConnectionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must not block. A full queue is reported as an error.
	TrySend(Frame) error
	Close()
}
