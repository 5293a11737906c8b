// Package protocol defines the JSON events exchanged over the signaling
// channel. Every message is a flat object tagged by "type".
package protocol

import "errors"

type Type string

// Client to server.
const (
	TypeJoinRoom     Type = "join-room"
	TypeLeaveRoom    Type = "leave-room"
	TypeChatMessage  Type = "chat-message"
	TypeSignalOffer  Type = "signal-offer"
	TypeSignalAnswer Type = "signal-answer"
	TypeSignalICE    Type = "signal-ice"
	TypeListMembers  Type = "list-members"
	TypeEndStream    Type = "end-stream"
	TypePing         Type = "ping"
	TypeWhoAmI       Type = "whoami"
)

// Server to client. chat-message and the signal-* types are used in both
// directions with different shapes.
const (
	TypeRoomState    Type = "room-state"
	TypeMemberJoined Type = "member-joined"
	TypeMemberLeft   Type = "member-left"
	TypeMembers      Type = "members"
	TypeStreamEnded  Type = "stream-ended"
	TypeLeft         Type = "left"
	TypePong         Type = "pong"
	TypeError        Type = "error"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// IsSignal reports whether t is one of the relayed negotiation kinds.
func IsSignal(t Type) bool {
	switch t {
	case TypeSignalOffer, TypeSignalAnswer, TypeSignalICE:
		return true
	}
	return false
}

// Error codes sent back in Error.Error.
const (
	CodeBadPayload       = "bad_payload"
	CodeUnknownType      = "unknown_type"
	CodeIdentityMismatch = "identity_mismatch"
	CodeNotInRoom        = "not_in_room"
	CodeRateLimited      = "rate_limited"
	CodeForbidden        = "forbidden"
	CodeMarkEndedFailed  = "mark_ended_failed"
	CodeInternal         = "internal"
)
