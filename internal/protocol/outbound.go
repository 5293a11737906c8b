package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/samber/lo"
)

// Outbound is an event sent by the server. The set of implementations is closed.
type Outbound interface {
	OutboundType() Type
}

type RoomState struct {
	Type       Type               `json:"type"`
	StreamID   domain.StreamID    `json:"streamId"`
	Generation uint64             `json:"generation"`
	Members    []core.MemberEntry `json:"members"`
}

// MemberEvent is member-joined or member-left.
type MemberEvent struct {
	Type         Type               `json:"type"`
	StreamID     domain.StreamID    `json:"streamId"`
	Identity     domain.Identity    `json:"identity"`
	ConnectionID core.ConnectionID  `json:"connectionId"`
	DisplayName  domain.DisplayName `json:"displayName"`
}

type ChatBroadcast struct {
	Type        Type               `json:"type"`
	StreamID    domain.StreamID    `json:"streamId"`
	Identity    domain.Identity    `json:"identity"`
	DisplayName domain.DisplayName `json:"displayName"`
	Text        string             `json:"text"`
	Timestamp   time.Time          `json:"timestamp"`
}

type SignalDelivery struct {
	Type               Type              `json:"type"`
	StreamID           domain.StreamID   `json:"streamId"`
	Payload            json.RawMessage   `json:"payload"`
	SourceIdentity     domain.Identity   `json:"sourceIdentity"`
	SourceConnectionID core.ConnectionID `json:"sourceConnectionId"`
}

type Members struct {
	Type      Type            `json:"type"`
	StreamID  domain.StreamID `json:"streamId"`
	RequestID string          `json:"requestId,omitempty"`
	Members   []string        `json:"members"`
}

type StreamEnded struct {
	Type     Type            `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
	Message  string          `json:"message"`
}

type Left struct {
	Type     Type            `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
}

type Pong struct {
	Type Type `json:"type"`
}

type Identity struct {
	Type         Type               `json:"type"`
	ConnectionID core.ConnectionID  `json:"connectionId"`
	Identity     domain.Identity    `json:"identity"`
	DisplayName  domain.DisplayName `json:"displayName"`
	StreamID     domain.StreamID    `json:"streamId,omitempty"`
}

type Error struct {
	Type        Type   `json:"type"`
	Error       string `json:"error"`
	RequestType Type   `json:"requestType,omitempty"`
}

func (e RoomState) OutboundType() Type      { return e.Type }
func (e MemberEvent) OutboundType() Type    { return e.Type }
func (e ChatBroadcast) OutboundType() Type  { return e.Type }
func (e SignalDelivery) OutboundType() Type { return e.Type }
func (e Members) OutboundType() Type        { return e.Type }
func (e StreamEnded) OutboundType() Type    { return e.Type }
func (e Left) OutboundType() Type           { return e.Type }
func (e Pong) OutboundType() Type           { return e.Type }
func (e Identity) OutboundType() Type       { return e.Type }
func (e Error) OutboundType() Type          { return e.Type }

func NewRoomState(snap core.RoomSnapshot) RoomState {
	return RoomState{Type: TypeRoomState, StreamID: snap.StreamID, Generation: snap.Generation, Members: snap.Members}
}

func NewMemberJoined(streamID domain.StreamID, m core.MemberEntry) MemberEvent {
	return newMemberEvent(TypeMemberJoined, streamID, m)
}

func NewMemberLeft(streamID domain.StreamID, m core.MemberEntry) MemberEvent {
	return newMemberEvent(TypeMemberLeft, streamID, m)
}

func newMemberEvent(t Type, streamID domain.StreamID, m core.MemberEntry) MemberEvent {
	return MemberEvent{
		Type:         t,
		StreamID:     streamID,
		Identity:     m.Identity,
		ConnectionID: m.ConnectionID,
		DisplayName:  m.DisplayName,
	}
}

func NewChatBroadcast(e domain.ChatEntry) ChatBroadcast {
	return ChatBroadcast{
		Type:        TypeChatMessage,
		StreamID:    e.StreamID,
		Identity:    e.Identity,
		DisplayName: e.DisplayName,
		Text:        e.Text,
		Timestamp:   e.Timestamp,
	}
}

func NewMembers(streamID domain.StreamID, requestID string, members []core.MemberEntry) Members {
	return Members{
		Type:      TypeMembers,
		StreamID:  streamID,
		RequestID: requestID,
		Members:   lo.Map(members, func(m core.MemberEntry, _ int) string { return string(m.DisplayName) }),
	}
}

func NewStreamEnded(streamID domain.StreamID) StreamEnded {
	return StreamEnded{Type: TypeStreamEnded, StreamID: streamID, Message: domain.StreamEndedMessage}
}

func NewLeft(streamID domain.StreamID) Left { return Left{Type: TypeLeft, StreamID: streamID} }

func NewPong() Pong { return Pong{Type: TypePong} }

func NewError(code string, requestType Type) Error {
	return Error{Type: TypeError, Error: code, RequestType: requestType}
}

// Encode marshals a server event into a frame.
func Encode(ev Outbound) (core.Frame, error) {
	if ev.OutboundType() == "" {
		return nil, fmt.Errorf("%w: %T has no type", ErrMalformed, ev)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

// DecodeOutbound parses a server event. Used by clients.
func DecodeOutbound(data []byte) (Outbound, error) {
	t, err := PeekType(data)
	if err != nil {
		return nil, err
	}
	switch t {
	case TypeRoomState:
		return decodeOut[RoomState](data)
	case TypeMemberJoined, TypeMemberLeft:
		return decodeOut[MemberEvent](data)
	case TypeChatMessage:
		return decodeOut[ChatBroadcast](data)
	case TypeSignalOffer, TypeSignalAnswer, TypeSignalICE:
		return decodeOut[SignalDelivery](data)
	case TypeMembers:
		return decodeOut[Members](data)
	case TypeStreamEnded:
		return decodeOut[StreamEnded](data)
	case TypeLeft:
		return decodeOut[Left](data)
	case TypePong:
		return decodeOut[Pong](data)
	case TypeWhoAmI:
		return decodeOut[Identity](data)
	case TypeError:
		return decodeOut[Error](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

func decodeOut[T Outbound](data []byte) (Outbound, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func NewIdentity(info core.ConnectionInfo) Identity {
	return Identity{
		Type:         TypeWhoAmI,
		ConnectionID: info.ID,
		Identity:     info.Identity,
		DisplayName:  info.DisplayName,
		StreamID:     info.StreamID,
	}
}
