package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Inbound is a request from a client. The set of implementations is closed.
type Inbound interface {
	InboundType() Type
}

type JoinRoom struct {
	StreamID    string `json:"streamId" validate:"required,notblank,max=128"`
	Identity    string `json:"identity" validate:"required,notblank,max=64"`
	DisplayName string `json:"displayName" validate:"required,notblank,max=36"`
}

type LeaveRoom struct {
	StreamID string `json:"streamId" validate:"required,notblank,max=128"`
}

type ChatMessage struct {
	StreamID    string `json:"streamId" validate:"required,notblank,max=128"`
	Text        string `json:"text" validate:"required,notblank,max=2000"`
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,notblank,max=36"`
}

// Signal carries an opaque negotiation payload for one target identity.
type Signal struct {
	Kind           Type            `json:"type"`
	StreamID       string          `json:"streamId" validate:"required,notblank,max=128"`
	TargetIdentity string          `json:"targetIdentity" validate:"required,notblank,max=64"`
	Payload        json.RawMessage `json:"payload" validate:"required"`
}

type ListMembers struct {
	StreamID  string `json:"streamId" validate:"required,notblank,max=128"`
	RequestID string `json:"requestId,omitempty" validate:"max=64"`
}

type EndStream struct {
	StreamID string `json:"streamId" validate:"required,notblank,max=128"`
}

type Ping struct{}

type WhoAmI struct{}

func (JoinRoom) InboundType() Type    { return TypeJoinRoom }
func (LeaveRoom) InboundType() Type   { return TypeLeaveRoom }
func (ChatMessage) InboundType() Type { return TypeChatMessage }
func (s Signal) InboundType() Type    { return s.Kind }
func (ListMembers) InboundType() Type { return TypeListMembers }
func (EndStream) InboundType() Type   { return TypeEndStream }
func (Ping) InboundType() Type        { return TypePing }
func (WhoAmI) InboundType() Type      { return TypeWhoAmI }

// PeekType returns the "type" tag without decoding the rest.
func PeekType(data []byte) (Type, error) {
	var env struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env.Type, nil
}

// Decode parses and validates one client message.
func Decode(data []byte) (Inbound, error) {
	t, err := PeekType(data)
	if err != nil {
		return nil, err
	}
	switch t {
	case TypeJoinRoom:
		return decodeAs[JoinRoom](data)
	case TypeLeaveRoom:
		return decodeAs[LeaveRoom](data)
	case TypeChatMessage:
		return decodeAs[ChatMessage](data)
	case TypeSignalOffer, TypeSignalAnswer, TypeSignalICE:
		return decodeAs[Signal](data)
	case TypeListMembers:
		return decodeAs[ListMembers](data)
	case TypeEndStream:
		return decodeAs[EndStream](data)
	case TypePing:
		return Ping{}, nil
	case TypeWhoAmI:
		return WhoAmI{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

func decodeAs[T Inbound](data []byte) (Inbound, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

// EncodeInbound marshals a client message, adding its type tag.
func EncodeInbound(m Inbound) ([]byte, error) {
	switch v := m.(type) {
	case JoinRoom:
		return tagged(TypeJoinRoom, v)
	case LeaveRoom:
		return tagged(TypeLeaveRoom, v)
	case ChatMessage:
		return tagged(TypeChatMessage, v)
	case Signal:
		if !IsSignal(v.Kind) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, v.Kind)
		}
		return json.Marshal(v)
	case ListMembers:
		return tagged(TypeListMembers, v)
	case EndStream:
		return tagged(TypeEndStream, v)
	case Ping:
		return tagged(TypePing, v)
	case WhoAmI:
		return tagged(TypeWhoAmI, v)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
}

func tagged(t Type, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(t)
	return json.Marshal(fields)
}
