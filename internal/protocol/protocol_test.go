package protocol

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestDecode_JoinRoom(t *testing.T) {
	req := require.New(t)

	m, err := Decode([]byte(`{"type":"join-room","streamId":"42","identity":"v1","displayName":"Bob"}`))
	req.NoError(err)
	join, ok := m.(JoinRoom)
	req.True(ok)
	req.Equal(JoinRoom{StreamID: "42", Identity: "v1", DisplayName: "Bob"}, join)
	req.Equal(TypeJoinRoom, m.InboundType())
}

func TestDecode_JoinRoom_NameLimitMatchesDomain(t *testing.T) {
	req := require.New(t)
	name := strings.Repeat("я", domain.MaxUsernameLen)

	m, err := Decode([]byte(`{"type":"join-room","streamId":"42","identity":"v1","displayName":"` + name + `"}`))
	req.NoError(err)
	_, err = domain.ParseDisplayName(m.(JoinRoom).DisplayName)
	req.NoError(err)

	_, err = Decode([]byte(`{"type":"join-room","streamId":"42","identity":"v1","displayName":"` + name + `я"}`))
	req.ErrorIs(err, ErrMalformed)
}

func TestDecode_RejectsStructuralErrors(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"type":`,
		"missing stream":    `{"type":"join-room","identity":"v1","displayName":"Bob"}`,
		"blank identity":    `{"type":"join-room","streamId":"42","identity":"   ","displayName":"Bob"}`,
		"missing name":      `{"type":"join-room","streamId":"42","identity":"v1"}`,
		"empty chat":        `{"type":"chat-message","streamId":"42","text":""}`,
		"blank chat":        `{"type":"chat-message","streamId":"42","text":"  \n"}`,
		"signal no target":  `{"type":"signal-offer","streamId":"42","payload":{"sdp":"x"}}`,
		"signal no payload": `{"type":"signal-ice","streamId":"42","targetIdentity":"v1"}`,
		"list no stream":    `{"type":"list-members"}`,
		"wrong field type":  `{"type":"leave-room","streamId":42}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"dance"}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDecode_SignalKeepsPayloadVerbatim(t *testing.T) {
	req := require.New(t)
	raw := `{"type":"signal-offer","streamId":"42","targetIdentity":"v1","payload":{"sdp":"v=0\r\n","x":[1,2]}}`

	m, err := Decode([]byte(raw))
	req.NoError(err)
	sig := m.(Signal)
	req.Equal(TypeSignalOffer, sig.InboundType())
	req.Equal("v1", sig.TargetIdentity)
	req.JSONEq(`{"sdp":"v=0\r\n","x":[1,2]}`, string(sig.Payload))
}

func TestEncodeInbound_AddsTypeTag(t *testing.T) {
	req := require.New(t)

	b, err := EncodeInbound(ChatMessage{StreamID: "42", Text: "hi"})
	req.NoError(err)
	req.JSONEq(`{"type":"chat-message","streamId":"42","text":"hi"}`, string(b))

	m, err := Decode(b)
	req.NoError(err)
	req.Equal(ChatMessage{StreamID: "42", Text: "hi"}, m)

	b, err = EncodeInbound(Signal{Kind: TypeSignalICE, StreamID: "42", TargetIdentity: "s", Payload: json.RawMessage(`{"candidate":"c"}`)})
	req.NoError(err)
	req.JSONEq(`{"type":"signal-ice","streamId":"42","targetIdentity":"s","payload":{"candidate":"c"}}`, string(b))

	_, err = EncodeInbound(Signal{Kind: TypeChatMessage})
	req.ErrorIs(err, ErrUnknownType)
}

func TestEncode_MemberAndChatEvents(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(NewMemberJoined("42", core.MemberEntry{Identity: "v1", ConnectionID: "c1", DisplayName: "Bob"}))
	req.NoError(err)
	req.JSONEq(`{"type":"member-joined","streamId":"42","identity":"v1","connectionId":"c1","displayName":"Bob"}`, string(frame))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	frame, err = Encode(NewChatBroadcast(domain.ChatEntry{StreamID: "42", Identity: "v1", DisplayName: "Bob", Text: "hi", Timestamp: at}))
	req.NoError(err)
	req.JSONEq(`{"type":"chat-message","streamId":"42","identity":"v1","displayName":"Bob","text":"hi","timestamp":"2026-01-02T03:04:05Z"}`, string(frame))

	frame, err = Encode(NewStreamEnded("42"))
	req.NoError(err)
	req.JSONEq(`{"type":"stream-ended","streamId":"42","message":"The stream has ended."}`, string(frame))

	_, err = Encode(Pong{})
	req.ErrorIs(err, ErrMalformed)
}

func TestDecodeOutbound(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(NewMembers("42", "r1", []core.MemberEntry{{DisplayName: "S"}, {DisplayName: "Bob"}}))
	req.NoError(err)
	ev, err := DecodeOutbound(frame)
	req.NoError(err)
	req.Equal(Members{Type: TypeMembers, StreamID: "42", RequestID: "r1", Members: []string{"S", "Bob"}}, ev)

	ev, err = DecodeOutbound([]byte(`{"type":"signal-answer","streamId":"42","payload":{"sdp":"a"},"sourceIdentity":"v1","sourceConnectionId":"c1"}`))
	req.NoError(err)
	sig := ev.(SignalDelivery)
	req.Equal(TypeSignalAnswer, sig.OutboundType())
	req.Equal(domain.Identity("v1"), sig.SourceIdentity)

	_, err = DecodeOutbound([]byte(`{"type":"join-room"}`))
	req.ErrorIs(err, ErrUnknownType)
}
