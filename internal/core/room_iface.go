package core

import (
	"github.com/dkeye/Stream/internal/domain"
)

// MemberEntry is one identity's binding inside a room.
type MemberEntry struct {
	Identity     domain.Identity    `json:"identity"`
	ConnectionID ConnectionID       `json:"connectionId"`
	DisplayName  domain.DisplayName `json:"displayName"`

	seq uint64
}

// RoomSnapshot is a consistent copy of a room's membership, ordered by join time.
type RoomSnapshot struct {
	StreamID   domain.StreamID `json:"streamId"`
	Generation uint64          `json:"generation"`
	Members    []MemberEntry   `json:"members"`
}

type JoinResult struct {
	Snapshot RoomSnapshot
	Member   MemberEntry
	// Superseded is the connection the identity was bound to before this
	// join, or empty.
	Superseded ConnectionID
}

// Departure describes one removed membership and who was left behind.
type Departure struct {
	StreamID  domain.StreamID
	Member    MemberEntry
	Remaining []MemberEntry
}

type RoomInfo struct {
	StreamID    domain.StreamID `json:"streamId"`
	Generation  uint64          `json:"generation"`
	MemberCount int             `json:"memberCount"`
}

// RoomEvents is told about membership changes while the room is still
// locked, so nothing it sends can trail a later Close of the same room.
// Implementations must not call back into the RoomRegistry.
type RoomEvents interface {
	Joined(res JoinResult)
	Left(dep Departure)
}
