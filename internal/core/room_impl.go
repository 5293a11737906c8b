package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/samber/lo"
)

// room is a threadsafe in-memory roster for one stream.
// It never touches adapter-owned resources. Callers hold mu around the
// *Locked methods.
type room struct {
	streamID   domain.StreamID
	generation uint64

	mu      sync.RWMutex
	members map[domain.Identity]*MemberEntry
	seq     uint64
	closed  bool
}

func newRoom(streamID domain.StreamID, generation uint64) *room {
	return &room{
		streamID:   streamID,
		generation: generation,
		members:    make(map[domain.Identity]*MemberEntry),
	}
}

func (r *room) joinLocked(cid ConnectionID, identity domain.Identity, name domain.DisplayName) (JoinResult, error) {
	if r.closed {
		return JoinResult{}, ErrRoomClosed
	}
	var superseded ConnectionID
	if old, ok := r.members[identity]; ok && old.ConnectionID != cid {
		superseded = old.ConnectionID
	}
	r.seq++
	entry := &MemberEntry{Identity: identity, ConnectionID: cid, DisplayName: name, seq: r.seq}
	r.members[identity] = entry
	return JoinResult{
		Snapshot:   r.snapshotLocked(),
		Member:     *entry,
		Superseded: superseded,
	}, nil
}

// removeLocked deletes identity's entry. When cid is non-empty the entry is
// removed only if it is still bound to that connection.
func (r *room) removeLocked(identity domain.Identity, cid ConnectionID) (Departure, bool) {
	entry, ok := r.members[identity]
	if !ok {
		return Departure{}, false
	}
	if cid != "" && entry.ConnectionID != cid {
		return Departure{}, false
	}
	delete(r.members, identity)
	return Departure{
		StreamID:  r.streamID,
		Member:    *entry,
		Remaining: r.membersLocked(),
	}, true
}

func (r *room) membersLocked() []MemberEntry {
	out := lo.Map(lo.Values(r.members), func(e *MemberEntry, _ int) MemberEntry { return *e })
	slices.SortFunc(out, func(a, b MemberEntry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return out
}

func (r *room) snapshotLocked() RoomSnapshot {
	return RoomSnapshot{
		StreamID:   r.streamID,
		Generation: r.generation,
		Members:    r.membersLocked(),
	}
}

func (r *room) snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *room) connectionFor(identity domain.Identity) (ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return "", false
	}
	e, ok := r.members[identity]
	if !ok {
		return "", false
	}
	return e.ConnectionID, true
}

func (r *room) memberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
