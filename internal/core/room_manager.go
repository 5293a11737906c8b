package core

import (
	"errors"
	"sync"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomRegistry is the per-stream roster of identity → connection bindings.
//
// Lock order is registry mu, then room mu, then idxMu. Mutations of a room
// are serialized by that room's lock; idx maps each connection to the rooms
// where it is the current binding so a disconnect can be purged without
// knowing its rooms.
type RoomRegistry struct {
	mu          sync.RWMutex
	rooms       map[domain.StreamID]*room
	generations map[domain.StreamID]uint64

	idxMu sync.Mutex
	idx   map[ConnectionID]map[domain.StreamID]domain.Identity

	events RoomEvents
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:       make(map[domain.StreamID]*room),
		generations: make(map[domain.StreamID]uint64),
		idx:         make(map[ConnectionID]map[domain.StreamID]domain.Identity),
	}
}

// SetEvents installs the membership listener. Call it before the registry
// is shared.
func (m *RoomRegistry) SetEvents(ev RoomEvents) {
	m.events = ev
}

func (m *RoomRegistry) joined(res JoinResult) {
	if m.events != nil {
		m.events.Joined(res)
	}
}

func (m *RoomRegistry) left(dep Departure) {
	if m.events != nil {
		m.events.Left(dep)
	}
}

func (m *RoomRegistry) get(streamID domain.StreamID) (*room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rm, ok := m.rooms[streamID]
	return rm, ok
}

func (m *RoomRegistry) getOrCreate(streamID domain.StreamID) *room {
	if rm, ok := m.get(streamID); ok {
		return rm
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rm, ok := m.rooms[streamID]; ok {
		return rm
	}
	m.generations[streamID]++
	rm := newRoom(streamID, m.generations[streamID])
	m.rooms[streamID] = rm
	log.Info().Str("module", "core.room").Str("stream", string(streamID)).Uint64("generation", rm.generation).Msg("room created")
	return rm
}

// Join inserts or replaces identity's binding and returns the full snapshot.
// A join that finds its room closed by a concurrent Close retries against a
// fresh room, so it never lands in a defunct one. A join that wins the room
// lock first has its events sent before Close takes the final snapshot.
func (m *RoomRegistry) Join(
	streamID domain.StreamID,
	cid ConnectionID,
	identity domain.Identity,
	name domain.DisplayName,
) JoinResult {
	for {
		rm := m.getOrCreate(streamID)
		rm.mu.Lock()
		res, err := rm.joinLocked(cid, identity, name)
		if errors.Is(err, ErrRoomClosed) {
			rm.mu.Unlock()
			log.Debug().Str("module", "core.room").Str("stream", string(streamID)).Msg("room closed under join, retrying")
			continue
		}
		m.indexAdd(cid, streamID, identity)
		if res.Superseded != "" {
			m.indexRemove(res.Superseded, streamID)
		}
		m.joined(res)
		rm.mu.Unlock()

		log.Info().
			Str("module", "core.room").
			Str("stream", string(streamID)).
			Str("cid", string(cid)).
			Str("identity", string(identity)).
			Str("superseded", string(res.Superseded)).
			Msg("member joined")
		return res
	}
}

// Leave removes identity from the room. It never destroys the room.
func (m *RoomRegistry) Leave(streamID domain.StreamID, identity domain.Identity) (Departure, bool) {
	rm, ok := m.get(streamID)
	if !ok {
		return Departure{}, false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return Departure{}, false
	}
	dep, ok := rm.removeLocked(identity, "")
	if ok {
		m.indexRemove(dep.Member.ConnectionID, streamID)
		m.left(dep)
		log.Info().Str("module", "core.room").Str("stream", string(streamID)).Str("identity", string(identity)).Msg("member left")
	}
	return dep, ok
}

// LeaveConnection removes identity only while it is still bound to cid.
func (m *RoomRegistry) LeaveConnection(streamID domain.StreamID, identity domain.Identity, cid ConnectionID) (Departure, bool) {
	rm, ok := m.get(streamID)
	if !ok {
		return Departure{}, false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return Departure{}, false
	}
	dep, ok := rm.removeLocked(identity, cid)
	if ok {
		m.indexRemove(cid, streamID)
		m.left(dep)
		log.Info().Str("module", "core.room").Str("stream", string(streamID)).Str("identity", string(identity)).Str("cid", string(cid)).Msg("member left")
	}
	return dep, ok
}

// LeaveByConnection purges every membership currently bound to cid.
// Entries that were superseded by a later join of the same identity are
// untouched.
func (m *RoomRegistry) LeaveByConnection(cid ConnectionID) []Departure {
	m.idxMu.Lock()
	bound := make(map[domain.StreamID]domain.Identity, len(m.idx[cid]))
	for sid, id := range m.idx[cid] {
		bound[sid] = id
	}
	m.idxMu.Unlock()

	out := make([]Departure, 0, len(bound))
	for streamID, identity := range bound {
		rm, ok := m.get(streamID)
		if !ok {
			m.indexRemove(cid, streamID)
			continue
		}
		rm.mu.Lock()
		if !rm.closed {
			if dep, ok := rm.removeLocked(identity, cid); ok {
				m.left(dep)
				out = append(out, dep)
			}
		}
		m.indexRemove(cid, streamID)
		rm.mu.Unlock()
	}
	if len(out) > 0 {
		log.Info().Str("module", "core.room").Str("cid", string(cid)).Int("rooms", len(out)).Msg("connection purged")
	}
	return out
}

func (m *RoomRegistry) MembersOf(streamID domain.StreamID) []MemberEntry {
	rm, ok := m.get(streamID)
	if !ok {
		return []MemberEntry{}
	}
	return rm.snapshot().Members
}

// Snapshot reports the live room for streamID, if any.
func (m *RoomRegistry) Snapshot(streamID domain.StreamID) (RoomSnapshot, bool) {
	rm, ok := m.get(streamID)
	if !ok {
		return RoomSnapshot{}, false
	}
	return rm.snapshot(), true
}

func (m *RoomRegistry) ConnectionFor(streamID domain.StreamID, identity domain.Identity) (ConnectionID, error) {
	rm, ok := m.get(streamID)
	if !ok {
		return "", ErrNotFound
	}
	cid, ok := rm.connectionFor(identity)
	if !ok {
		return "", ErrNotFound
	}
	return cid, nil
}

// Close detaches the room from the registry and marks it closed. The
// returned snapshot is the final membership; later joins start a new
// generation.
func (m *RoomRegistry) Close(streamID domain.StreamID) (RoomSnapshot, bool) {
	m.mu.Lock()
	rm, ok := m.rooms[streamID]
	if ok {
		delete(m.rooms, streamID)
	}
	m.mu.Unlock()
	if !ok {
		return RoomSnapshot{StreamID: streamID, Members: []MemberEntry{}}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.closed = true
	snap := rm.snapshotLocked()
	for _, e := range snap.Members {
		m.indexRemove(e.ConnectionID, streamID)
	}
	log.Info().Str("module", "core.room").Str("stream", string(streamID)).Int("members", len(snap.Members)).Msg("room closed")
	return snap, true
}

func (m *RoomRegistry) List() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*room, 0, len(m.rooms))
	for _, rm := range m.rooms {
		rooms = append(rooms, rm)
	}
	m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, RoomInfo{StreamID: rm.streamID, Generation: rm.generation, MemberCount: rm.memberCount()})
	}
	return out
}

func (m *RoomRegistry) MemberCount(streamID domain.StreamID) int {
	rm, ok := m.get(streamID)
	if !ok {
		return 0
	}
	return rm.memberCount()
}

func (m *RoomRegistry) indexAdd(cid ConnectionID, streamID domain.StreamID, identity domain.Identity) {
	m.idxMu.Lock()
	defer m.idxMu.Unlock()
	rooms, ok := m.idx[cid]
	if !ok {
		rooms = make(map[domain.StreamID]domain.Identity)
		m.idx[cid] = rooms
	}
	rooms[streamID] = identity
}

func (m *RoomRegistry) indexRemove(cid ConnectionID, streamID domain.StreamID) {
	m.idxMu.Lock()
	defer m.idxMu.Unlock()
	rooms, ok := m.idx[cid]
	if !ok {
		return
	}
	delete(rooms, streamID)
	if len(rooms) == 0 {
		delete(m.idx, cid)
	}
}
