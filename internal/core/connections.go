package core

import (
	"sync"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Identity    domain.Identity
	DisplayName domain.DisplayName
	Signal      SignalConnection
	StreamID    domain.StreamID
}

// ConnectionInfo is a copy of what the registry knows about a live connection.
type ConnectionInfo struct {
	ID          ConnectionID
	Identity    domain.Identity
	DisplayName domain.DisplayName
	Signal      SignalConnection
	StreamID    domain.StreamID
}

// Association is one room membership a connection held.
type Association struct {
	StreamID domain.StreamID
	Identity domain.Identity
}

// ConnectionRegistry tracks every live connection and the single identity it
// carries. A connection is associated with at most one stream at a time.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[ConnectionID]*connEntry
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[ConnectionID]*connEntry)}
}

// Register binds metadata to a newly opened connection. The first binding is
// authoritative; a second Register for the same id fails and changes nothing.
func (r *ConnectionRegistry) Register(
	cid ConnectionID,
	identity domain.Identity,
	name domain.DisplayName,
	sig SignalConnection,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[cid]; ok {
		log.Warn().Str("module", "core.connections").Str("cid", string(cid)).Msg("duplicate registration ignored")
		return ErrDuplicateConnection
	}
	r.conns[cid] = &connEntry{Identity: identity, DisplayName: name, Signal: sig}
	log.Info().Str("module", "core.connections").Str("cid", string(cid)).Str("identity", string(identity)).Msg("registered connection")
	return nil
}

func (r *ConnectionRegistry) Lookup(cid ConnectionID) (ConnectionInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok {
		return ConnectionInfo{}, ErrNotFound
	}
	return ConnectionInfo{
		ID:          cid,
		Identity:    e.Identity,
		DisplayName: e.DisplayName,
		Signal:      e.Signal,
		StreamID:    e.StreamID,
	}, nil
}

// Unregister forgets the connection and returns the memberships it held.
// A second call for the same id returns nil.
func (r *ConnectionRegistry) Unregister(cid ConnectionID) []Association {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return nil
	}
	delete(r.conns, cid)
	log.Info().Str("module", "core.connections").Str("cid", string(cid)).Msg("unregistered connection")
	if e.StreamID == "" {
		return []Association{}
	}
	return []Association{{StreamID: e.StreamID, Identity: e.Identity}}
}

// Associate records that cid is now a member of streamID and returns the
// stream it was previously associated with, if any.
func (r *ConnectionRegistry) Associate(cid ConnectionID, streamID domain.StreamID) (domain.StreamID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return "", false
	}
	prev := e.StreamID
	e.StreamID = streamID
	return prev, true
}

// Dissociate clears the association only if it still points at streamID.
func (r *ConnectionRegistry) Dissociate(cid ConnectionID, streamID domain.StreamID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok && e.StreamID == streamID {
		e.StreamID = ""
	}
}

func (r *ConnectionRegistry) Rename(cid ConnectionID, name domain.DisplayName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	e.DisplayName = name
	return true
}

func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
