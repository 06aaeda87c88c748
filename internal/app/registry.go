package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"collabide/server/internal/domain"
)

// Conn is the transport handle a registry entry owns. Close must be
// idempotent: the owning adapter, the router's pruning, and a displacing
// Register may each call it.
type Conn interface {
	TrySend(payload []byte) error
	Close()
}

type Snapshot struct {
	ID   domain.ParticipantID
	Conn Conn
}

// Registry indexes the live connections of ONE process:
// room id -> participant id -> connection handle. It is never a source of
// truth across instances; every process maintains its own.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.ParticipantID]Conn
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]map[domain.ParticipantID]Conn)}
}

// Register stores conn as the participant's live handle. A previous handle
// under the same ids is displaced and closed, so a quick reconnect does not
// leave a stale session receiving the room's broadcasts.
func (r *Registry) Register(room domain.RoomID, user domain.ParticipantID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers, ok := r.rooms[room]
	if !ok {
		peers = make(map[domain.ParticipantID]Conn)
		r.rooms[room] = peers
	}
	if prev, ok := peers[user]; ok && prev != conn {
		log.Warn().Str("module", "app.registry").Str("room", string(room)).Str("user", string(user)).Msg("displacing stale connection")
		prev.Close()
	}
	peers[user] = conn
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("user", string(user)).Int("local", len(peers)).Msg("registered connection")
}

// Unregister removes the entry only if conn is still the registered handle,
// so the teardown of a displaced session cannot evict its replacement.
// removed reports whether this call evicted the entry; emptied reports
// whether the room's local set became empty, signaling the caller to drop
// local-only bookkeeping. The persisted room record is untouched.
func (r *Registry) Unregister(room domain.RoomID, user domain.ParticipantID, conn Conn) (removed, emptied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers, ok := r.rooms[room]
	if !ok {
		return false, false
	}
	cur, ok := peers[user]
	if !ok || cur != conn {
		return false, false
	}
	delete(peers, user)
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("user", string(user)).Int("local", len(peers)).Msg("unregistered connection")
	if len(peers) == 0 {
		delete(r.rooms, room)
		return true, true
	}
	return true, false
}

// Participants returns a snapshot of the room's current connections so
// callers can iterate without holding the lock.
func (r *Registry) Participants(room domain.RoomID) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peers := r.rooms[room]
	out := make([]Snapshot, 0, len(peers))
	for id, conn := range peers {
		out = append(out, Snapshot{ID: id, Conn: conn})
	}
	return out
}

func (r *Registry) Count(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
