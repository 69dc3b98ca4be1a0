package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

// PresenceEntry binds an open, authenticated connection to its verified
// identity and current room memberships. Created by Register, destroyed by
// Unregister; it exists iff the connection is open and authenticated.
type PresenceEntry struct {
	Conn core.Connection
	User domain.User

	mu    sync.Mutex
	rooms map[domain.RoomName]struct{}
}

func newPresenceEntry(conn core.Connection, user domain.User) *PresenceEntry {
	return &PresenceEntry{
		Conn:  conn,
		User:  user,
		rooms: make(map[domain.RoomName]struct{}),
	}
}

// Rooms returns a snapshot of the entry's current memberships.
func (e *PresenceEntry) Rooms() []domain.RoomName {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.RoomName, 0, len(e.rooms))
	for name := range e.rooms {
		out = append(out, name)
	}
	return out
}

// CurrentRoom returns the entry's non-private room, if it has one.
func (e *PresenceEntry) CurrentRoom() (domain.RoomName, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name := range e.rooms {
		if !name.IsPrivate() {
			return name, true
		}
	}
	return "", false
}

func (e *PresenceEntry) addRoom(name domain.RoomName) {
	e.mu.Lock()
	e.rooms[name] = struct{}{}
	e.mu.Unlock()
}

func (e *PresenceEntry) removeRoom(name domain.RoomName) {
	e.mu.Lock()
	delete(e.rooms, name)
	e.mu.Unlock()
}

// Registry is the single source of truth for who is online. It exclusively
// owns PresenceEntry records; the room directory only holds references into
// them.
type Registry struct {
	mu     sync.RWMutex
	byConn map[core.ConnID]*PresenceEntry
	byUser map[domain.UserID]core.ConnID
	order  []core.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[core.ConnID]*PresenceEntry),
		byUser: make(map[domain.UserID]core.ConnID),
	}
}

// Register creates the presence entry for conn. A connection that already
// holds an entry is rejected with core.ErrDuplicateSession, not merged.
// If the same user authenticates on a second connection, private delivery
// resolves to the most recent one.
func (r *Registry) Register(conn core.Connection, user domain.User) (*PresenceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[conn.ID()]; ok {
		return nil, core.ErrDuplicateSession
	}
	entry := newPresenceEntry(conn, user)
	r.byConn[conn.ID()] = entry
	r.byUser[user.ID] = conn.ID()
	r.order = append(r.order, conn.ID())
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).Str("user", string(user.ID)).Msg("registered")
	return entry, nil
}

// Unregister removes the entry for id. Idempotent: the second and later
// calls report false, which gates every disconnect-time notification to run
// exactly once. A broadcast that snapshotted the entry before this call may
// still attempt a send; the closed connection absorbs it.
func (r *Registry) Unregister(id core.ConnID) (*PresenceEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byConn[id]
	if !ok {
		return nil, false
	}
	delete(r.byConn, id)
	if r.byUser[entry.User.ID] == id {
		delete(r.byUser, entry.User.ID)
	}
	for i, cid := range r.order {
		if cid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unregistered")
	return entry, true
}

func (r *Registry) Lookup(id core.ConnID) (*PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byConn[id]
	return entry, ok
}

// ByUser resolves a live presence entry by user identity.
func (r *Registry) ByUser(id domain.UserID) (*PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cid, ok := r.byUser[id]
	if !ok {
		return nil, false
	}
	entry, ok := r.byConn[cid]
	return entry, ok
}

// Snapshot returns all entries in registration order, for the online listing.
func (r *Registry) Snapshot() []*PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*PresenceEntry, 0, len(r.order))
	for _, cid := range r.order {
		if entry, ok := r.byConn[cid]; ok {
			out = append(out, entry)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
