package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/domain"
)

// Directory maps room names to their current member entries. It holds
// non-owning references into the registry and never outlives them: disconnect
// cleanup calls RemoveEverywhere before the entry is dropped.
//
// Membership is only tracked for non-private rooms; private-room membership
// is implicit, derived from a message's sender and recipient.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]map[*PresenceEntry]struct{}
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomName]map[*PresenceEntry]struct{})}
}

// Join adds entry to room, first removing it from any previously joined
// non-private room. The previous room is returned so the caller can notify
// it of the departure.
func (d *Directory) Join(room domain.RoomName, entry *PresenceEntry) (domain.RoomName, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, hadPrev := entry.CurrentRoom()
	if hadPrev && prev != room {
		d.remove(prev, entry)
	}
	if hadPrev && prev == room {
		hadPrev = false
	}

	members, ok := d.rooms[room]
	if !ok {
		members = make(map[*PresenceEntry]struct{})
		d.rooms[room] = members
	}
	members[entry] = struct{}{}
	entry.addRoom(room)
	log.Debug().Str("module", "app.rooms").Str("room", string(room)).Str("user", string(entry.User.ID)).Msg("joined")
	return prev, hadPrev
}

// Leave removes entry from room's member set. No-op if absent.
func (d *Directory) Leave(room domain.RoomName, entry *PresenceEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remove(room, entry)
}

// MembersOf returns a point-in-time snapshot of room's members. Broadcasts
// over the snapshot are best effort: members leaving mid-broadcast simply
// fail their send.
func (d *Directory) MembersOf(room domain.RoomName) []*PresenceEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	members := d.rooms[room]
	out := make([]*PresenceEntry, 0, len(members))
	for entry := range members {
		out = append(out, entry)
	}
	return out
}

// RemoveEverywhere drops entry from every room it occupies and returns the
// affected room names for departure notification. Called exactly once during
// disconnect cleanup.
func (d *Directory) RemoveEverywhere(entry *PresenceEntry) []domain.RoomName {
	d.mu.Lock()
	defer d.mu.Unlock()
	affected := entry.Rooms()
	for _, room := range affected {
		d.remove(room, entry)
	}
	return affected
}

// remove expects d.mu held.
func (d *Directory) remove(room domain.RoomName, entry *PresenceEntry) {
	members, ok := d.rooms[room]
	if !ok {
		entry.removeRoom(room)
		return
	}
	delete(members, entry)
	entry.removeRoom(room)
	if len(members) == 0 {
		delete(d.rooms, room)
	}
}
