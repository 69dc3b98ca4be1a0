package app

import (
	"sort"
	"sync"

	"github.com/avess/huddle/internal/domain"
)

// TypingState tracks which display names are typing per room. Entries change
// only on explicit typing/stop events and on disconnect, which counts as an
// implicit stop; there is no server-side TTL.
type TypingState struct {
	mu    sync.Mutex
	rooms map[domain.RoomName]map[string]struct{}
}

func NewTypingState() *TypingState {
	return &TypingState{rooms: make(map[domain.RoomName]map[string]struct{})}
}

func (t *TypingState) Set(room domain.RoomName, name string, active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if active {
		names, ok := t.rooms[room]
		if !ok {
			names = make(map[string]struct{})
			t.rooms[room] = names
		}
		names[name] = struct{}{}
		return
	}
	t.clear(room, name)
}

// Names returns the typing display names for room, sorted for stable output.
func (t *TypingState) Names(room domain.RoomName) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.rooms[room]))
	for name := range t.rooms[room] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ClearUser drops name from every room. Used on disconnect; no stop event is
// broadcast for it.
func (t *TypingState) ClearUser(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for room := range t.rooms {
		t.clear(room, name)
	}
}

// clear expects t.mu held.
func (t *TypingState) clear(room domain.RoomName, name string) {
	names, ok := t.rooms[room]
	if !ok {
		return
	}
	delete(names, name)
	if len(names) == 0 {
		delete(t.rooms, room)
	}
}
