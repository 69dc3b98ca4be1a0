package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

var errStoreDown = errors.New("store down")

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// fakeConn captures every frame the coordinator sends to it.
type fakeConn struct {
	id core.ConnID

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: core.ConnID(id)}
}

func (c *fakeConn) ID() core.ConnID { return c.id }

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.frames = append(c.frames, append([]byte{}, f...))
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// events decodes the captured frames into generic maps.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("bad frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

// eventTypes returns just the type tags, in send order.
func (c *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	events := c.events(t)
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev["type"].(string))
	}
	return out
}

func (c *fakeConn) countType(t *testing.T, typ string) int {
	t.Helper()
	n := 0
	for _, got := range c.eventTypes(t) {
		if got == typ {
			n++
		}
	}
	return n
}

type fakeIdentity struct {
	mu      sync.Mutex
	users   map[string]domain.User // token -> user
	online  map[domain.UserID]bool
	markErr error
}

func newFakeIdentity(users map[string]domain.User) *fakeIdentity {
	return &fakeIdentity{users: users, online: make(map[domain.UserID]bool)}
}

func (f *fakeIdentity) VerifyToken(_ context.Context, token string) (*domain.User, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, core.ErrInvalidToken
	}
	return &user, nil
}

func (f *fakeIdentity) MarkOnline(_ context.Context, id domain.UserID, _ core.ConnID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[id] = true
	return f.markErr
}

func (f *fakeIdentity) MarkOffline(_ context.Context, id domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[id] = false
	return f.markErr
}

type fakeMessages struct {
	mu        sync.Mutex
	persisted []domain.Message
	byID      map[uuid.UUID]domain.Message
	backlog   map[domain.RoomName][]domain.Message
	reads     map[domain.RoomName][]domain.UserID
	fail      bool
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		byID:    make(map[uuid.UUID]domain.Message),
		backlog: make(map[domain.RoomName][]domain.Message),
		reads:   make(map[domain.RoomName][]domain.UserID),
	}
}

func (f *fakeMessages) Persist(_ context.Context, msg domain.Message) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.Message{}, errStoreDown
	}
	f.persisted = append(f.persisted, msg)
	f.byID[msg.ID] = msg
	return msg, nil
}

func (f *fakeMessages) Recent(_ context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	msgs := f.backlog[room]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakeMessages) AppendReaction(_ context.Context, id uuid.UUID, kind domain.ReactionKind) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.Message{}, errStoreDown
	}
	msg, ok := f.byID[id]
	if !ok {
		return domain.Message{}, core.ErrMessageNotFound
	}
	msg.Reactions.Add(kind)
	f.byID[id] = msg
	return msg, nil
}

func (f *fakeMessages) AppendReply(_ context.Context, id uuid.UUID, reply domain.Reply) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.Message{}, errStoreDown
	}
	msg, ok := f.byID[id]
	if !ok {
		return domain.Message{}, core.ErrMessageNotFound
	}
	msg.Replies = append(msg.Replies, reply)
	f.byID[id] = msg
	return msg, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, room domain.RoomName, reader domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	f.reads[room] = append(f.reads[room], reader)
	return nil
}

func (f *fakeMessages) persistedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.persisted)
}

type fakeRoomStore struct {
	mu      sync.Mutex
	members map[domain.RoomName][]domain.UserID
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{members: make(map[domain.RoomName][]domain.UserID)}
}

func (f *fakeRoomStore) ListPublic(context.Context) ([]domain.Room, error) { return nil, nil }

func (f *fakeRoomStore) Create(_ context.Context, room domain.Room) (domain.Room, error) {
	return room, nil
}

func (f *fakeRoomStore) RecordMembership(_ context.Context, room domain.RoomName, user domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[room] = append(f.members[room], user)
	return nil
}

// newTestCoordinator wires a coordinator over fakes with two known users.
func newTestCoordinator() (*Coordinator, *fakeIdentity, *fakeMessages, *fakeRoomStore) {
	identity := newFakeIdentity(map[string]domain.User{
		"token-alice": {ID: "u-alice", Username: "alice"},
		"token-bob":   {ID: "u-bob", Username: "bob"},
		"token-carol": {ID: "u-carol", Username: "carol"},
	})
	messages := newFakeMessages()
	rooms := newFakeRoomStore()
	return NewCoordinator(identity, messages, rooms), identity, messages, rooms
}
