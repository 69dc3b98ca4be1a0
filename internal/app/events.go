package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

// Outbound event type strings. One envelope per wire event; every payload
// carries its own "type" field so clients dispatch on a single tag.
const (
	evAuthenticated  = "authenticated"
	evAuthError      = "authentication_error"
	evUserList       = "user_list"
	evUserJoined     = "user_joined"
	evUserLeft       = "user_left"
	evRoomMessages   = "room_messages"
	evUserJoinedRoom = "user_joined_room"
	evReceiveMessage = "receive_message"
	evPrivateMessage = "private_message"
	evUserTyping     = "user_typing"
	evUserStopTyping = "user_stop_typing"
	evNotification   = "notification"
	evError          = "error"
)

type authenticatedEvent struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
}

type userListEvent struct {
	Type  string        `json:"type"`
	Users []domain.User `json:"users"`
}

type presenceEvent struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
}

type roomMessagesEvent struct {
	Type     string           `json:"type"`
	Room     domain.RoomName  `json:"room"`
	Messages []domain.Message `json:"messages"`
}

type roomPresenceEvent struct {
	Type string          `json:"type"`
	Room domain.RoomName `json:"room"`
	User domain.User     `json:"user"`
}

type messageEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type typingEvent struct {
	Type     string          `json:"type"`
	Room     domain.RoomName `json:"room"`
	Username string          `json:"username"`
}

type notificationEvent struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

type errorEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func errEvent(reason string) errorEvent {
	return errorEvent{Type: evError, Reason: reason}
}

// send encodes v and hands it to the connection. A failed send is the
// expected slow-consumer or already-closed case; it never aborts the caller.
func (c *Coordinator) send(conn core.Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("marshal outbound event")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Debug().Err(err).Str("module", "app.events").Str("conn", string(conn.ID())).Msg("send dropped")
	}
}

// fanout delivers one encoded event to every target connection. The target
// set is always a snapshot copied out under the directory or registry lock;
// no lock is held here. Slow or closed targets drop the frame and are
// reported to the backpressure policy.
func (c *Coordinator) fanout(targets []*PresenceEntry, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("marshal fanout event")
		return
	}
	for _, entry := range targets {
		if err := entry.Conn.TrySend(data); err != nil {
			if c.policy.OnBackpressure(entry) == KickMember {
				log.Warn().Str("module", "app.events").Str("conn", string(entry.Conn.ID())).Msg("kicking slow member")
				entry.Conn.Close()
			}
		}
	}
}

func (c *Coordinator) userList() userListEvent {
	users := lo.Map(c.registry.Snapshot(), func(e *PresenceEntry, _ int) domain.User {
		return e.User
	})
	return userListEvent{Type: evUserList, Users: users}
}

// exclude filters one entry out of a member snapshot.
func exclude(entries []*PresenceEntry, skip *PresenceEntry) []*PresenceEntry {
	return lo.Filter(entries, func(e *PresenceEntry, _ int) bool { return e != skip })
}
