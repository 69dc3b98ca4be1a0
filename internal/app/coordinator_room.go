package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

// JoinRoom switches the connection's non-private room, replays the new
// room's backlog to the joiner only, and notifies both rooms' members.
func (c *Coordinator) JoinRoom(ctx context.Context, conn core.Connection, room domain.RoomName) {
	entry, ok := c.authed(conn)
	if !ok {
		return
	}
	if err := room.Validate(); err != nil {
		c.send(conn, errEvent(err.Error()))
		return
	}

	prev, hadPrev := c.rooms.Join(room, entry)

	if err := c.catalog.RecordMembership(ctx, room, entry.User.ID); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("room", string(room)).Msg("record membership")
	}

	backlog, err := c.messages.Recent(ctx, room, c.backlog)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("room", string(room)).Msg("load backlog")
		c.send(conn, errEvent("failed to load room history"))
	} else {
		c.send(conn, roomMessagesEvent{Type: evRoomMessages, Room: room, Messages: backlog})
	}

	c.fanout(exclude(c.rooms.MembersOf(room), entry),
		roomPresenceEvent{Type: evUserJoinedRoom, Room: room, User: entry.User})

	if hadPrev {
		c.fanout(c.rooms.MembersOf(prev), notificationEvent{
			Type: evNotification,
			Kind: "user_left_room",
			Data: roomPresenceEvent{Room: prev, User: entry.User},
		})
	}
}

// Typing fans a typing indicator out to the room, including the sender, so
// every client renders the indicator from the same authoritative event.
// Unauthenticated senders are dropped silently: typing has no error path.
func (c *Coordinator) Typing(conn core.Connection, room domain.RoomName, active bool) {
	entry, ok := c.registry.Lookup(conn.ID())
	if !ok {
		return
	}
	if room == "" {
		room = domain.DefaultRoom
	}

	c.typing.Set(room, entry.User.Username, active)

	typ := evUserTyping
	if !active {
		typ = evUserStopTyping
	}
	c.fanout(c.rooms.MembersOf(room), typingEvent{Type: typ, Room: room, Username: entry.User.Username})
}
