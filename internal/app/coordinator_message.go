package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

// SendMessage persists a room message and broadcasts the stored form to
// every current member, sender included, so all clients render the one
// authoritative echo.
func (c *Coordinator) SendMessage(ctx context.Context, conn core.Connection, content string, room domain.RoomName, fileURL string, fileType domain.FileType) {
	entry, ok := c.authed(conn)
	if !ok {
		return
	}
	if room == "" {
		room = domain.DefaultRoom
	}
	if err := room.Validate(); err != nil {
		c.send(conn, errEvent(err.Error()))
		return
	}

	msg := domain.Message{
		ID:         uuid.New(),
		SenderID:   entry.User.ID,
		SenderName: entry.User.Username,
		Content:    content,
		Room:       room,
		FileURL:    fileURL,
		FileType:   fileType,
		CreatedAt:  time.Now().UTC(),
	}
	if err := msg.Validate(); err != nil {
		c.send(conn, errEvent(err.Error()))
		return
	}

	stored, err := c.messages.Persist(ctx, msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("room", string(room)).Msg("persist message")
		c.send(conn, errEvent("failed to send message"))
		return
	}

	c.fanout(c.rooms.MembersOf(room), messageEvent{Type: evReceiveMessage, Message: stored})
}

// PrivateMessage resolves the recipient against the live registry and, when
// online, persists then delivers to exactly two connections: sender and
// recipient. Offline recipients produce a sender-only error; this core does
// not mailbox.
func (c *Coordinator) PrivateMessage(ctx context.Context, conn core.Connection, recipientID domain.UserID, content string, fileURL string, fileType domain.FileType) {
	entry, ok := c.authed(conn)
	if !ok {
		return
	}
	if err := recipientID.Validate(); err != nil {
		c.send(conn, errEvent(err.Error()))
		return
	}

	recipient, online := c.registry.ByUser(recipientID)
	if !online {
		c.send(conn, errEvent(core.ErrRecipientOffline.Error()))
		return
	}

	msg := domain.Message{
		ID:          uuid.New(),
		SenderID:    entry.User.ID,
		SenderName:  entry.User.Username,
		Content:     content,
		Room:        domain.PrivateRoom(entry.User.ID, recipientID),
		Private:     true,
		RecipientID: recipientID,
		FileURL:     fileURL,
		FileType:    fileType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := msg.Validate(); err != nil {
		c.send(conn, errEvent(err.Error()))
		return
	}

	stored, err := c.messages.Persist(ctx, msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("persist private message")
		c.send(conn, errEvent("failed to send private message"))
		return
	}

	ev := messageEvent{Type: evPrivateMessage, Message: stored}
	c.send(conn, ev)
	if recipient.Conn.ID() != conn.ID() {
		c.send(recipient.Conn, ev)
	}
}

// Reaction appends a reaction through the store and fans the updated counts
// out to the message's own room; the client never chooses the audience. A
// store failure reaches the actor only; nothing is broadcast for an update
// that did not persist.
func (c *Coordinator) Reaction(ctx context.Context, conn core.Connection, messageID uuid.UUID, kind domain.ReactionKind) {
	entry, ok := c.authed(conn)
	if !ok {
		return
	}
	if !kind.Valid() {
		c.send(conn, errEvent(domain.ErrInvalidReaction.Error()))
		return
	}

	msg, err := c.messages.AppendReaction(ctx, messageID, kind)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("message", messageID.String()).Msg("append reaction")
		c.send(conn, errEvent("failed to add reaction"))
		return
	}

	c.notifyMessageRoom(msg, notificationEvent{
		Type: evNotification,
		Kind: "reaction",
		Data: struct {
			MessageID uuid.UUID        `json:"message_id"`
			Room      domain.RoomName  `json:"room"`
			Reactions domain.Reactions `json:"reactions"`
			By        domain.UserID    `json:"by"`
		}{messageID, msg.Room, msg.Reactions, entry.User.ID},
	})
}

// Reply appends a threaded reply and fans it out to the message's room.
func (c *Coordinator) Reply(ctx context.Context, conn core.Connection, messageID uuid.UUID, content string) {
	entry, ok := c.authed(conn)
	if !ok {
		return
	}
	reply := domain.Reply{
		ID:         uuid.New(),
		SenderID:   entry.User.ID,
		SenderName: entry.User.Username,
		Content:    content,
		At:         time.Now().UTC(),
	}
	if reply.Content == "" {
		c.send(conn, errEvent(domain.ErrEmptyMessage.Error()))
		return
	}

	msg, err := c.messages.AppendReply(ctx, messageID, reply)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("message", messageID.String()).Msg("append reply")
		c.send(conn, errEvent("failed to add reply"))
		return
	}

	c.notifyMessageRoom(msg, notificationEvent{
		Type: evNotification,
		Kind: "reply",
		Data: struct {
			MessageID uuid.UUID       `json:"message_id"`
			Room      domain.RoomName `json:"room"`
			Reply     domain.Reply    `json:"reply"`
		}{messageID, msg.Room, reply},
	})
}

// notifyMessageRoom routes an annotation update to the message's audience.
// The directory never tracks private rooms, so a private message's update
// goes straight to its two participants' live connections.
func (c *Coordinator) notifyMessageRoom(msg domain.Message, ev any) {
	if !msg.Room.IsPrivate() {
		c.fanout(c.rooms.MembersOf(msg.Room), ev)
		return
	}
	c.sendToUser(msg.SenderID, ev)
	if msg.RecipientID != msg.SenderID {
		c.sendToUser(msg.RecipientID, ev)
	}
}

// sendToUser delivers to the user's live connection, if any.
func (c *Coordinator) sendToUser(id domain.UserID, ev any) {
	if entry, ok := c.registry.ByUser(id); ok {
		c.send(entry.Conn, ev)
	}
}

// MarkRead records read receipts for a room (or, via otherUser, a private
// pair) and notifies only the room's current members — for a private pair,
// the two participants; receipts never fan out globally.
func (c *Coordinator) MarkRead(ctx context.Context, conn core.Connection, room domain.RoomName, otherUser domain.UserID) {
	entry, ok := c.authed(conn)
	if !ok {
		return
	}
	if otherUser != "" {
		if err := otherUser.Validate(); err != nil {
			c.send(conn, errEvent(err.Error()))
			return
		}
		room = domain.PrivateRoom(entry.User.ID, otherUser)
	}
	if room == "" {
		room = domain.DefaultRoom
	}
	if !room.IsPrivate() {
		if err := room.Validate(); err != nil {
			c.send(conn, errEvent(err.Error()))
			return
		}
	}

	if err := c.messages.MarkRead(ctx, room, entry.User.ID); err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("room", string(room)).Msg("mark read")
		c.send(conn, errEvent("failed to mark messages read"))
		return
	}

	ev := notificationEvent{
		Type: evNotification,
		Kind: "read",
		Data: struct {
			Room   domain.RoomName `json:"room"`
			Reader domain.UserID   `json:"reader"`
			At     time.Time       `json:"at"`
		}{room, entry.User.ID, time.Now().UTC()},
	}
	if room.IsPrivate() {
		// The directory has no member set for private rooms; deliver to the
		// reader and the counterpart directly.
		c.send(conn, ev)
		if other, ok := c.registry.ByUser(otherUser); ok && other.Conn.ID() != conn.ID() {
			c.send(other.Conn, ev)
		}
		return
	}
	c.fanout(c.rooms.MembersOf(room), ev)
}
