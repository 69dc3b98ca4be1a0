package app

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

var validate = validator.New()

// Inbound event type strings.
const (
	inAuthenticate   = "authenticate"
	inJoinRoom       = "join_room"
	inSendMessage    = "send_message"
	inPrivateMessage = "private_message"
	inTyping         = "typing"
	inStopTyping     = "stop_typing"
	inReaction       = "reaction"
	inReply          = "reply"
	inMarkRead       = "mark_read"
)

type authenticatePayload struct {
	Token string `json:"token" validate:"required"`
}

type joinRoomPayload struct {
	Room string `json:"room" validate:"required,max=36"`
}

type sendMessagePayload struct {
	Content  string `json:"content"`
	Room     string `json:"room" validate:"max=36"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type" validate:"omitempty,oneof=image document audio video"`
}

type privateMessagePayload struct {
	RecipientID string `json:"recipient_id" validate:"required,max=36"`
	Content     string `json:"content"`
	FileURL     string `json:"file_url"`
	FileType    string `json:"file_type" validate:"omitempty,oneof=image document audio video"`
}

type typingPayload struct {
	Room string `json:"room" validate:"max=36"`
}

// Reaction and reply payloads name only the message; the update's audience
// is the stored message's room.
type reactionPayload struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	Kind      string `json:"kind" validate:"required"`
}

type replyPayload struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	Content   string `json:"content" validate:"required"`
}

type markReadPayload struct {
	Room   string `json:"room" validate:"max=36"`
	UserID string `json:"user_id" validate:"max=36"`
}

// Dispatch decodes one inbound frame and routes it to the matching
// coordinator operation. Frames from the same connection arrive here from a
// single read loop, so per-connection processing order is the wire order.
func (c *Coordinator) Dispatch(ctx context.Context, conn core.Connection, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "app.dispatch").Str("conn", string(conn.ID())).Msg("bad frame")
		c.send(conn, errEvent("bad payload"))
		return
	}

	switch env.Type {
	case inAuthenticate:
		var p authenticatePayload
		if !c.decode(conn, data, &p) {
			return
		}
		c.Authenticate(ctx, conn, p.Token)

	case inJoinRoom:
		var p joinRoomPayload
		if !c.decode(conn, data, &p) {
			return
		}
		c.JoinRoom(ctx, conn, domain.RoomName(p.Room))

	case inSendMessage:
		var p sendMessagePayload
		if !c.decode(conn, data, &p) {
			return
		}
		c.SendMessage(ctx, conn, p.Content, domain.RoomName(p.Room), p.FileURL, domain.FileType(p.FileType))

	case inPrivateMessage:
		var p privateMessagePayload
		if !c.decode(conn, data, &p) {
			return
		}
		c.PrivateMessage(ctx, conn, domain.UserID(p.RecipientID), p.Content, p.FileURL, domain.FileType(p.FileType))

	case inTyping, inStopTyping:
		var p typingPayload
		if !c.decode(conn, data, &p) {
			return
		}
		c.Typing(conn, domain.RoomName(p.Room), env.Type == inTyping)

	case inReaction:
		var p reactionPayload
		if !c.decode(conn, data, &p) {
			return
		}
		id, err := uuid.Parse(p.MessageID)
		if err != nil {
			c.send(conn, errEvent("bad payload"))
			return
		}
		c.Reaction(ctx, conn, id, domain.ReactionKind(p.Kind))

	case inReply:
		var p replyPayload
		if !c.decode(conn, data, &p) {
			return
		}
		id, err := uuid.Parse(p.MessageID)
		if err != nil {
			c.send(conn, errEvent("bad payload"))
			return
		}
		c.Reply(ctx, conn, id, p.Content)

	case inMarkRead:
		var p markReadPayload
		if !c.decode(conn, data, &p) {
			return
		}
		c.MarkRead(ctx, conn, domain.RoomName(p.Room), domain.UserID(p.UserID))

	default:
		log.Warn().Str("module", "app.dispatch").Str("type", env.Type).Msg("unknown event")
		c.send(conn, errEvent("unknown event type"))
	}
}

// decode unmarshals and validates one payload, answering the sender with a
// bad-payload error on failure.
func (c *Coordinator) decode(conn core.Connection, data []byte, p any) bool {
	if err := json.Unmarshal(data, p); err != nil {
		log.Debug().Err(err).Str("module", "app.dispatch").Msg("unmarshal payload")
		c.send(conn, errEvent("bad payload"))
		return false
	}
	if err := validate.Struct(p); err != nil {
		log.Debug().Err(err).Str("module", "app.dispatch").Msg("invalid payload")
		c.send(conn, errEvent("bad payload"))
		return false
	}
	return true
}
