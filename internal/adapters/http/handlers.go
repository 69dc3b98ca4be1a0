package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/auth"
	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

const defaultHistoryLimit = 20

// UserDirectory resolves the acting user's identity record.
type UserDirectory interface {
	Get(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// RestHandlers serves the room catalog and message history. Real-time
// traffic goes over the socket; this surface covers discovery and catch-up.
type RestHandlers struct {
	Messages core.MessageStore
	Rooms    core.RoomStore
	Users    UserDirectory
}

func NewRestHandlers(messages core.MessageStore, rooms core.RoomStore, users UserDirectory) *RestHandlers {
	return &RestHandlers{Messages: messages, Rooms: rooms, Users: users}
}

func (h *RestHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.ListPublic(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *RestHandlers) CreateRoom(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=36"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}

	room, err := h.Rooms.Create(c.Request.Context(), domain.Room{
		Name:        domain.RoomName(req.Name),
		Description: req.Description,
		CreatedBy:   domain.UserID(auth.UserID(c)),
	})
	switch {
	case errors.Is(err, core.ErrDuplicateRoom):
		c.JSON(http.StatusConflict, gin.H{"error": "room already exists"})
	case errors.Is(err, domain.ErrRoomNameReserved), errors.Is(err, domain.ErrRoomNameEmpty), errors.Is(err, domain.ErrRoomNameTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	default:
		c.JSON(http.StatusCreated, room)
	}
}

func (h *RestHandlers) JoinRoom(c *gin.Context) {
	room := domain.RoomName(c.Param("name"))
	if err := room.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Rooms.RecordMembership(c.Request.Context(), room, domain.UserID(auth.UserID(c))); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("record membership")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined room"})
}

// History returns recent messages for a room, or for the caller's private
// pair when user_id is given. Fetching marks the returned window read.
func (h *RestHandlers) History(c *gin.Context) {
	me := domain.UserID(auth.UserID(c))

	room := domain.RoomName(c.Query("room"))
	if other := c.Query("user_id"); other != "" {
		if err := domain.UserID(other).Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		room = domain.PrivateRoom(me, domain.UserID(other))
	} else if room != "" {
		if err := room.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if room == "" {
		room = domain.DefaultRoom
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	messages, err := h.Messages.Recent(c.Request.Context(), room, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if err := h.Messages.MarkRead(c.Request.Context(), room, me); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("mark read on fetch")
	}
	c.JSON(http.StatusOK, messages)
}

func (h *RestHandlers) AddReaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	var req struct {
		Reaction string `json:"reaction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing reaction"})
		return
	}
	kind := domain.ReactionKind(req.Reaction)
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reaction type"})
		return
	}

	msg, err := h.Messages.AppendReaction(c.Request.Context(), id, kind)
	switch {
	case errors.Is(err, core.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("append reaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"reactions": msg.Reactions})
	}
}

func (h *RestHandlers) AddReply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing content"})
		return
	}

	me := domain.UserID(auth.UserID(c))
	user, err := h.Users.Get(c.Request.Context(), me)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", string(me)).Msg("resolve reply sender")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	msg, err := h.Messages.AppendReply(c.Request.Context(), id, domain.Reply{
		SenderID:   me,
		SenderName: user.Username,
		Content:    req.Content,
	})
	switch {
	case errors.Is(err, core.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("append reply")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"reply": msg.Replies[len(msg.Replies)-1]})
	}
}
