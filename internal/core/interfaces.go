// Package core defines the contracts shared between the coordinator and its
// adapters: the transport-side connection and the external collaborators
// (identity, message store, room store).
package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/avess/huddle/internal/domain"
)

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// ConnID identifies one transport connection for its whole lifetime.
type ConnID string

// Connection abstracts a bidirectional transport endpoint.
// Owned by the adapter; the adapter must Close() it. TrySend never blocks:
// it fails fast when the peer is slow or the connection is closed, and
// callers fanning out over a snapshot tolerate that failure.
type Connection interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

// IdentityService verifies credential tokens and keeps the external user
// record's online flag in sync with presence.
type IdentityService interface {
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
	MarkOnline(ctx context.Context, id domain.UserID, conn ConnID) error
	MarkOffline(ctx context.Context, id domain.UserID) error
}

// MessageStore persists messages and their annotations. Recent returns the
// most recent limit messages for a room, oldest first. The append operations
// return the updated message; callers route the update by the message's own
// room, never by a caller-supplied one.
type MessageStore interface {
	Persist(ctx context.Context, msg domain.Message) (domain.Message, error)
	Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error)
	AppendReaction(ctx context.Context, id uuid.UUID, kind domain.ReactionKind) (domain.Message, error)
	AppendReply(ctx context.Context, id uuid.UUID, reply domain.Reply) (domain.Message, error)
	MarkRead(ctx context.Context, room domain.RoomName, reader domain.UserID) error
}

// RoomStore tracks discoverable rooms and durable membership records.
type RoomStore interface {
	ListPublic(ctx context.Context) ([]domain.Room, error)
	Create(ctx context.Context, room domain.Room) (domain.Room, error)
	RecordMembership(ctx context.Context, room domain.RoomName, user domain.UserID) error
}
