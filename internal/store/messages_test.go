package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

func testDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMessagesRecentOldestFirstWithLimit(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err := s.Persist(ctx, domain.Message{
			SenderID:   "u1",
			SenderName: "alice",
			Content:    fmt.Sprintf("msg %d", i),
			Room:       "general",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		req.NoError(err)
	}

	got, err := s.Recent(ctx, "general", 3)
	req.NoError(err)
	req.Len(got, 3)
	req.Equal("msg 2", got[0].Content)
	req.Equal("msg 4", got[2].Content)
}

func TestMessagesRecentIsolatedPerRoom(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	_, err := s.Persist(ctx, domain.Message{SenderID: "u1", Content: "a", Room: "one"})
	req.NoError(err)
	_, err = s.Persist(ctx, domain.Message{SenderID: "u1", Content: "b", Room: "two"})
	req.NoError(err)

	got, err := s.Recent(ctx, "one", 10)
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("a", got[0].Content)
}

func TestMessagesAppendReaction(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	stored, err := s.Persist(ctx, domain.Message{SenderID: "u1", Content: "x", Room: "general"})
	req.NoError(err)

	msg, err := s.AppendReaction(ctx, stored.ID, domain.ReactionLaugh)
	req.NoError(err)
	req.Equal(1, msg.Reactions.Laugh)

	msg, err = s.AppendReaction(ctx, stored.ID, domain.ReactionLaugh)
	req.NoError(err)
	req.Equal(2, msg.Reactions.Laugh)
	req.Equal(domain.RoomName("general"), msg.Room)

	_, err = s.AppendReaction(ctx, stored.ID, "sparkle")
	req.ErrorIs(err, domain.ErrInvalidReaction)

	_, err = s.AppendReaction(ctx, uuid.New(), domain.ReactionLike)
	req.ErrorIs(err, core.ErrMessageNotFound)
}

func TestMessagesAppendReply(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	stored, err := s.Persist(ctx, domain.Message{SenderID: "u1", Content: "x", Room: "general"})
	req.NoError(err)

	msg, err := s.AppendReply(ctx, stored.ID, domain.Reply{SenderID: "u2", SenderName: "bob", Content: "indeed"})
	req.NoError(err)
	req.Len(msg.Replies, 1)
	req.NotEqual(uuid.Nil, msg.Replies[0].ID)
	req.False(msg.Replies[0].At.IsZero())

	got, err := s.Recent(ctx, "general", 1)
	req.NoError(err)
	req.Len(got[0].Replies, 1)
	req.Equal("indeed", got[0].Replies[0].Content)
}

func TestMessagesMarkReadSkipsOwnAndIsIdempotent(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	_, err := s.Persist(ctx, domain.Message{SenderID: "u1", Content: "from alice", Room: "general"})
	req.NoError(err)
	_, err = s.Persist(ctx, domain.Message{SenderID: "u2", Content: "from bob", Room: "general"})
	req.NoError(err)

	req.NoError(s.MarkRead(ctx, "general", "u1"))
	req.NoError(s.MarkRead(ctx, "general", "u1"))

	got, err := s.Recent(ctx, "general", 10)
	req.NoError(err)
	req.Empty(got[0].ReadBy) // own message untouched
	req.Len(got[1].ReadBy, 1)
	req.Equal(domain.UserID("u1"), got[1].ReadBy[0].UserID)
}

func TestMessagesPrivatePairHistory(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	room := domain.PrivateRoom("u1", "u2")
	_, err := s.Persist(ctx, domain.Message{SenderID: "u1", RecipientID: "u2", Private: true, Content: "hey", Room: room})
	req.NoError(err)

	// Both directions resolve the same history.
	got, err := s.Recent(ctx, domain.PrivateRoom("u2", "u1"), 10)
	req.NoError(err)
	req.Len(got, 1)
}

func TestMessagesPrivatePairPrefixIsolation(t *testing.T) {
	req := require.New(t)
	s := NewMessages(testDB(t))
	ctx := context.Background()

	// Private room names legitimately contain the key separator; the pair
	// (u1, u2) scan must not pick up (u1, u22)'s messages.
	_, err := s.Persist(ctx, domain.Message{SenderID: "u1", RecipientID: "u2", Private: true, Content: "for u2", Room: domain.PrivateRoom("u1", "u2")})
	req.NoError(err)
	_, err = s.Persist(ctx, domain.Message{SenderID: "u1", RecipientID: "u22", Private: true, Content: "for u22", Room: domain.PrivateRoom("u1", "u22")})
	req.NoError(err)

	got, err := s.Recent(ctx, domain.PrivateRoom("u1", "u2"), 10)
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("for u2", got[0].Content)

	req.NoError(s.MarkRead(ctx, domain.PrivateRoom("u1", "u2"), "u2"))
	other, err := s.Recent(ctx, domain.PrivateRoom("u1", "u22"), 10)
	req.NoError(err)
	req.Empty(other[0].ReadBy)
}
