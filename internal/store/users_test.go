package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

func TestUsersPutGet(t *testing.T) {
	req := require.New(t)
	s := NewUsers(testDB(t))
	ctx := context.Background()

	req.NoError(s.Put(ctx, domain.User{ID: "u1", Username: "alice"}))

	got, err := s.Get(ctx, "u1")
	req.NoError(err)
	req.Equal("alice", got.Username)

	_, err = s.Get(ctx, "nope")
	req.ErrorIs(err, core.ErrUserNotFound)
}

func TestUsersSetOnline(t *testing.T) {
	req := require.New(t)
	db := testDB(t)
	s := NewUsers(db)
	ctx := context.Background()

	req.NoError(s.Put(ctx, domain.User{ID: "u1", Username: "alice"}))
	req.NoError(s.SetOnline(ctx, "u1", true, "conn-1"))
	req.NoError(s.SetOnline(ctx, "u1", false, ""))

	req.ErrorIs(s.SetOnline(ctx, "ghost", true, "conn-2"), core.ErrUserNotFound)
}
