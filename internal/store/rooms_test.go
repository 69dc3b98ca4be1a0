package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

func TestRoomsCreateAndList(t *testing.T) {
	req := require.New(t)
	s := NewRooms(testDB(t))
	ctx := context.Background()

	created, err := s.Create(ctx, domain.Room{Name: "gophers", CreatedBy: "u1"})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.False(created.CreatedAt.IsZero())

	_, err = s.Create(ctx, domain.Room{Name: "gophers", CreatedBy: "u2"})
	req.ErrorIs(err, core.ErrDuplicateRoom)

	rooms, err := s.ListPublic(ctx)
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(domain.RoomName("gophers"), rooms[0].Name)
}

func TestRoomsCreateRejectsBadNames(t *testing.T) {
	req := require.New(t)
	s := NewRooms(testDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, domain.Room{Name: "", CreatedBy: "u1"})
	req.ErrorIs(err, domain.ErrRoomNameEmpty)

	_, err = s.Create(ctx, domain.Room{Name: domain.PrivateRoom("u1", "u2"), CreatedBy: "u1"})
	req.ErrorIs(err, domain.ErrRoomNameReserved)
}

func TestRoomsListPublicSkipsPrivate(t *testing.T) {
	req := require.New(t)
	db := testDB(t)
	s := NewRooms(db)
	ctx := context.Background()

	_, err := s.Create(ctx, domain.Room{Name: "open", CreatedBy: "u1"})
	req.NoError(err)
	// Private rooms are written internally, never through Create.
	_, err = s.Create(ctx, domain.Room{Name: "hidden", Private: true, CreatedBy: "u1"})
	req.NoError(err)

	rooms, err := s.ListPublic(ctx)
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(domain.RoomName("open"), rooms[0].Name)
}

func TestRoomsMembership(t *testing.T) {
	req := require.New(t)
	s := NewRooms(testDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, domain.Room{Name: "gophers", CreatedBy: "u1"})
	req.NoError(err)

	req.NoError(s.RecordMembership(ctx, "gophers", "u2"))
	req.NoError(s.RecordMembership(ctx, "gophers", "u2"))

	members, err := s.Members(ctx, "gophers")
	req.NoError(err)
	req.ElementsMatch([]domain.UserID{"u1", "u2"}, members)
}
