package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

const roomKeyPrefix = "room:"

type Rooms struct {
	db *badger.DB
}

func NewRooms(db *badger.DB) *Rooms {
	return &Rooms{db: db}
}

func roomKey(name domain.RoomName) []byte {
	return []byte(roomKeyPrefix + string(name))
}

func memberKey(room domain.RoomName, user domain.UserID) []byte {
	return fmt.Appendf(nil, "member:%s:%s", room, user)
}

// ListPublic returns every non-private room, in key (name) order.
func (s *Rooms) ListPublic(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(roomKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var room domain.Room
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &room)
			}); err != nil {
				return err
			}
			if !room.Private {
				out = append(out, room)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new room, rejecting duplicates by name.
func (s *Rooms) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	if err := room.Name.Validate(); err != nil {
		return domain.Room{}, err
	}
	if room.ID == "" {
		room.ID = domain.RoomID(uuid.NewString())
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(room.Name))
		if err == nil {
			return core.ErrDuplicateRoom
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := json.Marshal(room)
		if err != nil {
			return err
		}
		if err := txn.Set(roomKey(room.Name), data); err != nil {
			return err
		}
		// The creator is its first member.
		return txn.Set(memberKey(room.Name, room.CreatedBy), timestamp())
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// RecordMembership stores a durable room/user membership record. Idempotent:
// re-joining just refreshes the timestamp.
func (s *Rooms) RecordMembership(ctx context.Context, room domain.RoomName, user domain.UserID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(room, user), timestamp())
	})
}

// Members lists the user ids with a membership record for room.
func (s *Rooms) Members(ctx context.Context, room domain.RoomName) ([]domain.UserID, error) {
	var out []domain.UserID
	prefix := fmt.Appendf(nil, "member:%s:", room)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			out = append(out, domain.UserID(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func timestamp() []byte {
	return []byte(time.Now().UTC().Format(time.RFC3339Nano))
}
