package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

const userPrefix = "user:"

// userRecord is the stored form of a user: the public identity plus the
// presence bookkeeping the identity service maintains.
type userRecord struct {
	domain.User
	Online   bool        `json:"online"`
	Conn     core.ConnID `json:"conn,omitempty"`
	LastSeen time.Time   `json:"last_seen"`
}

type Users struct {
	db *badger.DB
}

func NewUsers(db *badger.DB) *Users {
	return &Users{db: db}
}

func userKey(id domain.UserID) []byte {
	return []byte(userPrefix + string(id))
}

func (s *Users) Get(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec.User, nil
}

// Put creates or replaces a user record. Registration itself is external;
// this exists for the seed tooling and tests.
func (s *Users) Put(ctx context.Context, user domain.User) error {
	data, err := json.Marshal(userRecord{User: user, LastSeen: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), data)
	})
}

// SetOnline flips the stored online flag and connection ref for id.
func (s *Users) SetOnline(ctx context.Context, id domain.UserID, online bool, conn core.ConnID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		var rec userRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		rec.Online = online
		rec.Conn = conn
		rec.LastSeen = time.Now().UTC()
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
}
