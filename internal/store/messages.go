package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

// markReadWindow bounds how far back a read receipt sweep looks.
const markReadWindow = 100

type Messages struct {
	db *badger.DB
}

func NewMessages(db *badger.DB) *Messages {
	return &Messages{db: db}
}

// msgKey orders messages chronologically under a room prefix. The 19-digit
// zero-padded nanosecond timestamp keeps lexicographic order equal to time
// order; the uuid disambiguates same-nanosecond writes.
func msgKey(room domain.RoomName, at time.Time, id uuid.UUID) []byte {
	return fmt.Appendf(nil, "msg:%s:%019d:%s", room, at.UnixNano(), id)
}

func msgIndexKey(id uuid.UUID) []byte {
	return fmt.Appendf(nil, "msgidx:%s", id)
}

func roomPrefix(room domain.RoomName) []byte {
	return fmt.Appendf(nil, "msg:%s:", room)
}

func (s *Messages) Persist(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	key := msgKey(msg.Room, msg.CreatedAt, msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(msgIndexKey(msg.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// Recent returns the most recent limit messages for room, oldest first.
func (s *Messages) Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past the whole prefix range.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			var msg domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			out = append(out, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(out), nil
}

// update rewrites one message in place, located through the id index.
func (s *Messages) update(id uuid.UUID, mutate func(*domain.Message) error) (domain.Message, error) {
	var msg domain.Message
	err := s.db.Update(func(txn *badger.Txn) error {
		idxItem, err := txn.Get(msgIndexKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var key []byte
		if err := idxItem.Value(func(val []byte) error {
			key = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		}); err != nil {
			return err
		}
		if err := mutate(&msg); err != nil {
			return err
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (s *Messages) AppendReaction(ctx context.Context, id uuid.UUID, kind domain.ReactionKind) (domain.Message, error) {
	if !kind.Valid() {
		return domain.Message{}, domain.ErrInvalidReaction
	}
	return s.update(id, func(m *domain.Message) error {
		m.Reactions.Add(kind)
		return nil
	})
}

func (s *Messages) AppendReply(ctx context.Context, id uuid.UUID, reply domain.Reply) (domain.Message, error) {
	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}
	if reply.At.IsZero() {
		reply.At = time.Now().UTC()
	}
	return s.update(id, func(m *domain.Message) error {
		m.Replies = append(m.Replies, reply)
		return nil
	})
}

// MarkRead adds a receipt for reader to the recent messages of room that
// reader did not send and has not read yet.
func (s *Messages) MarkRead(ctx context.Context, room domain.RoomName, reader domain.UserID) error {
	now := time.Now().UTC()
	return s.db.Update(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		seen := 0
		for it.Seek(seek); it.ValidForPrefix(prefix) && seen < markReadWindow; it.Next() {
			seen++
			var msg domain.Message
			key := it.Item().KeyCopy(nil)
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			if msg.SenderID == reader || !msg.MarkReadBy(reader, now) {
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}
