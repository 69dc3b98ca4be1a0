package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MaxRoomNameLen = 36

	// DefaultRoom is the shared room every authenticated connection joins.
	DefaultRoom RoomName = "global"

	privateRoomPrefix = "dm:"
)

var (
	ErrRoomNameEmpty    = errors.New("room name empty")
	ErrRoomNameTooLong  = errors.New("room name too long")
	ErrRoomNameReserved = errors.New("room name reserved")
	ErrRoomNameInvalid  = errors.New(`room name contains ":"`)
)

type (
	RoomName string
	RoomID   string
)

// Room is a named broadcast domain. Private rooms are never listed and are
// derived from a pair of user identities rather than created explicitly.
type Room struct {
	ID          RoomID    `json:"id"`
	Name        RoomName  `json:"name"`
	Description string    `json:"description,omitempty"`
	Private     bool      `json:"private"`
	CreatedBy   UserID    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// PrivateRoom derives the room identifier for a pair of users. The pair is
// sorted first, so both participants compute the same name no matter who
// initiates.
func PrivateRoom(a, b UserID) RoomName {
	lo, hi := string(a), string(b)
	if lo > hi {
		lo, hi = hi, lo
	}
	return RoomName(privateRoomPrefix + lo + ":" + hi)
}

func (n RoomName) IsPrivate() bool {
	return strings.HasPrefix(string(n), privateRoomPrefix)
}

// Validate rejects names a client may not join or create directly.
// Private room names are derived server-side only. ":" is the storage key
// separator; allowing it in a name would let one room's prefix scan match
// another room's records.
func (n RoomName) Validate() error {
	if len(n) == 0 {
		return ErrRoomNameEmpty
	}
	if len(n) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	if n.IsPrivate() {
		return ErrRoomNameReserved
	}
	if strings.ContainsRune(string(n), ':') {
		return ErrRoomNameInvalid
	}
	return nil
}
