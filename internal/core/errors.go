package core

import "errors"

var (
	// ErrDuplicateSession rejects a second authenticate on a connection
	// that already holds a presence entry. The prior session stays intact.
	ErrDuplicateSession = errors.New("duplicate session")

	// ErrNotAuthenticated marks an action attempted before a valid session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRecipientOffline: a private message addressed a user with no live
	// presence entry. No mailboxing; the sender is told and nothing else
	// happens.
	ErrRecipientOffline = errors.New("recipient offline")

	ErrInvalidToken = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")

	ErrMessageNotFound = errors.New("message not found")
	ErrDuplicateRoom   = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
)
