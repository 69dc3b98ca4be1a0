package auth

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

// Users is the slice of the user store the identity service needs.
type Users interface {
	Get(ctx context.Context, id domain.UserID) (*domain.User, error)
	SetOnline(ctx context.Context, id domain.UserID, online bool, conn core.ConnID) error
}

// Identity implements core.IdentityService: token verification backed by the
// user store.
type Identity struct {
	secret []byte
	users  Users
}

func NewIdentity(secret []byte, users Users) *Identity {
	return &Identity{secret: secret, users: users}
}

func (s *Identity) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		log.Debug().Err(err).Str("module", "auth.identity").Msg("token rejected")
		return nil, core.ErrInvalidToken
	}
	if err := domain.UserID(claims.UserID).Validate(); err != nil {
		log.Debug().Err(err).Str("module", "auth.identity").Msg("token rejected")
		return nil, core.ErrInvalidToken
	}
	user, err := s.users.Get(ctx, domain.UserID(claims.UserID))
	if err != nil {
		return nil, core.ErrUserNotFound
	}
	return user, nil
}

func (s *Identity) MarkOnline(ctx context.Context, id domain.UserID, conn core.ConnID) error {
	return s.users.SetOnline(ctx, id, true, conn)
}

func (s *Identity) MarkOffline(ctx context.Context, id domain.UserID) error {
	return s.users.SetOnline(ctx, id, false, "")
}
