// Package app holds the presence/fan-out core: the connection registry, the
// room directory, and the coordinator that drives the per-connection
// authenticate → join → active → disconnect lifecycle and routes inbound
// events to live connections.
package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

const DefaultBacklogLimit = 50

// Coordinator owns no transport resources. It mutates registry/directory
// state in short critical sections, snapshots fan-out targets, and performs
// all I/O (token verification, store calls, sends) outside any lock.
type Coordinator struct {
	registry *Registry
	rooms    *Directory
	typing   *TypingState

	identity core.IdentityService
	messages core.MessageStore
	catalog  core.RoomStore

	policy  Policy
	backlog int
}

func NewCoordinator(identity core.IdentityService, messages core.MessageStore, catalog core.RoomStore) *Coordinator {
	return &Coordinator{
		registry: NewRegistry(),
		rooms:    NewDirectory(),
		typing:   NewTypingState(),
		identity: identity,
		messages: messages,
		catalog:  catalog,
		policy:   DropPolicy{},
		backlog:  DefaultBacklogLimit,
	}
}

// WithPolicy overrides the backpressure policy applied during fan-out.
func (c *Coordinator) WithPolicy(p Policy) *Coordinator {
	c.policy = p
	return c
}

// WithBacklog overrides how many recent messages a join replays.
func (c *Coordinator) WithBacklog(n int) *Coordinator {
	if n > 0 {
		c.backlog = n
	}
	return c
}

func (c *Coordinator) Registry() *Registry { return c.registry }
func (c *Coordinator) Rooms() *Directory { return c.rooms }
func (c *Coordinator) TypingIn(room domain.RoomName) []string { return c.typing.Names(room) }

// Authenticate verifies the token, registers the connection, and joins it to
// the default room. On failure the connection stays open and unauthenticated;
// the client may retry with a new token.
func (c *Coordinator) Authenticate(ctx context.Context, conn core.Connection, token string) {
	if _, ok := c.registry.Lookup(conn.ID()); ok {
		c.send(conn, errorEvent{Type: evAuthError, Reason: core.ErrDuplicateSession.Error()})
		return
	}

	user, err := c.identity.VerifyToken(ctx, token)
	if err != nil {
		log.Info().Err(err).Str("module", "app.coordinator").Str("conn", string(conn.ID())).Msg("authentication failed")
		c.send(conn, errorEvent{Type: evAuthError, Reason: "authentication failed"})
		return
	}

	entry, err := c.registry.Register(conn, *user)
	if err != nil {
		c.send(conn, errorEvent{Type: evAuthError, Reason: err.Error()})
		return
	}

	if err := c.identity.MarkOnline(ctx, user.ID, conn.ID()); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("user", string(user.ID)).Msg("mark online")
	}

	c.rooms.Join(domain.DefaultRoom, entry)

	c.send(conn, authenticatedEvent{Type: evAuthenticated, User: *user})
	everyone := c.registry.Snapshot()
	c.fanout(everyone, c.userList())
	c.fanout(exclude(everyone, entry), presenceEvent{Type: evUserJoined, User: *user})
	log.Info().Str("module", "app.coordinator").Str("user", string(user.ID)).Str("conn", string(conn.ID())).Msg("authenticated and joined default room")
}

// Disconnect is the idempotent terminal transition. The registry's
// unregister gates the fan-out, so no matter how many times the transport
// reports closure, peers see exactly one departure.
func (c *Coordinator) Disconnect(ctx context.Context, conn core.Connection) {
	entry, ok := c.registry.Unregister(conn.ID())
	if !ok {
		// Never authenticated, or already cleaned up: no broadcast, no residue.
		return
	}

	c.rooms.RemoveEverywhere(entry)
	c.typing.ClearUser(entry.User.Username)

	if err := c.identity.MarkOffline(ctx, entry.User.ID); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("user", string(entry.User.ID)).Msg("mark offline")
	}

	remaining := c.registry.Snapshot()
	c.fanout(remaining, c.userList())
	c.fanout(remaining, presenceEvent{Type: evUserLeft, User: entry.User})
	log.Info().Str("module", "app.coordinator").Str("user", string(entry.User.ID)).Str("conn", string(conn.ID())).Msg("disconnected")
}

// authed resolves the sender's presence entry, replying with a
// not-authenticated error when the connection holds no session.
func (c *Coordinator) authed(conn core.Connection) (*PresenceEntry, bool) {
	entry, ok := c.registry.Lookup(conn.ID())
	if !ok {
		c.send(conn, errEvent(core.ErrNotAuthenticated.Error()))
		return nil, false
	}
	return entry, true
}
