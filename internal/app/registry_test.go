package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avess/huddle/internal/core"
	"github.com/avess/huddle/internal/domain"
)

func TestRegistryRejectsDuplicateSession(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	conn := newFakeConn("c1")

	_, err := r.Register(conn, domain.User{ID: "u1", Username: "alice"})
	req.NoError(err)

	_, err = r.Register(conn, domain.User{ID: "u2", Username: "bob"})
	req.ErrorIs(err, core.ErrDuplicateSession)

	// The prior session is intact.
	entry, ok := r.Lookup("c1")
	req.True(ok)
	req.Equal(domain.UserID("u1"), entry.User.ID)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	conn := newFakeConn("c1")
	_, err := r.Register(conn, domain.User{ID: "u1", Username: "alice"})
	req.NoError(err)

	entry, ok := r.Unregister("c1")
	req.True(ok)
	req.Equal(domain.UserID("u1"), entry.User.ID)

	entry, ok = r.Unregister("c1")
	req.False(ok)
	req.Nil(entry)
}

func TestRegistrySnapshotKeepsInsertionOrder(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		conn := newFakeConn(fmt.Sprintf("c%d", i))
		_, err := r.Register(conn, domain.User{ID: domain.UserID(fmt.Sprintf("u%d", i)), Username: "x"})
		req.NoError(err)
	}
	_, ok := r.Unregister("c2")
	req.True(ok)

	got := make([]domain.UserID, 0, 4)
	for _, e := range r.Snapshot() {
		got = append(got, e.User.ID)
	}
	req.Equal([]domain.UserID{"u0", "u1", "u3", "u4"}, got)
}

func TestRegistryByUserTracksLatestConnection(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	user := domain.User{ID: "u1", Username: "alice"}

	_, err := r.Register(newFakeConn("c1"), user)
	req.NoError(err)
	_, err = r.Register(newFakeConn("c2"), user)
	req.NoError(err)

	entry, ok := r.ByUser("u1")
	req.True(ok)
	req.Equal(core.ConnID("c2"), entry.Conn.ID())

	// Dropping the latest connection drops the user mapping; the older
	// connection's entry still exists but is not resolvable by identity.
	_, ok = r.Unregister("c2")
	req.True(ok)
	_, ok = r.ByUser("u1")
	req.False(ok)
	_, ok = r.Lookup("c1")
	req.True(ok)
}

func TestRegistryConcurrentRegisterUnregister(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			conn := newFakeConn(id)
			if _, err := r.Register(conn, domain.User{ID: domain.UserID(id), Username: "x"}); err != nil {
				return
			}
			if i%2 == 0 {
				r.Unregister(core.ConnID(id))
			}
		}(i)
	}
	wg.Wait()

	req.Equal(25, r.Len())
	req.Len(r.Snapshot(), 25)
}
