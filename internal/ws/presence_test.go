package ws_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"appnexus-chat/backend/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceJoinLeave(t *testing.T) {
	p := ws.NewPresence()
	c := newFakeConn("c1")

	assert.False(t, p.IsOnline("alice"))

	p.Join("alice", c)
	assert.True(t, p.IsOnline("alice"))
	assert.True(t, p.Joined(c))

	userID, ok := p.UserOf(c)
	require.True(t, ok)
	assert.Equal(t, "alice", userID)

	left, wasJoined := p.Leave(c)
	assert.True(t, wasJoined)
	assert.Equal(t, "alice", left)
	assert.False(t, p.IsOnline("alice"))
	assert.False(t, p.Joined(c))
}

func TestPresenceLeaveWithoutJoin(t *testing.T) {
	p := ws.NewPresence()
	_, wasJoined := p.Leave(newFakeConn("c1"))
	assert.False(t, wasJoined)
}

func TestPresenceRejoinMovesConnection(t *testing.T) {
	p := ws.NewPresence()
	c := newFakeConn("c1")

	p.Join("alice", c)
	p.Join("bob", c)

	assert.False(t, p.IsOnline("alice"), "old room must be vacated on re-join")
	assert.True(t, p.IsOnline("bob"))
	assert.Len(t, p.Clients("bob"), 1)
}

func TestPresenceRejoinSameRoomIdempotent(t *testing.T) {
	p := ws.NewPresence()
	c := newFakeConn("c1")

	p.Join("alice", c)
	p.Join("alice", c)

	assert.Len(t, p.Clients("alice"), 1)

	p.Leave(c)
	assert.False(t, p.IsOnline("alice"))
}

func TestPresenceMultipleDevices(t *testing.T) {
	p := ws.NewPresence()
	phone := newFakeConn("phone")
	laptop := newFakeConn("laptop")

	p.Join("alice", phone)
	p.Join("alice", laptop)
	assert.Len(t, p.Clients("alice"), 2)

	p.Leave(phone)
	assert.True(t, p.IsOnline("alice"), "one remaining device keeps the user online")

	p.Leave(laptop)
	assert.False(t, p.IsOnline("alice"))
}

func TestPresenceOnlineUserIDsSorted(t *testing.T) {
	p := ws.NewPresence()
	p.Join("carol", newFakeConn("c1"))
	p.Join("alice", newFakeConn("c2"))
	p.Join("bob", newFakeConn("c3"))

	assert.Equal(t, []string{"alice", "bob", "carol"}, p.OnlineUserIDs())
}

// TestPresenceRandomizedConvergence drives a random join/leave sequence and
// checks the registry against a naive model after every step.
func TestPresenceRandomizedConvergence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := ws.NewPresence()

	users := []string{"alice", "bob", "carol", "dave"}
	conns := make([]*fakeConn, 12)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
	}
	model := make(map[*fakeConn]string) // conn -> joined user

	for step := 0; step < 500; step++ {
		c := conns[rng.Intn(len(conns))]
		if rng.Intn(3) == 0 {
			p.Leave(c)
			delete(model, c)
		} else {
			u := users[rng.Intn(len(users))]
			p.Join(u, c)
			model[c] = u
		}

		online := make(map[string]bool)
		for _, u := range model {
			online[u] = true
		}
		var want []string
		for u := range online {
			want = append(want, u)
		}
		sort.Strings(want)

		got := p.OnlineUserIDs()
		if len(got) == 0 {
			got = nil
		}
		require.Equal(t, want, got, "diverged at step %d", step)
	}
}
