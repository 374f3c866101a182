package ws

import (
	"sort"
	"sync"
)

// RoomID addresses a fan-out target. Today every room wraps a single user
// identity; the indirection keeps the addressing unit distinct from raw
// user IDs so multi-device delivery (and future shared rooms) need no
// structural change.
type RoomID string

// UserRoom maps a user identity to its room.
func UserRoom(userID string) RoomID {
	return RoomID("user:" + userID)
}

// Conn is one attached connection handle. The hub and presence registry
// only ever see this interface; the websocket transport lives behind it.
type Conn interface {
	// ID returns the unique handle identifier assigned at upgrade time.
	ID() string
	// Enqueue hands an event to the connection's outbound buffer. It
	// reports false when the buffer is full, which the hub treats as a
	// dead or stalled peer.
	Enqueue(Event) bool
	// Close shuts the connection's outbound side down.
	Close()
}

// Presence is the authoritative in-memory view of which user identities
// are currently reachable and through which connection handles. An entry
// exists for a user exactly while at least one handle is joined under that
// identity.
//
// All methods are safe for concurrent use; the hub's event loop linearizes
// the mutation-plus-roster-snapshot sequences that drive broadcasts.
type Presence struct {
	mu     sync.Mutex
	rooms  map[RoomID]map[Conn]struct{}
	byConn map[Conn]RoomID
}

func NewPresence() *Presence {
	return &Presence{
		rooms:  make(map[RoomID]map[Conn]struct{}),
		byConn: make(map[Conn]RoomID),
	}
}

// Join registers the handle under the user's room. Joining is idempotent
// per handle; a handle that rejoins under a different identity is moved
// out of its previous room first, so a connection is in at most one room.
func (p *Presence) Join(userID string, c Conn) {
	room := UserRoom(userID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.byConn[c]; ok {
		if prev == room {
			return
		}
		p.removeLocked(c, prev)
	}

	if p.rooms[room] == nil {
		p.rooms[room] = make(map[Conn]struct{})
	}
	p.rooms[room][c] = struct{}{}
	p.byConn[c] = room
}

// Leave removes the handle from whichever room it joined, looked up by
// handle since a disconnecting connection does not announce its identity.
// The room is deleted with its last handle. The second return reports
// whether the handle had joined at all.
func (p *Presence) Leave(c Conn) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.byConn[c]
	if !ok {
		return "", false
	}
	p.removeLocked(c, room)
	return roomUserID(room), true
}

func (p *Presence) removeLocked(c Conn, room RoomID) {
	delete(p.byConn, c)
	if members, ok := p.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(p.rooms, room)
		}
	}
}

// IsOnline reports whether the user has at least one joined handle.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms[UserRoom(userID)]) > 0
}

// Joined reports whether the handle has announced an identity.
func (p *Presence) Joined(c Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byConn[c]
	return ok
}

// UserOf returns the identity the handle joined under.
func (p *Presence) UserOf(c Conn) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, ok := p.byConn[c]
	if !ok {
		return "", false
	}
	return roomUserID(room), true
}

// Clients returns the handles currently joined under the user, empty when
// the user is offline.
func (p *Presence) Clients(userID string) []Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := p.rooms[UserRoom(userID)]
	if len(members) == 0 {
		return nil
	}
	conns := make([]Conn, 0, len(members))
	for c := range members {
		conns = append(conns, c)
	}
	return conns
}

// OnlineUserIDs returns a sorted snapshot of every identity with at least
// one joined handle. Broadcasting the full roster rather than deltas keeps
// client state convergent regardless of event ordering.
func (p *Presence) OnlineUserIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.rooms))
	for room := range p.rooms {
		ids = append(ids, roomUserID(room))
	}
	sort.Strings(ids)
	return ids
}

func roomUserID(room RoomID) string {
	const prefix = "user:"
	s := string(room)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
