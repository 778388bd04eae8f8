package voiceroom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
)

// mockConn records every event the coordinator delivers to it.
type mockConn struct {
	id domain.ConnID

	mu     sync.Mutex
	events []Outbound
}

func newMockConn(id string) *mockConn {
	return &mockConn{id: domain.ConnID(id)}
}

func (m *mockConn) ID() domain.ConnID { return m.id }

func (m *mockConn) Deliver(ev Outbound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockConn) Events() []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Outbound, len(m.events))
	copy(cp, m.events)
	return cp
}

func (m *mockConn) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// lastExistingUsers returns the most recent existing-users event, failing
// the test if none arrived.
func lastExistingUsers(t *testing.T, m *mockConn) ExistingUsers {
	t.Helper()
	evs := m.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if eu, ok := evs[i].(ExistingUsers); ok {
			return eu
		}
	}
	t.Fatalf("conn %s: no existing-users event in %v", m.id, evs)
	return ExistingUsers{}
}

func countOf[T Outbound](m *mockConn) int {
	n := 0
	for _, ev := range m.Events() {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

func join(c *Coordinator, conn *mockConn, room, user string) {
	c.Register(conn)
	c.Join(conn.ID(), JoinRoom{RoomID: domain.RoomID(room), UserID: domain.UserID(user), Name: user})
}

func TestJoinVisibility(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	const n = 5
	conns := make([]*mockConn, n)
	for k := 0; k < n; k++ {
		conns[k] = newMockConn(fmt.Sprintf("conn-%d", k))
		join(c, conns[k], "r1", fmt.Sprintf("user-%d", k))

		eu := lastExistingUsers(t, conns[k])
		if len(eu.Users) != k {
			t.Fatalf("joiner %d: expected %d existing users, got %d", k, k, len(eu.Users))
		}
		seen := make(map[domain.UserID]bool)
		for _, u := range eu.Users {
			if u.ConnID == conns[k].ID() {
				t.Errorf("joiner %d: existing-users includes itself", k)
			}
			seen[u.UserID] = true
		}
		for j := 0; j < k; j++ {
			if !seen[domain.UserID(fmt.Sprintf("user-%d", j))] {
				t.Errorf("joiner %d: existing-users missing user-%d", k, j)
			}
		}
	}
}

func TestJoinMissingFields(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	conn := newMockConn("a")
	c.Register(conn)
	c.Join(conn.ID(), JoinRoom{RoomID: "r1"}) // no userId
	c.Join(conn.ID(), JoinRoom{UserID: "u1"}) // no roomId

	evs := conn.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	for _, ev := range evs {
		if _, ok := ev.(ErrorEvent); !ok {
			t.Errorf("expected ErrorEvent, got %T", ev)
		}
	}
	if len(c.rooms) != 0 {
		t.Errorf("malformed join mutated the registry: %d rooms", len(c.rooms))
	}
}

func TestBroadcastExclusion(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	b := newMockConn("b")
	join(c, a, "r1", "alice")
	join(c, b, "r1", "bob")

	b.Reset()
	c.ToggleMute(b.ID(), "r1", true)
	c.Leave(b.ID(), "r1")

	for _, ev := range b.Events() {
		switch ev.(type) {
		case UserJoined, UserMuteChanged, UserLeft:
			t.Errorf("actor received its own broadcast: %T", ev)
		}
	}
	if got := countOf[UserJoined](a); got != 1 {
		t.Errorf("expected 1 user-joined at a, got %d", got)
	}
	if got := countOf[UserMuteChanged](a); got != 1 {
		t.Errorf("expected 1 user-mute-changed at a, got %d", got)
	}
	if got := countOf[UserLeft](a); got != 1 {
		t.Errorf("expected 1 user-left at a, got %d", got)
	}
}

func TestRoomGC(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	b := newMockConn("b")
	join(c, a, "r1", "alice")
	join(c, b, "r1", "bob")

	c.Leave(a.ID(), "r1")
	c.Disconnect(b.ID())

	if len(c.rooms) != 0 {
		t.Fatalf("expected empty registry, got %d rooms", len(c.rooms))
	}

	// Indirect check: a fresh join sees nobody.
	fresh := newMockConn("fresh")
	join(c, fresh, "r1", "carol")
	if eu := lastExistingUsers(t, fresh); len(eu.Users) != 0 {
		t.Errorf("expected 0 existing users after GC, got %d", len(eu.Users))
	}
}

func TestLeaveIdempotent(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	c.Register(a)
	c.Leave(a.ID(), "nowhere")
	c.Leave(a.ID(), "nowhere")

	if evs := a.Events(); len(evs) != 0 {
		t.Errorf("leave of unjoined room emitted events: %v", evs)
	}
}

func TestDisconnectWithoutMembership(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	c.Register(a)
	c.Disconnect(a.ID())
	c.Disconnect(a.ID()) // double disconnect is fine too

	if evs := a.Events(); len(evs) != 0 {
		t.Errorf("disconnect of roomless connection emitted events: %v", evs)
	}
	if len(c.conns) != 0 || len(c.joined) != 0 {
		t.Errorf("disconnect left registry state behind")
	}
}

func TestDisconnectSweepsAllRooms(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	peer1 := newMockConn("p1")
	peer2 := newMockConn("p2")
	join(c, peer1, "r1", "u1")
	join(c, peer2, "r2", "u2")
	// The protocol assumes one room per connection but does not enforce it;
	// cleanup must sweep every room the connection landed in.
	join(c, a, "r1", "drifter")
	join(c, a, "r2", "drifter")

	c.Disconnect(a.ID())

	if got := countOf[UserLeft](peer1); got != 1 {
		t.Errorf("r1 peer: expected 1 user-left, got %d", got)
	}
	if got := countOf[UserLeft](peer2); got != 1 {
		t.Errorf("r2 peer: expected 1 user-left, got %d", got)
	}
	if len(c.rooms["r1"]) != 1 || len(c.rooms["r2"]) != 1 {
		t.Errorf("disconnect did not remove memberships: r1=%d r2=%d",
			len(c.rooms["r1"]), len(c.rooms["r2"]))
	}
}

func TestRelayFidelity(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	b := newMockConn("b")
	other := newMockConn("other")
	join(c, a, "r1", "alice")
	join(c, b, "r1", "bob")
	join(c, other, "r1", "eve")

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0\r\no=- 46117 2 IN IP4 127.0.0.1"}`)
	c.Relay(a.ID(), SignalOffer, payload, b.ID())

	var fwd *SignalForward
	for _, ev := range b.Events() {
		if f, ok := ev.(SignalForward); ok {
			fwd = &f
		}
	}
	if fwd == nil {
		t.Fatal("target did not receive the offer")
	}
	if fwd.SenderSocketID != a.ID() {
		t.Errorf("senderSocketId = %q, want %q", fwd.SenderSocketID, a.ID())
	}
	if !bytes.Equal(fwd.Payload, payload) {
		t.Errorf("payload mangled: %s", fwd.Payload)
	}
	if got := countOf[SignalForward](other); got != 0 {
		t.Errorf("non-target received %d relayed signals", got)
	}
	if got := countOf[SignalForward](a); got != 0 {
		t.Errorf("sender received %d relayed signals", got)
	}
}

func TestRelayUnknownTarget(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	join(c, a, "r1", "alice")
	c.Relay(a.ID(), SignalICECandidate, json.RawMessage(`{}`), "ghost")

	for _, ev := range a.Events() {
		if _, ok := ev.(ErrorEvent); ok {
			t.Error("relay to unknown target surfaced an error")
		}
	}
}

func TestMuteToggleNotDeduplicated(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	b := newMockConn("b")
	join(c, a, "r1", "alice")
	join(c, b, "r1", "bob")

	c.ToggleMute(a.ID(), "r1", true)
	c.ToggleMute(a.ID(), "r1", true)

	if !c.rooms["r1"][a.ID()].Muted {
		t.Error("stored mute state is false, want true")
	}
	if got := countOf[UserMuteChanged](b); got != 2 {
		t.Errorf("expected 2 user-mute-changed broadcasts, got %d", got)
	}

	// Mute state shows up in later membership snapshots.
	late := newMockConn("late")
	join(c, late, "r1", "carol")
	for _, u := range lastExistingUsers(t, late).Users {
		if u.ConnID == a.ID() && !u.Muted {
			t.Error("existing-users lost the mute flag")
		}
	}
}

func TestMuteToggleForUnjoinedRoom(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	b := newMockConn("b")
	join(c, a, "r1", "alice")
	join(c, b, "r1", "bob")
	b.Reset()

	c.ToggleMute(a.ID(), "r2", true) // never joined r2

	if got := countOf[UserMuteChanged](b); got != 0 {
		t.Errorf("mute for unjoined room broadcast %d events", got)
	}
	if c.rooms["r1"][a.ID()].Muted {
		t.Error("mute for unjoined room mutated state in another room")
	}
}

func TestNotifyRoomClosed(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	b := newMockConn("b")
	join(c, a, "r1", "alice")
	join(c, b, "r1", "bob")

	c.NotifyRoomClosed("r1")

	for _, m := range []*mockConn{a, b} {
		if got := countOf[EventDeleted](m); got != 1 {
			t.Errorf("conn %s: expected 1 event-deleted, got %d", m.id, got)
		}
	}
	// Membership is untouched; clients leave on their own.
	if len(c.rooms["r1"]) != 2 {
		t.Errorf("notify cleared membership: %d members left", len(c.rooms["r1"]))
	}
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("conn-a")
	b := newMockConn("conn-b")

	join(c, a, "r1", "alice")
	if eu := lastExistingUsers(t, a); len(eu.Users) != 0 {
		t.Fatalf("first joiner saw %d users", len(eu.Users))
	}

	join(c, b, "r1", "bob")
	eu := lastExistingUsers(t, b)
	if len(eu.Users) != 1 || eu.Users[0].UserID != "alice" {
		t.Fatalf("second joiner snapshot wrong: %+v", eu.Users)
	}
	if got := countOf[UserJoined](a); got != 1 {
		t.Fatalf("a got %d user-joined, want 1", got)
	}

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	c.Relay(a.ID(), SignalOffer, offer, b.ID())
	var got SignalForward
	for _, ev := range b.Events() {
		if f, ok := ev.(SignalForward); ok {
			got = f
		}
	}
	if got.SenderSocketID != a.ID() || !bytes.Equal(got.Payload, offer) {
		t.Fatalf("relay broken: %+v", got)
	}

	c.Leave(b.ID(), "r1")
	found := false
	for _, ev := range a.Events() {
		if ul, ok := ev.(UserLeft); ok && ul.SocketID == b.ID() {
			found = true
		}
	}
	if !found {
		t.Fatal("a never learned that b left")
	}

	c.Disconnect(a.ID())
	if _, ok := c.rooms["r1"]; ok {
		t.Fatal("room r1 survived its last member")
	}
}

func TestRejoinOverwritesParticipant(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()

	a := newMockConn("a")
	join(c, a, "r1", "alice")
	c.ToggleMute(a.ID(), "r1", true)
	c.Join(a.ID(), JoinRoom{RoomID: "r1", UserID: "alice", Name: "Alice A."})

	p := c.rooms["r1"][a.ID()]
	if p.Muted {
		t.Error("re-join kept the old mute state")
	}
	if p.Name != "Alice A." {
		t.Errorf("re-join kept the old name: %q", p.Name)
	}
	if eu := lastExistingUsers(t, a); len(eu.Users) != 0 {
		t.Errorf("re-join snapshot includes self: %+v", eu.Users)
	}
}
