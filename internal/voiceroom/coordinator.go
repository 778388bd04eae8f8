// Package voiceroom coordinates multi-party WebRTC call setup: per-room
// presence, targeted signaling relay, mute propagation and cleanup when a
// connection drops. It is a pure in-memory rendezvous layer; rooms are
// materialized on first join and vanish with the last leave.
package voiceroom

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
)

// Conn is the transport endpoint of one connected participant. Deliver is
// fire-and-forget: it must not block, and a failed delivery is the
// transport's problem, not the coordinator's.
type Conn interface {
	ID() domain.ConnID
	Deliver(ev Outbound)
}

// Coordinator is the process-wide registry of live rooms. One instance is
// constructed at startup and injected into the socket controller and the
// REST handlers; tests build their own isolated instances.
//
// Every operation runs to completion under a single mutex, so membership
// mutations are atomic with respect to each other. Nothing inside holds the
// lock across I/O: delivery is a non-blocking channel push downstream.
type Coordinator struct {
	mu sync.Mutex
	// rooms maps roomID -> connID -> participant.
	rooms map[domain.RoomID]map[domain.ConnID]*domain.Participant
	// conns tracks every registered connection, joined or not; targeted
	// relay looks targets up here without any room membership check.
	conns map[domain.ConnID]Conn
	// joined is the reverse index connID -> rooms it is a member of, so a
	// disconnect (which carries no roomId) cleans up without scanning every
	// room in the process.
	joined map[domain.ConnID]map[domain.RoomID]struct{}
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		rooms:  make(map[domain.RoomID]map[domain.ConnID]*domain.Participant),
		conns:  make(map[domain.ConnID]Conn),
		joined: make(map[domain.ConnID]map[domain.RoomID]struct{}),
	}
}

// Register makes a freshly upgraded connection addressable. It belongs to no
// room until it sends a join.
func (c *Coordinator) Register(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[conn.ID()] = conn
	log.Debug().Str("module", "voiceroom").Str("sid", string(conn.ID())).Msg("connection registered")
}

// Join inserts the connection into the room, materializing the room if this
// is its first member. Peers learn about the newcomer via user-joined; the
// newcomer gets the membership snapshot (itself excluded) via existing-users.
func (c *Coordinator) Join(id domain.ConnID, req JoinRoom) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[id]
	if !ok {
		return
	}
	if req.RoomID == "" || req.UserID == "" {
		conn.Deliver(ErrorEvent{Type: EvError, Message: "roomId and userId are required"})
		return
	}

	members, ok := c.rooms[req.RoomID]
	if !ok {
		members = make(map[domain.ConnID]*domain.Participant)
		c.rooms[req.RoomID] = members
		log.Info().Str("module", "voiceroom").Str("room", string(req.RoomID)).Msg("room materialized")
	}

	p := domain.NewParticipant(id, req.UserID, req.Name)
	members[id] = p
	if c.joined[id] == nil {
		c.joined[id] = make(map[domain.RoomID]struct{})
	}
	c.joined[id][req.RoomID] = struct{}{}

	joined := UserJoined{Type: EvUserJoined, Participant: *p}
	existing := make([]domain.Participant, 0, len(members)-1)
	for mid, m := range members {
		if mid == id {
			continue
		}
		existing = append(existing, *m)
		c.deliverLocked(mid, joined)
	}
	conn.Deliver(ExistingUsers{Type: EvExistingUsers, Users: existing})

	log.Info().Str("module", "voiceroom").
		Str("sid", string(id)).
		Str("user", string(req.UserID)).
		Str("room", string(req.RoomID)).
		Int("peers", len(existing)).
		Msg("joined room")
}

// Relay forwards a signaling payload to the target connection verbatim,
// tagged with the sender. An unknown target is a no-op: the coordinator
// cannot tell "peer already left" from a client bug, and neither is fatal.
func (c *Coordinator) Relay(sender domain.ConnID, kind SignalKind, payload json.RawMessage, target domain.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[target]
	if !ok {
		log.Debug().Str("module", "voiceroom").
			Str("sid", string(sender)).
			Str("target", string(target)).
			Str("kind", string(kind)).
			Msg("relay target gone, dropped")
		return
	}
	conn.Deliver(SignalForward{Kind: kind, Payload: payload, SenderSocketID: sender})
}

// ToggleMute records the caller's mute state and tells the rest of the room.
// A caller that is not a member of the room is silently ignored. Repeated
// toggles to the same state still broadcast; state changes are not deduped.
func (c *Coordinator) ToggleMute(id domain.ConnID, roomID domain.RoomID, muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.rooms[roomID][id]
	if !ok {
		return
	}
	p.Muted = muted

	ev := UserMuteChanged{Type: EvUserMuteChanged, SocketID: id, Muted: muted}
	for mid := range c.rooms[roomID] {
		if mid == id {
			continue
		}
		c.deliverLocked(mid, ev)
	}
}

// Leave removes the connection from one room. Leaving a room you are not in
// is a safe no-op.
func (c *Coordinator) Leave(id domain.ConnID, roomID domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id, roomID)
}

// Disconnect tears down every membership the connection holds and forgets
// the connection. This is the one cleanup path that runs on every abnormal
// termination, so no membership entry can outlive its socket.
func (c *Coordinator) Disconnect(id domain.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for roomID := range c.joined[id] {
		c.removeLocked(id, roomID)
	}
	delete(c.joined, id)
	delete(c.conns, id)
	log.Debug().Str("module", "voiceroom").Str("sid", string(id)).Msg("connection gone")
}

// NotifyRoomClosed tells every member that the owning session was deleted.
// Membership is left intact; clients react by leaving on their own.
func (c *Coordinator) NotifyRoomClosed(roomID domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev := EventDeleted{Type: EvEventDeleted, RoomID: roomID}
	for mid := range c.rooms[roomID] {
		c.deliverLocked(mid, ev)
	}
	log.Info().Str("module", "voiceroom").
		Str("room", string(roomID)).
		Int("members", len(c.rooms[roomID])).
		Msg("room closed notification sent")
}

// removeLocked drops one membership, tells the survivors and garbage
// collects the room when it empties. Caller holds c.mu.
func (c *Coordinator) removeLocked(id domain.ConnID, roomID domain.RoomID) {
	members, ok := c.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := members[id]; !ok {
		return
	}
	delete(members, id)
	if set := c.joined[id]; set != nil {
		delete(set, roomID)
	}

	if len(members) == 0 {
		delete(c.rooms, roomID)
		log.Info().Str("module", "voiceroom").Str("room", string(roomID)).Msg("room emptied, dropped")
		return
	}

	ev := UserLeft{Type: EvUserLeft, SocketID: id}
	for mid := range members {
		c.deliverLocked(mid, ev)
	}
	log.Info().Str("module", "voiceroom").Str("sid", string(id)).Str("room", string(roomID)).Msg("left room")
}

// deliverLocked sends to a registered connection, tolerating stale
// membership entries. Caller holds c.mu.
func (c *Coordinator) deliverLocked(id domain.ConnID, ev Outbound) {
	if conn, ok := c.conns[id]; ok {
		conn.Deliver(ev)
	}
}
