// Package domain contains entity types without behavior, just meta-data.
package domain

const MaxDisplayNameLen = 36

type (
	// ConnID identifies one physical socket connection (one browser tab).
	ConnID string
	// UserID is the application-level identity carried in the JWT and the
	// join payload. One user may hold several connections.
	UserID string
	// RoomID is the opaque rendezvous key minted by the REST layer.
	RoomID string
)

// Participant is one connection's presence inside a room. Owned exclusively
// by the coordinator's membership map; everyone else sees copies.
type Participant struct {
	ConnID ConnID `json:"socketId"`
	UserID UserID `json:"userId"`
	Name   string `json:"name,omitempty"`
	Muted  bool   `json:"muted"`
}

// NewParticipant keeps construction obvious. Overlong display names are
// clipped, not rejected.
func NewParticipant(connID ConnID, userID UserID, name string) *Participant {
	if len(name) > MaxDisplayNameLen {
		name = name[:MaxDisplayNameLen]
	}
	return &Participant{ConnID: connID, UserID: userID, Name: name}
}
