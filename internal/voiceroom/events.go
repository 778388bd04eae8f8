package voiceroom

import (
	"encoding/json"
	"fmt"

	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
)

// Inbound message types as they appear on the wire.
const (
	MsgJoinRoom     = "join-room"
	MsgOffer        = "offer"
	MsgAnswer       = "answer"
	MsgICECandidate = "ice-candidate"
	MsgToggleMute   = "toggle-mute"
	MsgLeaveRoom    = "leave-room"
)

// Outbound event types.
const (
	EvError           = "error"
	EvUserJoined      = "user-joined"
	EvExistingUsers   = "existing-users"
	EvUserMuteChanged = "user-mute-changed"
	EvUserLeft        = "user-left"
	EvEventDeleted    = "event-deleted"
)

// SignalKind discriminates the three relayed WebRTC message kinds.
type SignalKind string

const (
	SignalOffer        SignalKind = MsgOffer
	SignalAnswer       SignalKind = MsgAnswer
	SignalICECandidate SignalKind = MsgICECandidate
)

// payloadKey is the JSON field the browser protocol uses to carry the RTC
// payload for each kind.
func (k SignalKind) payloadKey() string {
	switch k {
	case SignalOffer:
		return "offer"
	case SignalAnswer:
		return "answer"
	default:
		return "candidate"
	}
}

// --- inbound payloads ---

type JoinRoom struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
	Name   string        `json:"name,omitempty"`
}

type OfferMessage struct {
	Offer  json.RawMessage `json:"offer"`
	Target domain.ConnID   `json:"targetSocketId"`
	RoomID domain.RoomID   `json:"roomId"`
}

type AnswerMessage struct {
	Answer json.RawMessage `json:"answer"`
	Target domain.ConnID   `json:"targetSocketId"`
	RoomID domain.RoomID   `json:"roomId"`
}

type CandidateMessage struct {
	Candidate json.RawMessage `json:"candidate"`
	Target    domain.ConnID   `json:"targetSocketId"`
	RoomID    domain.RoomID   `json:"roomId"`
}

type ToggleMute struct {
	RoomID domain.RoomID `json:"roomId"`
	Muted  bool          `json:"muted"`
}

type LeaveRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

// --- outbound events ---

// Outbound is the closed set of events the coordinator can emit. The adapter
// serializes them; the coordinator itself never touches the transport.
type Outbound interface {
	isOutbound()
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (ErrorEvent) isOutbound() {}

type UserJoined struct {
	Type string `json:"type"`
	domain.Participant
}

func (UserJoined) isOutbound() {}

type ExistingUsers struct {
	Type  string               `json:"type"`
	Users []domain.Participant `json:"users"`
}

func (ExistingUsers) isOutbound() {}

// SignalForward carries a relayed offer/answer/candidate to its target,
// tagged with the sender so the target can address a reply. The payload is
// passed through byte-for-byte.
type SignalForward struct {
	Kind           SignalKind
	Payload        json.RawMessage
	SenderSocketID domain.ConnID
}

func (SignalForward) isOutbound() {}

// MarshalJSON emits the wire shape the browsers expect: the relayed payload
// under its kind-specific key, next to type and senderSocketId.
func (f SignalForward) MarshalJSON() ([]byte, error) {
	sender, err := json.Marshal(f.SenderSocketID)
	if err != nil {
		return nil, err
	}
	payload := f.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return fmt.Appendf(nil, `{"type":%q,%q:%s,"senderSocketId":%s}`,
		string(f.Kind), f.Kind.payloadKey(), payload, sender), nil
}

type UserMuteChanged struct {
	Type     string        `json:"type"`
	SocketID domain.ConnID `json:"socketId"`
	Muted    bool          `json:"muted"`
}

func (UserMuteChanged) isOutbound() {}

type UserLeft struct {
	Type     string        `json:"type"`
	SocketID domain.ConnID `json:"socketId"`
}

func (UserLeft) isOutbound() {}

type EventDeleted struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

func (EventDeleted) isOutbound() {}
