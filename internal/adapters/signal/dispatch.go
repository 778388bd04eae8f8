package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Alexxandr133/JungAI-sub002/internal/voiceroom"
)

// dispatch decodes the {type: ...} envelope and hands the typed payload to
// the coordinator. Unknown or unparseable frames are logged and dropped;
// the only error the protocol reports back is a malformed join.
func (ctl *Controller) dispatch(c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad json frame")
		return
	}

	switch env.Type {
	case voiceroom.MsgJoinRoom:
		var p voiceroom.JoinRoom
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad join payload")
			return
		}
		ctl.coord.Join(c.id, p)

	case voiceroom.MsgOffer:
		var p voiceroom.OfferMessage
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad offer payload")
			return
		}
		ctl.coord.Relay(c.id, voiceroom.SignalOffer, p.Offer, p.Target)

	case voiceroom.MsgAnswer:
		var p voiceroom.AnswerMessage
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad answer payload")
			return
		}
		ctl.coord.Relay(c.id, voiceroom.SignalAnswer, p.Answer, p.Target)

	case voiceroom.MsgICECandidate:
		var p voiceroom.CandidateMessage
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad candidate payload")
			return
		}
		ctl.coord.Relay(c.id, voiceroom.SignalICECandidate, p.Candidate, p.Target)

	case voiceroom.MsgToggleMute:
		var p voiceroom.ToggleMute
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad mute payload")
			return
		}
		ctl.coord.ToggleMute(c.id, p.RoomID, p.Muted)

	case voiceroom.MsgLeaveRoom:
		var p voiceroom.LeaveRoom
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad leave payload")
			return
		}
		ctl.coord.Leave(c.id, p.RoomID)

	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message type")
	}
}
