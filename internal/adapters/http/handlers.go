package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Alexxandr133/JungAI-sub002/internal/auth"
	"github.com/Alexxandr133/JungAI-sub002/internal/config"
	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
	"github.com/Alexxandr133/JungAI-sub002/internal/rtc"
	"github.com/Alexxandr133/JungAI-sub002/internal/store"
	"github.com/Alexxandr133/JungAI-sub002/internal/voiceroom"
)

type EventHandler struct {
	Cfg   *config.Config
	Store store.EventStore
	Coord *voiceroom.Coordinator
}

type createEventRequest struct {
	Title    string    `json:"title" binding:"required"`
	StartsAt time.Time `json:"startsAt"`
}

// Create schedules a session event and mints the roomId its voice call will
// rendezvous on.
func (h *EventHandler) Create(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid title"})
		return
	}

	ev := domain.Event{
		ID:        uuid.NewString(),
		RoomID:    domain.RoomID(uuid.NewString()),
		OwnerID:   domain.UserID(c.GetString(auth.CtxUserID)),
		Title:     req.Title,
		StartsAt:  req.StartsAt,
		CreatedAt: time.Now().UTC(),
	}
	if ev.StartsAt.IsZero() {
		ev.StartsAt = ev.CreatedAt
	}

	if err := h.Store.Create(c.Request.Context(), ev); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create event"})
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *EventHandler) Get(c *gin.Context) {
	ev, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("get event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load event"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// Delete removes the event and tells anyone still on the call that the
// session is gone. Participants are expected to hang up themselves.
func (h *EventHandler) Delete(c *gin.Context) {
	ev, err := h.Store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("delete event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete event"})
		return
	}

	h.Coord.NotifyRoomClosed(ev.RoomID)
	c.Status(http.StatusNoContent)
}

// RTCConfig hands the browser the STUN/TURN servers for its peer connection.
func (h *EventHandler) RTCConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": rtc.ICEServers(h.Cfg)})
}
