// Package http wires the gin router: the REST surface that owns session
// events and the WebSocket endpoint the voice room protocol runs on.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Alexxandr133/JungAI-sub002/internal/adapters/signal"
	"github.com/Alexxandr133/JungAI-sub002/internal/auth"
	"github.com/Alexxandr133/JungAI-sub002/internal/config"
	"github.com/Alexxandr133/JungAI-sub002/internal/store"
	"github.com/Alexxandr133/JungAI-sub002/internal/voiceroom"
)

func SetupRouter(cfg *config.Config, coord *voiceroom.Coordinator, events store.EventStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &EventHandler{Cfg: cfg, Store: events, Coord: coord}
	ctl := signal.NewController(coord, cfg.ReadLimit, cfg.PingPeriod)

	api := r.Group("/api", auth.Middleware(cfg.Secret))
	api.POST("/events", auth.RequireRole(auth.RolePsychologist, auth.RoleAdmin), h.Create)
	api.GET("/events/:id", h.Get)
	api.DELETE("/events/:id", auth.RequireRole(auth.RolePsychologist, auth.RoleAdmin), h.Delete)
	api.GET("/rtc/config", h.RTCConfig)
	api.GET("/ws/voice", ctl.HandleVoice)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
