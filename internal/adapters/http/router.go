// Package http wires the gin router: the WebSocket endpoint, the REST
// surface for rooms and message history, and the session middleware.
package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/adapters/ws"
	"github.com/avess/huddle/internal/auth"
	"github.com/avess/huddle/internal/config"
)

// ClientTokenMiddleware tags each browser with a stable token cookie, used
// only for correlating log lines across reconnects.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *ws.Controller, rest *RestHandlers) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSession", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws chat endpoint hit")
		ctl.HandleChat(ctx, c)
	})

	authed := api.Group("", auth.Middleware([]byte(cfg.Secret)))
	authed.GET("/rooms", rest.ListRooms)
	authed.POST("/rooms", rest.CreateRoom)
	authed.POST("/rooms/:name/join", rest.JoinRoom)
	authed.GET("/messages", rest.History)
	authed.POST("/messages/:id/reaction", rest.AddReaction)
	authed.POST("/messages/:id/reply", rest.AddReply)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
