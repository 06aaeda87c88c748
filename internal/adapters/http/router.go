package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/adapters/collab"
	"collabide/server/internal/adapters/terminal"
	"collabide/server/internal/app"
	"collabide/server/internal/config"
)

// The browser frontend is served from a different origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, access *app.AccessController, collabCtl *collab.Controller, termCtl *terminal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	rooms := &RoomHandlers{Access: access}

	api := r.Group("/api")
	api.POST("/create-collab-room", rooms.CreateRoom)
	api.POST("/join-collab-room", rooms.JoinRoom)

	r.GET("/ws/collab/:roomId/:userId", func(c *gin.Context) {
		collabCtl.HandleCollab(ctx, c)
	})
	r.GET("/ws/terminal", func(c *gin.Context) {
		termCtl.HandleTerminal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
