package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/archive"
	"github.com/chatter-hq/chatter-server/internal/auth"
	"github.com/chatter-hq/chatter-server/internal/broker"
	"github.com/chatter-hq/chatter-server/internal/config"
	"github.com/chatter-hq/chatter-server/internal/directory"
	"github.com/chatter-hq/chatter-server/internal/store"
)

// Deps bundles the collaborators the HTTP layer exposes.
type Deps struct {
	Auth      *auth.Service
	Store     store.Store
	Directory directory.Directory
	Broker    broker.Broker
	Archiver  archive.Archiver
}

// NewServer builds the HTTP server: REST API, health check, and the session
// WebSocket endpoint.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(deps.Auth, logger)
	roomHandlers := NewRoomHandlers(deps.Store, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)

		rooms := api.Group("/rooms")
		rooms.Use(AuthMiddleware(deps.Auth, logger))
		{
			rooms.GET("", roomHandlers.ListRooms)
			rooms.POST("", StaffOnly(logger), roomHandlers.CreateRoom)
			rooms.PATCH("/:id", StaffOnly(logger), roomHandlers.UpdateRoom)
		}
	}

	wsHandler := NewWSHandler(deps, cfg.NotifyOnEnterLeave, logger)
	router.GET("/ws", wsHandler.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
