package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dmarkhas/relaychat-server/internal/auth"
	"github.com/dmarkhas/relaychat-server/internal/config"
	"github.com/dmarkhas/relaychat-server/internal/core"
	"github.com/dmarkhas/relaychat-server/internal/store"
)

// NewServer builds the HTTP server: REST API plus the WebSocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/api/health", healthHandler)

	authHandlers := NewAuthHandlers(authService, logger)
	router.POST("/api/auth/register", authHandlers.Register)
	router.POST("/api/auth/login", authHandlers.Login)

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware(authService, logger))

	channelHandlers := NewChannelHandlers(st, logger)
	authorized.GET("/channels", channelHandlers.ListChannels)
	authorized.GET("/channels/joined", channelHandlers.ListJoinedChannels)
	authorized.POST("/channels", channelHandlers.CreateChannel)
	authorized.GET("/channels/:id", channelHandlers.GetChannel)
	authorized.POST("/channels/:id/join", channelHandlers.JoinChannel)
	authorized.POST("/channels/:id/leave", channelHandlers.LeaveChannel)

	// REST and socket sends share one ingest pipeline so both paths produce
	// records with identical shape and ordering.
	messageHandlers := NewMessageHandlers(
		core.NewPaginator(st, cfg.HistoryPageLimit),
		core.NewPipeline(st),
		logger,
	)
	authorized.GET("/messages/:channelId", messageHandlers.GetHistory)
	authorized.POST("/messages/:channelId", messageHandlers.CreateMessage)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
