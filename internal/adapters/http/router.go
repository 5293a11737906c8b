package http

import (
	"context"

	"github.com/dkeye/Stream/internal/adapters/signal"
	"github.com/dkeye/Stream/internal/adapters/store"
	"github.com/dkeye/Stream/internal/app/orch"
	"github.com/dkeye/Stream/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type API struct {
	Orch  *orch.Orchestrator
	Store store.Store
	Cfg   *config.Config
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, st store.Store) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cs := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("StreamSessions", cs))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "connections": o.Conns.Count()})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := &API{Orch: o, Store: st, Cfg: cfg}
	g := r.Group("/api")

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		PongWait:     cfg.PongWait,
		SendBuffer:   cfg.SendBuffer,
		ChatLimit:    cfg.Chat.RateLimit,
		ChatInterval: cfg.Chat.RateInterval,
	})
	g.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	g.POST("/streams", api.createStream)
	g.GET("/streams", api.listStreams)
	g.GET("/streams/:id", api.getStream)
	g.POST("/streams/end/:id", api.endStream)
	g.POST("/streams/:id/end", api.endStream)
	g.GET("/streams/:id/members", api.members)
	g.GET("/streams/:id/chat", api.chatHistory)

	g.GET("/rooms", api.listRooms)
	g.DELETE("/rooms/:id/members/:identity", api.kick)

	g.GET("/ice", api.iceServers)
	g.GET("/session", api.getSession)
	g.PUT("/session", api.putSession)

	return r
}
