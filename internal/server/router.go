package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"burna/internal/config"
	"burna/internal/domain"
	"burna/internal/hub"
	"burna/internal/metrics"
	"burna/internal/mw"
)

// Server is the relay's HTTP surface.
type Server struct {
	engine *gin.Engine
	rl     *mw.RL
}

// SetupRouter wires middleware, the REST API and the websocket endpoint.
func SetupRouter(cfg config.Config, store domain.Backend, h *hub.Hub) *Server {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.AccessLog(log.Logger))

	per := cfg.RatePerSecond
	if per <= 0 {
		per = 20
	}
	rl := mw.NewRateLimiter(rate.Every(time.Second/time.Duration(per)), max(cfg.RateBurst, 1), 2*time.Minute)
	r.Use(rl.Handler())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hd := NewHandler(store, h)
	api := r.Group("/api/v1/sessions")
	api.POST("", hd.CreateSession)
	api.GET("/:id", hd.GetSession)
	api.POST("/:id/terminate", hd.Terminate)
	api.GET("/:id/participants", hd.CountParticipants)
	api.PUT("/:id/participants/:anon", hd.Join)
	api.POST("/:id/messages", hd.InsertMessage)
	api.GET("/:id/messages", hd.ListMessages)

	r.GET("/ws", hd.Subscribe)

	return &Server{engine: r, rl: rl}
}

// Handler returns the gin engine as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Close stops background middleware work.
func (s *Server) Close() { s.rl.Stop() }
