package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"socialstakes/server/features/bets"
	"socialstakes/server/features/feed"
	"socialstakes/server/features/leaderboard"
	"socialstakes/server/features/users"
	"socialstakes/server/middleware"
	"socialstakes/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Config holds the HTTP server settings
type Config struct {
	Port      int
	JWTSecret string
	Release   bool
}

// Services are the domain services the handlers call
type Services struct {
	Users       service.UserService
	Bets        service.BetService
	Leaderboard service.LeaderboardService
}

// MetricsProvider exposes the scrape handler and records requests
type MetricsProvider interface {
	middleware.RequestRecorder
	Handler() http.Handler
}

type feature interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// Server is the HTTP transport for the betting API
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the router. metrics and hub may be nil, which drops /metrics
// and /api/v1/feed respectively.
func New(cfg Config, services Services, metrics MetricsProvider, hub *feed.Hub) *Server {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	var recorder middleware.RequestRecorder
	if metrics != nil {
		recorder = metrics
	}
	engine.Use(middleware.RequestID(), middleware.Logger(recorder), middleware.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	public := engine.Group("/api/v1")
	protected := public.Group("", middleware.Auth(cfg.JWTSecret))

	features := []feature{
		users.New(services.Users),
		bets.New(services.Bets),
		leaderboard.New(services.Leaderboard),
	}
	if hub != nil {
		features = append(features, feed.New(hub, cfg.JWTSecret))
	}
	for _, f := range features {
		f.RegisterRoutes(public, protected)
	}

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Run() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
