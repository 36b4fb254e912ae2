// Package collector is the HTTP-facing ingestion gateway: it validates,
// normalizes and sanitizes incoming CI/CD logs, persists them, and triggers
// the downstream parser best-effort.
package collector

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/auth"
	"github.com/safeops/logcollector/pkg/collector/handlers"
	"github.com/safeops/logcollector/pkg/collector/middleware"
	"github.com/safeops/logcollector/pkg/config"
	"github.com/safeops/logcollector/pkg/eventbus"
	"github.com/safeops/logcollector/pkg/notifier"
	"github.com/safeops/logcollector/pkg/store"
)

type Server struct {
	router *gin.Engine
	store  store.LogStore
	parser notifier.Notifier
	bus    *eventbus.Bus
	cfg    *config.Config
	logger *zap.Logger
}

// NewServer wires the gateway. The store and parser are injected so tests
// run against in-memory fakes; bus may be nil when redis is disabled.
func NewServer(logStore store.LogStore, parser notifier.Notifier, bus *eventbus.Bus, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		store:  logStore,
		parser: parser,
		bus:    bus,
		cfg:    cfg,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "SafeOps-LogMiner LogCollector Service is running.")
	})

	healthHandler := handlers.NewHealthHandler(s.store)
	r.GET("/health", healthHandler.Health)

	tokens := auth.NewTokenManager([]byte(s.cfg.Auth.JWTSecret))

	logHandler := handlers.NewLogHandler(s.store, s.bus, s.logger)
	logs := r.Group("/logs")
	{
		logs.POST("/github", logHandler.UploadGitHub)
		logs.POST("/gitlab", logHandler.UploadGitLab)
		logs.POST("/jenkins", logHandler.UploadJenkins)
		logs.POST("/upload", logHandler.Upload)
		logs.GET("", logHandler.List)
		logs.GET("/github/pull", middleware.Auth(tokens), logHandler.PullGitHub)
	}

	webhookHandler := handlers.NewWebhookHandler(s.store, s.parser, s.bus, s.logger)
	r.POST("/webhook", webhookHandler.Receive)

	simulateHandler := handlers.NewSimulateHandler(s.store, s.parser, s.bus, s.cfg.Parser.SimulateDelay, s.logger)
	r.POST("/api/logs/simulate", simulateHandler.Simulate)

	testHandler := handlers.NewTestHandler(s.store, s.parser, s.bus, s.logger)
	r.GET("/test/scenarios", testHandler.ListScenarios)
	r.POST("/test/webhook", testHandler.Webhook)

	s.router = r
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
