package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/permbroker-org/permbroker/pkg/api/middleware"
	"github.com/permbroker-org/permbroker/pkg/api/service"
	"github.com/permbroker-org/permbroker/pkg/broker"
	"github.com/permbroker-org/permbroker/pkg/frame"
)

// Config defines the HTTP server settings.
type Config struct {
	Enable bool   `yaml:"enable" envconfig:"HTTP_ENABLE"`
	Addr   string `yaml:"addr" envconfig:"HTTP_ADDR"`
	APIKey string `yaml:"api_key" envconfig:"HTTP_API_KEY"`
}

// Server hosts the Gin engine and wires the broker's HTTP surface.
type Server struct {
	engine  *gin.Engine
	config  Config
	broker  *broker.Broker
	frames  *frame.Registry
	prompts *service.PromptService
	tickets *service.TicketService
	log     *slog.Logger
}

// NewServer constructs the HTTP API server.
func NewServer(cfg Config, b *broker.Broker, frames *frame.Registry, prompts *service.PromptService, tickets *service.TicketService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logger(log))

	srv := &Server{
		engine:  engine,
		config:  cfg,
		broker:  b,
		frames:  frames,
		prompts: prompts,
		tickets: tickets,
		log:     log,
	}

	srv.setupRoutes()

	return srv
}

// Engine returns the underlying Gin engine (for http.Server).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// Run starts the HTTP server on the configured address.
func (s *Server) Run() error {
	s.log.Info("http api listening", "addr", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.engine)
}
