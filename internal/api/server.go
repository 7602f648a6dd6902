package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/api/handlers"
	"github.com/crypto-telemetry/internal/api/middleware"
	"github.com/crypto-telemetry/internal/edge"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DefaultServerConfig returns default configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
	}
}

// Server is the edge HTTP server
type Server struct {
	config  *ServerConfig
	echo    *echo.Echo
	service *edge.Service
}

// NewServer creates a new edge server
func NewServer(config *ServerConfig, service *edge.Service) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		config:  config,
		echo:    e,
		service: service,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.ErrorLogger())

	s.echo.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: s.config.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(echoMiddleware.RequestID())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	taskHandler := handlers.NewTaskHandler(s.service)
	accountHandler := handlers.NewAccountHandler(s.service)
	priceHandler := handlers.NewPriceHandler(s.service)

	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Scheduled price tasks
	s.echo.POST("/add_pricing_tasks", taskHandler.AddPricingTasks)
	s.echo.POST("/stop_price_tasks", taskHandler.StopPriceTasks)
	s.echo.GET("/list_price_tasks/:user_id", taskHandler.ListPriceTasks)
	s.echo.GET("/all_price_tasks", taskHandler.AllPriceTasks)

	// Account monitoring
	s.echo.POST("/add_account_monitoring", accountHandler.AddAccountMonitoring)

	// Price index
	s.echo.GET("/trading_pairs/:exchange", priceHandler.TradingPairs)
	s.echo.GET("/latest_price/:exchange/:trade/:symbol", priceHandler.LatestPrice)
}

// Start starts the server
func (s *Server) Start() error {
	log.Info().Str("port", s.config.Port).Msg("Starting edge server")
	return s.echo.Start(s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	log.Info().Msg("Shutting down edge server")
	return s.echo.Shutdown(ctx)
}

// GetEcho returns the Echo instance
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}
