package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/api"
	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/config"
	"github.com/crypto-telemetry/internal/edge"
	"github.com/crypto-telemetry/internal/storage"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	log.Info().Msg("Starting edge server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}

	bus, err := broker.New(cfg.Broker)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize broker")
	}
	defer bus.Close()

	var journal *storage.Journal
	if cfg.Storage.Path != "" {
		journal, err = storage.NewJournal(cfg.Storage.Path)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open task journal, continuing without it")
			journal = nil
		}
	}
	if journal != nil {
		defer journal.Close()
	}

	service := edge.New(bus, journal, cfg.API.ResultWait)
	if err := service.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start edge service")
	}

	server := api.NewServer(&api.ServerConfig{
		Port:            cfg.API.Port,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     cfg.API.CORSOrigins,
	}, service)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Edge server error")
		}
	}()

	log.Info().Str("port", cfg.API.Port).Msg("Edge server started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	if err := server.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Edge server shutdown error")
	}
	service.Stop()

	log.Info().Msg("Edge server stopped")
}
