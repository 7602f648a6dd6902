package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/config"
	"github.com/crypto-telemetry/internal/scheduler"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	log.Info().Msg("Starting account monitor...")

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

	sched := scheduler.New(bus, scheduler.DefaultFactories(cfg.Exchange))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	if err := sched.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Scheduler failed")
	}
	log.Info().Msg("Account monitor stopped")
}
