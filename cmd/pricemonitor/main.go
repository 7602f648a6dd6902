package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/config"
	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/exchange/binance"
	"github.com/crypto-telemetry/internal/exchange/kucoin"
	"github.com/crypto-telemetry/internal/exchange/okx"
	"github.com/crypto-telemetry/internal/models"
	"github.com/crypto-telemetry/internal/pricing"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	log.Info().Msg("Starting price monitor...")

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

	index := pricing.NewIndex()

	// Per-exchange sink: local index plus broker fan-out.
	sinks := make(map[models.Exchange]exchange.InstrumentSink)
	for _, ex := range models.AllExchanges() {
		pub, err := bus.Publisher(broker.PriceEndpoint(ex))
		if err != nil {
			log.Fatal().Err(err).Str("exchange", ex.String()).Msg("Failed to bind price endpoint")
		}
		defer pub.Close()

		set := index.Exchange(ex)
		exchangeName := ex.String()
		sinks[ex] = func(inst models.Instrument) {
			set.Insert(inst)
			if err := pub.Publish(inst); err != nil {
				log.Error().Err(err).Str("exchange", exchangeName).Msg("tick publish failed")
			}
		}
	}

	var supervisors []*exchange.Supervisor
	wait := cfg.Exchange.PriceReconnectWait

	if cfg.Exchange.Binance.Enabled {
		spot := binance.NewPriceStream(binance.PriceStreamConfig{
			RESTHost:    cfg.Exchange.Binance.SpotRESTHost,
			WSHost:      cfg.Exchange.Binance.SpotWSHost,
			TradeType:   models.TradeTypeSpot,
			RESTTimeout: cfg.Exchange.RESTTimeout,
		}, sinks[models.ExchangeBinance])
		futures := binance.NewPriceStream(binance.PriceStreamConfig{
			RESTHost:    cfg.Exchange.Binance.FutRESTHost,
			WSHost:      cfg.Exchange.Binance.FutWSHost,
			TradeType:   models.TradeTypeFutures,
			RESTTimeout: cfg.Exchange.RESTTimeout,
		}, sinks[models.ExchangeBinance])
		supervisors = append(supervisors,
			exchange.NewSupervisor(spot, wait),
			exchange.NewSupervisor(futures, wait),
		)
	}

	if cfg.Exchange.Kucoin.Enabled {
		spot := kucoin.NewPriceStream(kucoin.PriceStreamConfig{
			RESTHost:    cfg.Exchange.Kucoin.SpotRESTHost,
			TradeType:   models.TradeTypeSpot,
			RESTTimeout: cfg.Exchange.RESTTimeout,
		}, sinks[models.ExchangeKucoin])
		futures := kucoin.NewPriceStream(kucoin.PriceStreamConfig{
			RESTHost:    cfg.Exchange.Kucoin.FutRESTHost,
			TradeType:   models.TradeTypeFutures,
			RESTTimeout: cfg.Exchange.RESTTimeout,
		}, sinks[models.ExchangeKucoin])
		supervisors = append(supervisors,
			exchange.NewSupervisor(spot, wait),
			exchange.NewSupervisor(futures, wait),
		)
	}

	if cfg.Exchange.Okx.Enabled {
		for _, trade := range []models.TradeType{models.TradeTypeSpot, models.TradeTypeSwap, models.TradeTypeFutures} {
			stream := okx.NewPriceStream(okx.PriceStreamConfig{
				WSHost:    cfg.Exchange.Okx.WSHost,
				TradeType: trade,
			}, sinks[models.ExchangeOkx])
			supervisors = append(supervisors, exchange.NewSupervisor(stream, wait))
		}
	}

	for _, sup := range supervisors {
		sup.Start()
	}
	log.Info().Int("adapters", len(supervisors)).Msg("Price monitor started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	for _, sup := range supervisors {
		sup.Stop()
	}
	log.Info().Msg("Price monitor stopped")
}
