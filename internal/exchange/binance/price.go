package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/models"
)

const priceReadIdleTimeout = 2 * time.Minute

// PriceStreamConfig selects the hosts for one Binance market.
type PriceStreamConfig struct {
	RESTHost    string
	WSHost      string
	TradeType   models.TradeType
	RESTTimeout time.Duration
}

// PriceStream consumes the all-market ticker stream and feeds the sink.
// One Run call is one full bootstrap-connect-read cycle.
type PriceStream struct {
	cfg  PriceStreamConfig
	sink exchange.InstrumentSink
}

// NewPriceStream builds a price adapter for one market.
func NewPriceStream(cfg PriceStreamConfig, sink exchange.InstrumentSink) *PriceStream {
	return &PriceStream{cfg: cfg, sink: sink}
}

func (s *PriceStream) Name() string {
	return "binance-price-" + s.cfg.TradeType.String()
}

func (s *PriceStream) restEndpoint() string {
	if s.cfg.TradeType == models.TradeTypeFutures {
		return EndpointFuturesTickerPrice
	}
	return EndpointSpotTickerPrice
}

func (s *PriceStream) Run(ctx context.Context) error {
	client := NewClient("https://"+s.cfg.RESTHost, "", s.cfg.RESTTimeout)
	tickers, err := client.TickerPrices(ctx, s.restEndpoint())
	if err != nil {
		return fmt.Errorf("ticker bootstrap: %w", err)
	}
	for _, t := range tickers {
		s.sink(models.Instrument{
			Symbol:    t.Symbol,
			LastPrice: t.Price,
			TradeType: s.cfg.TradeType,
		})
	}
	log.Info().Int("symbols", len(tickers)).Str("adapter", s.Name()).Msg("instrument set bootstrapped")

	conn, err := exchange.Dial(ctx, "wss://"+s.cfg.WSHost+"/ws/!ticker@arr", nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	stop := exchange.WatchContext(ctx, conn)
	defer stop()
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(priceReadIdleTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		s.handleMessage(message)
	}
}

func (s *PriceStream) handleMessage(data []byte) {
	var tickers []wsTicker
	if err := json.Unmarshal(data, &tickers); err != nil {
		log.Error().Err(err).Str("adapter", s.Name()).Msg("dropping unparseable ticker push")
		return
	}
	for _, t := range tickers {
		if t.Symbol == "" {
			continue
		}
		s.sink(models.Instrument{
			Symbol:    t.Symbol,
			LastPrice: t.LastPrice,
			Open24h:   t.Open,
			TradeType: s.cfg.TradeType,
		})
	}
}
