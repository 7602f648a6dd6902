package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/models"
)

// futuresTopicBatch bounds the symbols joined into one tickerV2 topic.
const futuresTopicBatch = 90

// PriceStreamConfig selects the REST host for one KuCoin market.
type PriceStreamConfig struct {
	RESTHost    string
	TradeType   models.TradeType
	RESTTimeout time.Duration
}

// PriceStream consumes KuCoin tickers: bullet token, websocket upgrade,
// subscription, server-advertised ping cadence.
type PriceStream struct {
	cfg  PriceStreamConfig
	sink exchange.InstrumentSink

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewPriceStream builds a price adapter for one market.
func NewPriceStream(cfg PriceStreamConfig, sink exchange.InstrumentSink) *PriceStream {
	return &PriceStream{cfg: cfg, sink: sink}
}

func (s *PriceStream) Name() string {
	return "kucoin-price-" + s.cfg.TradeType.String()
}

func connectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func (s *PriceStream) Run(ctx context.Context) error {
	client := NewClient("https://"+s.cfg.RESTHost, models.AccountCredential{}, s.cfg.RESTTimeout)

	var symbols []string
	if s.cfg.TradeType != models.TradeTypeSpot {
		var err error
		symbols, err = client.Symbols(ctx, EndpointFutContracts)
		if err != nil {
			return fmt.Errorf("contracts bootstrap: %w", err)
		}
	}

	token, servers, err := client.Bullet(ctx, false)
	if err != nil {
		return fmt.Errorf("bullet token: %w", err)
	}
	server := servers[len(servers)-1]

	wsURL := server.Endpoint + "?token=" + token + "&connectId=" + connectID()
	conn, err := exchange.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	stop := exchange.WatchContext(ctx, conn)
	defer stop()
	defer conn.Close()
	s.conn = conn

	if err := s.subscribe(symbols); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go s.pingLoop(pingCtx, server.PingInterval)

	readIdle := time.Duration(server.PingTimeout+server.PingInterval) * time.Millisecond
	for {
		conn.SetReadDeadline(time.Now().Add(readIdle))
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

func (s *PriceStream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

func (s *PriceStream) subscribe(symbols []string) error {
	if s.cfg.TradeType == models.TradeTypeSpot {
		return s.writeJSON(wsCommand{
			ID:       connectID(),
			Type:     "subscribe",
			Topic:    TopicAllTickers,
			Response: true,
		})
	}

	for start := 0; start < len(symbols); start += futuresTopicBatch {
		end := start + futuresTopicBatch
		if end > len(symbols) {
			end = len(symbols)
		}
		cmd := wsCommand{
			ID:       connectID(),
			Type:     "subscribe",
			Topic:    TopicFutTicker + ":" + strings.Join(symbols[start:end], ","),
			Response: true,
		}
		if err := s.writeJSON(cmd); err != nil {
			return err
		}
	}
	return nil
}

// pingLoop keeps the session alive at the cadence the instance server
// advertised. KuCoin expects an application-level ping message, not a ws
// control frame.
func (s *PriceStream) pingLoop(ctx context.Context, intervalMs int64) {
	if intervalMs <= 0 {
		intervalMs = 18_000
	}
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeJSON(wsCommand{ID: connectID(), Type: "ping"}); err != nil {
				log.Error().Err(err).Str("adapter", s.Name()).Msg("ping failed")
				return
			}
		}
	}
}

func (s *PriceStream) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("adapter", s.Name()).Msg("dropping unparseable push")
		return
	}
	if msg.Type != "message" {
		return
	}

	inst, ok := s.parseTick(msg)
	if ok {
		s.sink(inst)
	}
}

func (s *PriceStream) parseTick(msg wsMessage) (models.Instrument, bool) {
	if s.cfg.TradeType == models.TradeTypeSpot {
		if !strings.HasPrefix(msg.Topic, "/market/ticker") || msg.Subject == "" {
			return models.Instrument{}, false
		}
		var tick wsSpotTick
		if err := json.Unmarshal(msg.Data, &tick); err != nil || tick.Price == "" {
			return models.Instrument{}, false
		}
		return models.Instrument{
			Symbol:    msg.Subject,
			LastPrice: tick.Price,
			TradeType: s.cfg.TradeType,
		}, true
	}

	var tick wsFuturesTick
	if err := json.Unmarshal(msg.Data, &tick); err != nil || tick.Symbol == "" {
		return models.Instrument{}, false
	}
	mid, err := midPrice(tick.BestBidPrice, tick.BestAskPrice)
	if err != nil {
		return models.Instrument{}, false
	}
	return models.Instrument{
		Symbol:    tick.Symbol,
		LastPrice: mid,
		TradeType: s.cfg.TradeType,
	}, true
}
