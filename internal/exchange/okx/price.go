package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/models"
)

const (
	pingInterval    = 20 * time.Second
	readIdleTimeout = 30 * time.Second
)

func instTypeFor(t models.TradeType) string {
	switch t {
	case models.TradeTypeSpot:
		return "SPOT"
	case models.TradeTypeSwap:
		return "SWAP"
	case models.TradeTypeFutures:
		return "FUTURES"
	}
	return "UNKNOWN"
}

// PriceStreamConfig selects the host for one OKX market.
type PriceStreamConfig struct {
	WSHost    string
	TradeType models.TradeType
}

// PriceStream consumes OKX tickers: first learn the instrument ids for the
// market from the instruments channel, then subscribe to their tickers.
type PriceStream struct {
	cfg  PriceStreamConfig
	sink exchange.InstrumentSink

	writeMu sync.Mutex
	conn    *websocket.Conn

	pending    map[string]struct{}
	subscribed bool
}

// NewPriceStream builds a price adapter for one market.
func NewPriceStream(cfg PriceStreamConfig, sink exchange.InstrumentSink) *PriceStream {
	return &PriceStream{cfg: cfg, sink: sink}
}

func (s *PriceStream) Name() string {
	return "okx-price-" + s.cfg.TradeType.String()
}

func (s *PriceStream) Run(ctx context.Context) error {
	conn, err := exchange.Dial(ctx, "wss://"+s.cfg.WSHost+PathPublic, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	stop := exchange.WatchContext(ctx, conn)
	defer stop()
	defer conn.Close()
	s.conn = conn
	s.pending = make(map[string]struct{})
	s.subscribed = false

	if err := s.writeJSON(wsRequest{
		Op:   "subscribe",
		Args: []wsArg{{Channel: "instruments", InstType: instTypeFor(s.cfg.TradeType)}},
	}); err != nil {
		return fmt.Errorf("instruments subscribe: %w", err)
	}

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go s.pingLoop(pingCtx)

	for {
		conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := s.handleMessage(message); err != nil {
			return err
		}
	}
}

func (s *PriceStream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

// pingLoop sends the OKX application-level ping; the server answers with a
// literal "pong" text frame.
func (s *PriceStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := s.conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			s.writeMu.Unlock()
			if err != nil {
				log.Error().Err(err).Str("adapter", s.Name()).Msg("ping failed")
				return
			}
		}
	}
}

func (s *PriceStream) handleMessage(data []byte) error {
	if string(data) == "pong" {
		return nil
	}

	var push wsPush
	if err := json.Unmarshal(data, &push); err != nil {
		log.Error().Err(err).Str("adapter", s.Name()).Msg("dropping unparseable push")
		return nil
	}

	if push.Event != "" {
		if push.Event == "error" {
			log.Error().Str("code", push.Code).Str("msg", push.Msg).Str("adapter", s.Name()).Msg("okx event error")
		}
		return nil
	}

	switch push.Arg.Channel {
	case "instruments":
		s.collectInstruments(push.Data)
		if !s.subscribed && len(s.pending) > 0 {
			if err := s.subscribeTickers(); err != nil {
				return fmt.Errorf("ticker subscribe: %w", err)
			}
			s.subscribed = true
		}
	case "tickers":
		s.emitTickers(push.Data)
	}
	return nil
}

func (s *PriceStream) collectInstruments(data json.RawMessage) {
	var entries []wsInstrument
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Error().Err(err).Msg("dropping malformed instruments push")
		return
	}
	want := instTypeFor(s.cfg.TradeType)
	for _, e := range entries {
		if e.InstType == want && e.InstID != "" {
			s.pending[e.InstID] = struct{}{}
		}
	}
}

func (s *PriceStream) subscribeTickers() error {
	args := make([]wsArg, 0, len(s.pending))
	for instID := range s.pending {
		args = append(args, wsArg{Channel: "tickers", InstID: instID})
	}
	return s.writeJSON(wsRequest{Op: "subscribe", Args: args})
}

func (s *PriceStream) emitTickers(data json.RawMessage) {
	var ticks []wsTicker
	if err := json.Unmarshal(data, &ticks); err != nil {
		log.Error().Err(err).Msg("dropping malformed tickers push")
		return
	}
	for _, t := range ticks {
		if t.InstID == "" {
			continue
		}
		s.sink(models.Instrument{
			Symbol:    strings.ToUpper(t.InstID),
			LastPrice: t.Last,
			Open24h:   t.SodUtc8,
			TradeType: s.cfg.TradeType,
		})
	}
}
