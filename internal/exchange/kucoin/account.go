package kucoin

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

// subscriptionStage walks the ordered private subscriptions. The terminal
// stage returns control to the read loop and is never re-entered.
type subscriptionStage int

const (
	stageNone subscriptionStage = iota
	stageOrderChange
	stageBalanceChange
	stageStopOrder
	stageDone
)

// AccountStreamConfig selects the REST host for one KuCoin account stream.
type AccountStreamConfig struct {
	RESTHost    string
	TradeType   models.TradeType
	RESTTimeout time.Duration
}

// AccountStream consumes one user's private stream: signed bullet token,
// websocket upgrade, then order-change, balance-change and stop-order
// subscriptions in that order.
type AccountStream struct {
	cfg  AccountStreamConfig
	cred models.AccountCredential
	sink exchange.AccountSink

	writeMu sync.Mutex
	conn    *websocket.Conn
	stage   subscriptionStage
}

// NewAccountStream builds an account adapter for one credential.
func NewAccountStream(cfg AccountStreamConfig, cred models.AccountCredential, sink exchange.AccountSink) *AccountStream {
	return &AccountStream{cfg: cfg, cred: cred, sink: sink}
}

func (s *AccountStream) Name() string {
	return "kucoin-account-" + s.cred.UserID
}

func (s *AccountStream) Run(ctx context.Context) error {
	client := NewClient("https://"+s.cfg.RESTHost, s.cred, s.cfg.RESTTimeout)
	token, servers, err := client.Bullet(ctx, true)
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
	s.stage = stageNone

	if err := s.advanceSubscription(); err != nil {
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

		if s.stage != stageDone {
			if err := s.advanceSubscription(); err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
		}
	}
}

func (s *AccountStream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

// advanceSubscription sends the next private subscription and moves the stage
// forward.
func (s *AccountStream) advanceSubscription() error {
	var topic string
	switch s.stage {
	case stageNone:
		topic, s.stage = TopicTradeOrders, stageOrderChange
	case stageOrderChange:
		topic, s.stage = TopicBalanceChange, stageBalanceChange
	case stageBalanceChange:
		topic, s.stage = TopicStopOrders, stageStopOrder
	case stageStopOrder:
		s.stage = stageDone
		return nil
	default:
		return nil
	}

	return s.writeJSON(wsCommand{
		ID:             connectID(),
		Type:           "subscribe",
		Topic:          topic,
		PrivateChannel: true,
		Response:       true,
	})
}

func (s *AccountStream) pingLoop(ctx context.Context, intervalMs int64) {
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

func (s *AccountStream) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("user", s.cred.UserID).Msg("dropping unparseable account push")
		return
	}
	if msg.Type != "message" {
		return
	}

	switch {
	case strings.HasPrefix(msg.Topic, TopicTradeOrders), strings.HasPrefix(msg.Topic, TopicStopOrders):
		var order wsOrderChange
		if err := json.Unmarshal(msg.Data, &order); err != nil {
			log.Error().Err(err).Msg("dropping malformed order push")
			return
		}
		s.sink(models.KucoinOrderUpdate{
			Symbol:     order.Symbol,
			OrderID:    order.OrderID,
			OrderType:  order.OrderType,
			Side:       order.Side,
			Price:      order.Price,
			Size:       order.Size,
			FilledSize: order.FilledSize,
			Status:     order.Status,
			EventType:  order.Type,
			OrderTime:  order.OrderTime,
			UserID:     s.cred.UserID,
		})
	case strings.HasPrefix(msg.Topic, TopicBalanceChange):
		var balance wsBalanceChange
		if err := json.Unmarshal(msg.Data, &balance); err != nil {
			log.Error().Err(err).Msg("dropping malformed balance push")
			return
		}
		s.sink(models.KucoinBalanceUpdate{
			Currency:      balance.Currency,
			Total:         balance.Total,
			Available:     balance.Available,
			Hold:          balance.Hold,
			RelationEvent: balance.RelationEvent,
			Time:          balance.Time,
			UserID:        s.cred.UserID,
		})
	}
}
