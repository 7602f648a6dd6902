package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/models"
)

// loginSign produces the OKX websocket login signature.
func loginSign(secret, timestamp string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp + "GET" + "/users/self/verify"))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// AccountStreamConfig selects the host for the private stream.
type AccountStreamConfig struct {
	WSHost string
}

// AccountStream consumes one user's private stream: login, orders channels
// for every instrument type, then balance_and_position once order data flows.
type AccountStream struct {
	cfg  AccountStreamConfig
	cred models.AccountCredential
	sink exchange.AccountSink

	writeMu sync.Mutex
	conn    *websocket.Conn

	balanceSubscribed bool
}

// NewAccountStream builds an account adapter for one credential.
func NewAccountStream(cfg AccountStreamConfig, cred models.AccountCredential, sink exchange.AccountSink) *AccountStream {
	return &AccountStream{cfg: cfg, cred: cred, sink: sink}
}

func (s *AccountStream) Name() string {
	return "okx-account-" + s.cred.UserID
}

func (s *AccountStream) Run(ctx context.Context) error {
	conn, err := exchange.Dial(ctx, "wss://"+s.cfg.WSHost+PathPrivate, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	stop := exchange.WatchContext(ctx, conn)
	defer stop()
	defer conn.Close()
	s.conn = conn
	s.balanceSubscribed = false

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.writeJSON(wsRequest{
		Op: "login",
		Args: []wsArg{{
			APIKey:     s.cred.APIKey,
			Passphrase: s.cred.Passphrase,
			Timestamp:  timestamp,
			Sign:       loginSign(s.cred.SecretKey, timestamp),
		}},
	}); err != nil {
		return fmt.Errorf("login write: %w", err)
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

func (s *AccountStream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

func (s *AccountStream) pingLoop(ctx context.Context) {
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

func (s *AccountStream) handleMessage(data []byte) error {
	if string(data) == "pong" {
		return nil
	}

	var push wsPush
	if err := json.Unmarshal(data, &push); err != nil {
		log.Error().Err(err).Str("user", s.cred.UserID).Msg("dropping unparseable account push")
		return nil
	}

	if push.Event == "login" {
		// Auth failure is transient by design; the supervisor reconnects.
		if push.Code != "0" {
			return fmt.Errorf("login rejected with code %s: %s", push.Code, push.Msg)
		}
		return s.subscribeOrders()
	}
	if push.Event != "" {
		if push.Event == "error" {
			log.Error().Str("code", push.Code).Str("msg", push.Msg).Str("adapter", s.Name()).Msg("okx event error")
		}
		return nil
	}

	switch push.Arg.Channel {
	case "orders":
		s.emitOrders(push.Data)
		if !s.balanceSubscribed {
			s.balanceSubscribed = true
			return s.writeJSON(wsRequest{
				Op:   "subscribe",
				Args: []wsArg{{Channel: "balance_and_position"}},
			})
		}
	case "balance_and_position":
		s.emitBalances(push.Data)
	}
	return nil
}

func (s *AccountStream) subscribeOrders() error {
	args := make([]wsArg, 0, len(instTypes))
	for _, instType := range instTypes {
		args = append(args, wsArg{Channel: "orders", InstType: instType})
	}
	return s.writeJSON(wsRequest{Op: "subscribe", Args: args})
}

func (s *AccountStream) emitOrders(data json.RawMessage) {
	var orders []wsOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		log.Error().Err(err).Msg("dropping malformed orders push")
		return
	}
	for _, o := range orders {
		s.sink(models.OkxOrderUpdate{
			InstrumentType:  o.InstType,
			InstrumentID:    o.InstID,
			Currency:        o.Currency,
			OrderID:         o.OrderID,
			Price:           o.Price,
			Quantity:        o.Size,
			OrderType:       o.OrderType,
			Side:            o.Side,
			PositionSide:    o.PosSide,
			TradeMode:       o.TradeMode,
			LastFilledQty:   o.FillSize,
			LastFilledFee:   o.FillFee,
			LastFilledCcy:   o.FillFeeCcy,
			State:           o.State,
			FeeCurrency:     o.FeeCcy,
			Fee:             o.Fee,
			UpdatedTime:     o.UpdateTime,
			CreatedTime:     o.CreateTime,
			AmendResult:     o.AmendResult,
			AmendErrMessage: o.AmendMsg,
			UserID:          s.cred.UserID,
		})
	}
}

func (s *AccountStream) emitBalances(data json.RawMessage) {
	var entries []wsBalancePosition
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Error().Err(err).Msg("dropping malformed balance push")
		return
	}
	for _, entry := range entries {
		for _, bal := range entry.BalData {
			s.sink(models.OkxBalanceData{
				Balance:  bal.CashBal,
				Currency: bal.Currency,
				UserID:   s.cred.UserID,
			})
		}
	}
}
