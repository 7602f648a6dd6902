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

const (
	listenKeyRenewInterval = 30 * time.Minute
	accountReadIdleTimeout = 5 * time.Minute
)

// AccountStreamConfig selects the hosts for the user data stream.
type AccountStreamConfig struct {
	RESTHost    string
	WSHost      string
	RESTTimeout time.Duration
}

// AccountStream consumes one user's data stream: obtain a listen key, attach
// to its websocket, renew the key every thirty minutes, and normalize pushes
// into the account sink.
type AccountStream struct {
	cfg  AccountStreamConfig
	cred models.AccountCredential
	sink exchange.AccountSink
}

// NewAccountStream builds an account adapter for one credential.
func NewAccountStream(cfg AccountStreamConfig, cred models.AccountCredential, sink exchange.AccountSink) *AccountStream {
	return &AccountStream{cfg: cfg, cred: cred, sink: sink}
}

func (s *AccountStream) Name() string {
	return "binance-account-" + s.cred.UserID
}

func (s *AccountStream) Run(ctx context.Context) error {
	client := NewClient("https://"+s.cfg.RESTHost, s.cred.APIKey, s.cfg.RESTTimeout)
	listenKey, err := client.CreateListenKey(ctx)
	if err != nil {
		return fmt.Errorf("listenKey: %w", err)
	}

	conn, err := exchange.Dial(ctx, "wss://"+s.cfg.WSHost+"/ws/"+listenKey, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	stop := exchange.WatchContext(ctx, conn)
	defer stop()
	defer conn.Close()

	// A failed renewal is allowed to let the connection idle out; the
	// supervisor then drives the full reconnect path.
	renewCtx, cancelRenew := context.WithCancel(ctx)
	defer cancelRenew()
	go func() {
		ticker := time.NewTicker(listenKeyRenewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-renewCtx.Done():
				return
			case <-ticker.C:
				if err := client.KeepAliveListenKey(renewCtx, listenKey); err != nil {
					log.Error().Err(err).Str("user", s.cred.UserID).Msg("listenKey renewal failed")
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(accountReadIdleTimeout))
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

func (s *AccountStream) handleMessage(data []byte) {
	var probe wsEventProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		log.Error().Err(err).Str("user", s.cred.UserID).Msg("dropping unparseable account push")
		return
	}

	switch probe.Event {
	case "executionReport":
		s.handleExecutionReport(data)
	case "balanceUpdate":
		s.handleBalanceUpdate(data)
	case "outboundAccountPosition":
		s.handleAccountPosition(data)
	default:
		log.Debug().Str("event", probe.Event).Msg("ignoring account event type")
	}
}

func (s *AccountStream) handleExecutionReport(data []byte) {
	var report wsExecutionReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Error().Err(err).Msg("dropping malformed executionReport")
		return
	}

	commissionAsset := ""
	switch v := report.CommissionAsset.(type) {
	case string:
		commissionAsset = v
	case float64:
		commissionAsset = fmt.Sprintf("%v", v)
	}

	s.sink(models.BinanceOrderUpdate{
		Symbol:            report.Symbol,
		Side:              report.Side,
		OrderType:         report.OrderType,
		TimeInForce:       report.TimeInForce,
		Quantity:          report.Quantity,
		Price:             report.Price,
		StopPrice:         report.StopPrice,
		ExecutionType:     report.ExecutionType,
		OrderStatus:       report.OrderStatus,
		RejectReason:      report.RejectReason,
		OrderID:           fmt.Sprintf("%d", report.OrderID),
		LastFilledQty:     report.LastFilledQty,
		CumulativeFilled:  report.CumulativeFilled,
		LastExecutedPrice: report.LastPrice,
		CommissionAmount:  report.Commission,
		CommissionAsset:   commissionAsset,
		TradeID:           fmt.Sprintf("%d", report.TradeID),
		EventTime:         report.EventTime,
		TransactionTime:   report.TransactionTime,
		CreatedTime:       report.CreatedTime,
		UserID:            s.cred.UserID,
	})
}

func (s *AccountStream) handleBalanceUpdate(data []byte) {
	var update wsBalanceUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		log.Error().Err(err).Msg("dropping malformed balanceUpdate")
		return
	}
	s.sink(models.BinanceBalanceUpdate{
		Asset:     update.Asset,
		Delta:     update.Delta,
		EventTime: update.EventTime,
		ClearTime: update.ClearTime,
		UserID:    s.cred.UserID,
	})
}

func (s *AccountStream) handleAccountPosition(data []byte) {
	var position wsAccountPosition
	if err := json.Unmarshal(data, &position); err != nil {
		log.Error().Err(err).Msg("dropping malformed outboundAccountPosition")
		return
	}
	for _, b := range position.Balances {
		s.sink(models.BinanceAccountPosition{
			Asset:      b.Asset,
			Free:       b.Free,
			Locked:     b.Locked,
			EventTime:  position.EventTime,
			LastUpdate: position.LastUpdate,
			UserID:     s.cred.UserID,
		})
	}
}
