package edge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/models"
)

func newTestService(t *testing.T) (*Service, broker.Bus) {
	bus := broker.NewIPCBus(t.TempDir())
	service := New(bus, nil, 5*time.Second)
	require.NoError(t, service.Start())
	t.Cleanup(service.Stop)
	return service, bus
}

func TestReplicaIndexFollowsPriceStream(t *testing.T) {
	service, bus := newTestService(t)

	pub, err := bus.Publisher(broker.PriceEndpoint(models.ExchangeBinance))
	require.NoError(t, err)
	defer pub.Close()

	tick := models.Instrument{Symbol: "BTC-USDT", LastPrice: "42000", TradeType: models.TradeTypeSpot}
	require.Eventually(t, func() bool {
		if err := pub.Publish(tick); err != nil {
			return false
		}
		_, ok := service.LatestPrice(models.ExchangeBinance, models.TradeTypeSpot, "BTC-USDT")
		return ok
	}, 10*time.Second, 50*time.Millisecond)

	inst, ok := service.LatestPrice(models.ExchangeBinance, models.TradeTypeSpot, "BTC-USDT")
	require.True(t, ok)
	assert.Equal(t, "42000", inst.LastPrice)
}

func TestScheduledTimeTaskPublishesResults(t *testing.T) {
	service, bus := newTestService(t)

	service.Index().Exchange(models.ExchangeBinance).Insert(models.Instrument{
		Symbol: "BTC-USDT", LastPrice: "100", Open24h: "90", TradeType: models.TradeTypeSpot,
	})

	results, err := bus.Subscriber(broker.EndpointPriceResult)
	require.NoError(t, err)
	defer results.Close()

	rejected := service.SchedulePriceTasks([]models.PriceTask{{
		TaskID:    "t1",
		UserID:    "u1",
		Tokens:    []string{"BTC-USDT"},
		TradeType: models.TradeTypeSpot,
		Exchange:  models.ExchangeBinance,
		TimeProp:  &models.TimeProperty{IntervalMs: 100},
	}})
	require.Empty(t, rejected)

	var result models.PriceTaskResult
	require.Eventually(t, func() bool {
		select {
		case env := <-results.Messages():
			if env.Kind != broker.KindPriceTaskResult {
				return false
			}
			return broker.Decode(env, &result) == nil
		default:
			return false
		}
	}, 10*time.Second, 20*time.Millisecond)

	assert.Equal(t, "t1", result.Task.TaskID)
	require.Len(t, result.MatchedInstruments, 1)
	assert.Equal(t, "BTC-USDT", result.MatchedInstruments[0].Symbol)
}

func TestSchedulePriceTasksRejectsInvalid(t *testing.T) {
	service, _ := newTestService(t)

	rejected := service.SchedulePriceTasks([]models.PriceTask{{
		TaskID:   "bad",
		UserID:   "u1",
		Tokens:   nil,
		Exchange: models.ExchangeBinance,
		TimeProp: &models.TimeProperty{IntervalMs: 100},
	}})
	require.Len(t, rejected, 1)
	assert.Empty(t, service.Registry().ListAll())
}

func TestMonitorAccountWaitsForSchedulerResult(t *testing.T) {
	service, bus := newTestService(t)

	statusPub, err := bus.Publisher(broker.EndpointTaskStatus)
	require.NoError(t, err)
	defer statusPub.Close()

	// Stand-in scheduler: answer the task id until the waiter picks it up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				statusPub.Publish(models.AccountTaskResult{
					TaskID: "m1", UserID: "u1", State: models.TaskRunning,
				})
			}
		}
	}()

	result, err := service.MonitorAccount(models.AccountTask{
		TaskID: "m1",
		UserID: "u1",
		Credential: models.AccountCredential{
			UserID: "u1", APIKey: "k", SecretKey: "s",
		},
		Exchange:  models.ExchangeBinance,
		Operation: models.OperationAdd,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskRunning, result.State)
}

func TestMonitorAccountUnknownExchange(t *testing.T) {
	service, _ := newTestService(t)
	_, err := service.MonitorAccount(models.AccountTask{
		TaskID:   "m9",
		Exchange: models.ExchangeTotal,
	})
	assert.ErrorIs(t, err, models.ErrUnknownExchange)
}
