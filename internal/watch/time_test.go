package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
	"github.com/crypto-telemetry/internal/pricing"
)

func timeTask(tokens []string, intervalMs int64) models.PriceTask {
	return models.PriceTask{
		TaskID:    "t1",
		UserID:    "u1",
		Tokens:    tokens,
		TradeType: models.TradeTypeSpot,
		Exchange:  models.ExchangeBinance,
		TimeProp:  &models.TimeProperty{IntervalMs: intervalMs},
	}
}

func TestTimeWatchFiresPeriodically(t *testing.T) {
	set := pricing.NewSet()
	set.Insert(models.Instrument{Symbol: "BTC-USDT", LastPrice: "100", Open24h: "90", TradeType: models.TradeTypeSpot})

	collector := &resultCollector{}
	w := NewTimeWatch(set, timeTask([]string{"BTC-USDT"}, 200), collector.sink)
	w.Run()
	defer w.Stop()

	time.Sleep(650 * time.Millisecond)
	results := collector.snapshot()
	require.GreaterOrEqual(t, len(results), 3)
	for _, r := range results {
		require.Len(t, r.MatchedInstruments, 1)
		assert.Equal(t, "BTC-USDT", r.MatchedInstruments[0].Symbol)
	}
}

func TestTimeWatchEmitsNothingWhenIndexEmpty(t *testing.T) {
	set := pricing.NewSet()

	collector := &resultCollector{}
	w := NewTimeWatch(set, timeTask([]string{"BTC-USDT"}, 50), collector.sink)
	w.Run()
	defer w.Stop()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, collector.count())
}

func TestTimeWatchProjectsOnlyMatchingTradeType(t *testing.T) {
	set := pricing.NewSet()
	set.Insert(models.Instrument{Symbol: "BTC-USDT", LastPrice: "100", TradeType: models.TradeTypeFutures})

	collector := &resultCollector{}
	w := NewTimeWatch(set, timeTask([]string{"BTC-USDT"}, 50), collector.sink)
	w.Run()
	defer w.Stop()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, collector.count())
}

func TestTimeWatchIsRestartable(t *testing.T) {
	set := pricing.NewSet()
	set.Insert(models.Instrument{Symbol: "ETH-USDT", LastPrice: "1", TradeType: models.TradeTypeSpot})

	collector := &resultCollector{}
	w := NewTimeWatch(set, timeTask([]string{"ETH-USDT"}, 50), collector.sink)

	w.Run()
	require.Eventually(t, func() bool { return collector.count() >= 1 }, time.Second, 10*time.Millisecond)
	w.Stop()

	stopped := collector.count()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, stopped, collector.count())

	w.Run()
	require.Eventually(t, func() bool { return collector.count() > stopped }, time.Second, 10*time.Millisecond)
	w.Stop()
}

func TestTimeWatchStopIsIdempotent(t *testing.T) {
	set := pricing.NewSet()
	w := NewTimeWatch(set, timeTask([]string{"X"}, 50), func(models.PriceTaskResult) {})
	w.Run()
	w.Stop()
	assert.NotPanics(t, w.Stop)
}
