package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
	"github.com/crypto-telemetry/internal/pricing"
)

// resultCollector is a sink that remembers everything it receives.
type resultCollector struct {
	mu      sync.Mutex
	results []models.PriceTaskResult
}

func (rc *resultCollector) sink(result models.PriceTaskResult) {
	rc.mu.Lock()
	rc.results = append(rc.results, result)
	rc.mu.Unlock()
}

func (rc *resultCollector) snapshot() []models.PriceTaskResult {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]models.PriceTaskResult, len(rc.results))
	copy(out, rc.results)
	return out
}

func (rc *resultCollector) count() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.results)
}

// assertPriceEqual compares prices numerically; the decimal library may keep
// trailing zeros in the string form.
func assertPriceEqual(t *testing.T, expected, actual string) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	got := decimal.RequireFromString(actual)
	assert.True(t, want.Equal(got), "expected %s, got %s", expected, actual)
}

func progressTask(tokens []string, percent float64) models.PriceTask {
	direction := models.DirectionUp
	if percent < 0 {
		direction = models.DirectionDown
	}
	return models.PriceTask{
		TaskID:      "p1",
		UserID:      "u1",
		Tokens:      tokens,
		TradeType:   models.TradeTypeSpot,
		Exchange:    models.ExchangeBinance,
		PercentProp: &models.PercentProperty{Percent: percent, Direction: direction},
	}
}

func insertSpot(set *pricing.Set, symbol, price string) {
	set.Insert(models.Instrument{Symbol: symbol, LastPrice: price, TradeType: models.TradeTypeSpot})
}

func TestProgressUpCross(t *testing.T) {
	set := pricing.NewSet()
	insertSpot(set, "ETH", "100")

	collector := &resultCollector{}
	w := NewProgressWatch(set, progressTask([]string{"ETH"}, 10), collector.sink)
	w.Run()
	defer w.Stop()

	// Below the anchor: nothing may fire.
	insertSpot(set, "ETH", "109")
	time.Sleep(350 * time.Millisecond)
	assert.Equal(t, 0, collector.count())

	// Crossing fires exactly once, carrying the anchor price.
	insertSpot(set, "ETH", "111")
	require.Eventually(t, func() bool { return collector.count() == 1 }, time.Second, 20*time.Millisecond)

	results := collector.snapshot()
	require.Len(t, results[0].MatchedInstruments, 1)
	assert.Equal(t, "ETH", results[0].MatchedInstruments[0].Symbol)
	assertPriceEqual(t, "110", results[0].MatchedInstruments[0].LastPrice)

	// Terminal: later updates emit nothing further.
	insertSpot(set, "ETH", "200")
	time.Sleep(350 * time.Millisecond)
	assert.Equal(t, 1, collector.count())
}

func TestProgressDownCross(t *testing.T) {
	set := pricing.NewSet()
	insertSpot(set, "DOGE", "0.20")

	collector := &resultCollector{}
	w := NewProgressWatch(set, progressTask([]string{"DOGE"}, -25), collector.sink)
	w.Run()
	defer w.Stop()

	insertSpot(set, "DOGE", "0.16")
	time.Sleep(350 * time.Millisecond)
	assert.Equal(t, 0, collector.count())

	insertSpot(set, "DOGE", "0.15")
	require.Eventually(t, func() bool { return collector.count() == 1 }, time.Second, 20*time.Millisecond)

	results := collector.snapshot()
	require.Len(t, results[0].MatchedInstruments, 1)
	assertPriceEqual(t, "0.15", results[0].MatchedInstruments[0].LastPrice)
}

func TestProgressFiresAtMostOncePerToken(t *testing.T) {
	set := pricing.NewSet()
	insertSpot(set, "AAA", "100")
	insertSpot(set, "BBB", "200")

	collector := &resultCollector{}
	w := NewProgressWatch(set, progressTask([]string{"AAA", "BBB"}, 10), collector.sink)
	w.Run()
	defer w.Stop()

	insertSpot(set, "AAA", "110")
	insertSpot(set, "BBB", "220")
	require.Eventually(t, func() bool {
		total := 0
		for _, r := range collector.snapshot() {
			total += len(r.MatchedInstruments)
		}
		return total == 2
	}, time.Second, 20*time.Millisecond)

	// No token may appear twice across all emissions.
	seen := map[string]int{}
	for _, r := range collector.snapshot() {
		for _, inst := range r.MatchedInstruments {
			seen[inst.Symbol]++
		}
	}
	assert.Equal(t, map[string]int{"AAA": 1, "BBB": 1}, seen)
}

func TestProgressSkipsMissingTokens(t *testing.T) {
	set := pricing.NewSet()
	insertSpot(set, "KNOWN", "100")

	collector := &resultCollector{}
	w := NewProgressWatch(set, progressTask([]string{"KNOWN", "MISSING"}, 10), collector.sink)
	w.Run()
	defer w.Stop()

	// Even a massive later price for MISSING must not fire: it was absent at
	// anchor time.
	insertSpot(set, "MISSING", "99999")
	insertSpot(set, "KNOWN", "110")
	require.Eventually(t, func() bool { return collector.count() == 1 }, time.Second, 20*time.Millisecond)

	results := collector.snapshot()
	require.Len(t, results[0].MatchedInstruments, 1)
	assert.Equal(t, "KNOWN", results[0].MatchedInstruments[0].Symbol)
}

func TestProgressStopIsIdempotent(t *testing.T) {
	set := pricing.NewSet()
	insertSpot(set, "ETH", "100")

	w := NewProgressWatch(set, progressTask([]string{"ETH"}, 10), func(models.PriceTaskResult) {})
	w.Run()
	w.Stop()
	assert.NotPanics(t, w.Stop)
}
