package pricing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
)

func TestSetInsertReplacesByKey(t *testing.T) {
	set := NewSet()
	set.Insert(models.Instrument{Symbol: "BTC-USDT", LastPrice: "100", TradeType: models.TradeTypeSpot})
	set.Insert(models.Instrument{Symbol: "BTC-USDT", LastPrice: "105", TradeType: models.TradeTypeSpot})

	inst, ok := set.Find(models.InstrumentKey{Symbol: "BTC-USDT", TradeType: models.TradeTypeSpot})
	require.True(t, ok)
	assert.Equal(t, "105", inst.LastPrice)
	assert.Equal(t, 1, set.Len())
}

func TestSetKeyIncludesTradeType(t *testing.T) {
	set := NewSet()
	set.Insert(models.Instrument{Symbol: "ETHUSDT", LastPrice: "1", TradeType: models.TradeTypeSpot})
	set.Insert(models.Instrument{Symbol: "ETHUSDT", LastPrice: "2", TradeType: models.TradeTypeFutures})

	assert.Equal(t, 2, set.Len())

	spot, ok := set.Find(models.InstrumentKey{Symbol: "ETHUSDT", TradeType: models.TradeTypeSpot})
	require.True(t, ok)
	assert.Equal(t, "1", spot.LastPrice)

	_, ok = set.Find(models.InstrumentKey{Symbol: "ETHUSDT", TradeType: models.TradeTypeSwap})
	assert.False(t, ok)
}

func TestSnapshotIsIsolatedCopy(t *testing.T) {
	set := NewSet()
	set.Insert(models.Instrument{Symbol: "DOGE-USDT", LastPrice: "0.20", TradeType: models.TradeTypeSpot})

	snapshot := set.Snapshot()
	require.Len(t, snapshot, 1)

	set.Insert(models.Instrument{Symbol: "DOGE-USDT", LastPrice: "0.25", TradeType: models.TradeTypeSpot})
	assert.Equal(t, "0.20", snapshot[0].LastPrice)
}

func TestConcurrentReadersSingleWriter(t *testing.T) {
	set := NewSet()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			set.Insert(models.Instrument{
				Symbol:    fmt.Sprintf("SYM%d", i%10),
				LastPrice: fmt.Sprintf("%d", i),
				TradeType: models.TradeTypeSpot,
			})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				set.Snapshot()
				set.Find(models.InstrumentKey{Symbol: "SYM0", TradeType: models.TradeTypeSpot})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, set.Len())
}

func TestIndexSentinelExchangeIsEmpty(t *testing.T) {
	ix := NewIndex()
	ix.Exchange(models.ExchangeBinance).Insert(models.Instrument{Symbol: "BTCUSDT", TradeType: models.TradeTypeSpot})

	assert.Equal(t, 1, ix.Exchange(models.ExchangeBinance).Len())
	assert.Equal(t, 0, ix.Exchange(models.ExchangeTotal).Len())
}
