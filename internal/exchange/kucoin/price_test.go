package kucoin

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
)

func TestParseSpotTick(t *testing.T) {
	s := NewPriceStream(PriceStreamConfig{TradeType: models.TradeTypeSpot}, nil)

	var msg wsMessage
	require.NoError(t, json.Unmarshal([]byte(`{
		"type":"message","topic":"/market/ticker:all","subject":"BTC-USDT",
		"data":{"price":"42000.5","sequence":"12345"}
	}`), &msg))

	inst, ok := s.parseTick(msg)
	require.True(t, ok)
	assert.Equal(t, "BTC-USDT", inst.Symbol)
	assert.Equal(t, "42000.5", inst.LastPrice)
	assert.Equal(t, models.TradeTypeSpot, inst.TradeType)
}

func TestParseFuturesTickUsesMidPrice(t *testing.T) {
	s := NewPriceStream(PriceStreamConfig{TradeType: models.TradeTypeFutures}, nil)

	var msg wsMessage
	require.NoError(t, json.Unmarshal([]byte(`{
		"type":"message","topic":"/contractMarket/tickerV2:XBTUSDTM","subject":"tickerV2",
		"data":{"symbol":"XBTUSDTM","bestBidPrice":"100","bestAskPrice":"101"}
	}`), &msg))

	inst, ok := s.parseTick(msg)
	require.True(t, ok)
	assert.Equal(t, "XBTUSDTM", inst.Symbol)
	mid := decimal.RequireFromString(inst.LastPrice)
	assert.True(t, mid.Equal(decimal.RequireFromString("100.5")), "got %s", inst.LastPrice)
}

func TestParseTickSkipsNonTickerMessages(t *testing.T) {
	s := NewPriceStream(PriceStreamConfig{TradeType: models.TradeTypeSpot}, nil)

	var msg wsMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"welcome","id":"abc"}`), &msg))
	_, ok := s.parseTick(msg)
	assert.False(t, ok)
}

func TestMidPricePrecision(t *testing.T) {
	mid, err := midPrice("0.1", "0.2")
	require.NoError(t, err)
	got := decimal.RequireFromString(mid)
	assert.True(t, got.Equal(decimal.RequireFromString("0.15")), "got %s", mid)

	_, err = midPrice("not-a-number", "0.2")
	assert.Error(t, err)
}

func TestConnectIDLength(t *testing.T) {
	id := connectID()
	assert.Len(t, id, 10)
	assert.NotEqual(t, id, connectID())
}
