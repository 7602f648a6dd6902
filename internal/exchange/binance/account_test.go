package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
)

func collectingStream(events *[]any) *AccountStream {
	return NewAccountStream(AccountStreamConfig{}, models.AccountCredential{UserID: "u1"}, func(event any) {
		*events = append(*events, event)
	})
}

func TestHandleExecutionReport(t *testing.T) {
	var events []any
	s := collectingStream(&events)

	s.handleMessage([]byte(`{
		"e":"executionReport","E":1499405658658,"s":"ETHBTC","S":"BUY","o":"LIMIT",
		"f":"GTC","q":"1.00000000","p":"0.10264410","P":"0.00000000","x":"NEW",
		"X":"NEW","r":"NONE","i":4293153,"l":"0.00000000","z":"0.00000000",
		"L":"0.00000000","n":"0","N":null,"t":-1,"T":1499405658657,"O":1499405658657
	}`))

	require.Len(t, events, 1)
	order, ok := events[0].(models.BinanceOrderUpdate)
	require.True(t, ok)
	assert.Equal(t, "ETHBTC", order.Symbol)
	assert.Equal(t, "BUY", order.Side)
	assert.Equal(t, "1.00000000", order.Quantity)
	assert.Equal(t, "4293153", order.OrderID)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, int64(1499405658658), order.EventTime)
}

func TestHandleBalanceUpdate(t *testing.T) {
	var events []any
	s := collectingStream(&events)

	s.handleMessage([]byte(`{"e":"balanceUpdate","E":1573200697110,"a":"BTC","d":"100.00000000","T":1573200697068}`))

	require.Len(t, events, 1)
	balance, ok := events[0].(models.BinanceBalanceUpdate)
	require.True(t, ok)
	assert.Equal(t, "BTC", balance.Asset)
	assert.Equal(t, "100.00000000", balance.Delta)
}

func TestHandleAccountPositionExpandsPerAsset(t *testing.T) {
	var events []any
	s := collectingStream(&events)

	s.handleMessage([]byte(`{
		"e":"outboundAccountPosition","E":1564034571105,"u":1564034571073,
		"B":[{"a":"ETH","f":"10000.000000","l":"0.000000"},{"a":"BTC","f":"1.5","l":"0.5"}]
	}`))

	require.Len(t, events, 2)
	first, ok := events[0].(models.BinanceAccountPosition)
	require.True(t, ok)
	assert.Equal(t, "ETH", first.Asset)
	assert.Equal(t, "10000.000000", first.Free)
	second := events[1].(models.BinanceAccountPosition)
	assert.Equal(t, "BTC", second.Asset)
	assert.Equal(t, "0.5", second.Locked)
}

func TestUnknownEventIsDropped(t *testing.T) {
	var events []any
	s := collectingStream(&events)

	s.handleMessage([]byte(`{"e":"listStatus","E":1}`))
	s.handleMessage([]byte(`not json at all`))
	assert.Empty(t, events)
}
