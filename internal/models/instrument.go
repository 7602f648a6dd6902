package models

// Instrument is the latest known state of one tradable pair on one market.
// Prices stay in the exchange's own string representation end to end; they are
// parsed only where arithmetic or a numeric comparison is unavoidable.
type Instrument struct {
	_msgpack struct{} `msgpack:",as_array"`

	Symbol    string    `json:"symbol"`
	LastPrice string    `json:"last_price"`
	Open24h   string    `json:"open_24h"`
	TradeType TradeType `json:"trade_type"`
}

// InstrumentKey identifies an instrument inside one exchange's set.
type InstrumentKey struct {
	Symbol    string
	TradeType TradeType
}

// Key returns the identity of the instrument; price fields take no part in it.
func (i Instrument) Key() InstrumentKey {
	return InstrumentKey{Symbol: i.Symbol, TradeType: i.TradeType}
}
