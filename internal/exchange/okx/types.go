package okx

import "encoding/json"

// Websocket paths
const (
	PathPublic  = "/ws/v5/public"
	PathPrivate = "/ws/v5/private"
)

// instTypes are the OKX instrument types the private stream covers.
var instTypes = []string{"SPOT", "FUTURES", "SWAP"}

// wsArg is one subscription argument.
type wsArg struct {
	Channel    string `json:"channel"`
	InstType   string `json:"instType,omitempty"`
	InstID     string `json:"instId,omitempty"`
	APIKey     string `json:"apiKey,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Sign       string `json:"sign,omitempty"`
}

// wsRequest is an outgoing op message (subscribe / login).
type wsRequest struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

// wsPush is a generic incoming message.
type wsPush struct {
	Event string          `json:"event"`
	Code  string          `json:"code"`
	Msg   string          `json:"msg"`
	Arg   wsArg           `json:"arg"`
	Data  json.RawMessage `json:"data"`
}

// wsInstrument is one instruments-channel entry.
type wsInstrument struct {
	InstType string `json:"instType"`
	InstID   string `json:"instId"`
}

// wsTicker is one tickers-channel entry.
type wsTicker struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	SodUtc8 string `json:"sodUtc8"`
}

// wsOrder is one orders-channel entry.
type wsOrder struct {
	InstType    string `json:"instType"`
	InstID      string `json:"instId"`
	Currency    string `json:"ccy"`
	OrderID     string `json:"ordId"`
	Price       string `json:"px"`
	Size        string `json:"sz"`
	OrderType   string `json:"ordType"`
	Side        string `json:"side"`
	PosSide     string `json:"posSide"`
	TradeMode   string `json:"tdMode"`
	FillSize    string `json:"fillSz"`
	FillFee     string `json:"fillFee"`
	FillFeeCcy  string `json:"fillFeeCcy"`
	State       string `json:"state"`
	FeeCcy      string `json:"feeCcy"`
	Fee         string `json:"fee"`
	UpdateTime  string `json:"uTime"`
	CreateTime  string `json:"cTime"`
	AmendResult string `json:"amendResult"`
	AmendMsg    string `json:"msg"`
}

// wsBalancePosition is one balance_and_position entry.
type wsBalancePosition struct {
	BalData []struct {
		Currency string `json:"ccy"`
		CashBal  string `json:"cashBal"`
	} `json:"balData"`
}
