package binance

// REST endpoints
const (
	EndpointSpotTickerPrice    = "/api/v3/ticker/price"
	EndpointFuturesTickerPrice = "/fapi/v1/ticker/price"
	EndpointUserDataStream     = "/api/v3/userDataStream"
)

// restTicker is one entry of the ticker/price bootstrap response.
type restTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// listenKeyResponse is the userDataStream creation response.
type listenKeyResponse struct {
	ListenKey string `json:"listenKey"`
}

// wsTicker is one element of the !ticker@arr push.
type wsTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	CloseTime int64  `json:"C"`
	Open      string `json:"o"`
	OpenTime  int64  `json:"O"`
}

// wsEventProbe reads just the dispatch field of a user-stream push. EventTime
// gives "E" its own field; encoding/json matches keys case-insensitively, so
// without it "E" would land on Event.
type wsEventProbe struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
}

// wsExecutionReport mirrors the executionReport payload.
type wsExecutionReport struct {
	Event            string `json:"e"`
	Symbol           string `json:"s"`
	Side             string `json:"S"`
	OrderType        string `json:"o"`
	TimeInForce      string `json:"f"`
	IcebergQty       string `json:"F"`
	Quantity         string `json:"q"`
	QuoteOrderQty    string `json:"Q"`
	Price            string `json:"p"`
	StopPrice        string `json:"P"`
	ExecutionType    string `json:"x"`
	OrderStatus      string `json:"X"`
	RejectReason     string `json:"r"`
	OrderID          int64  `json:"i"`
	Ignore           int64  `json:"I"`
	LastFilledQty    string `json:"l"`
	CumulativeFilled string `json:"z"`
	CumulativeQuote  string `json:"Z"`
	LastPrice        string `json:"L"`
	Commission       string `json:"n"`
	CommissionAsset  any    `json:"N"`
	TradeID          int64  `json:"t"`
	EventTime        int64  `json:"E"`
	TransactionTime  int64  `json:"T"`
	CreatedTime      int64  `json:"O"`
}

// wsBalanceUpdate mirrors the balanceUpdate payload.
type wsBalanceUpdate struct {
	Event     string `json:"e"`
	Asset     string `json:"a"`
	Delta     string `json:"d"`
	EventTime int64  `json:"E"`
	ClearTime int64  `json:"T"`
}

// wsAccountPosition mirrors outboundAccountPosition; one record is emitted per
// balance entry.
type wsAccountPosition struct {
	Event      string `json:"e"`
	EventTime  int64  `json:"E"`
	LastUpdate int64  `json:"u"`
	Balances   []struct {
		Asset  string `json:"a"`
		Free   string `json:"f"`
		Locked string `json:"l"`
	} `json:"B"`
}
