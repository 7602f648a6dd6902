package models

// Account-stream events. Exchange-specific numeric fields stay strings so the
// exchange's precision survives the trip to the consumer.

// BinanceOrderUpdate is one executionReport push.
type BinanceOrderUpdate struct {
	_msgpack struct{} `msgpack:",as_array"`

	Symbol            string `json:"symbol"`
	Side              string `json:"side"`
	OrderType         string `json:"order_type"`
	TimeInForce       string `json:"time_in_force"`
	Quantity          string `json:"quantity"`
	Price             string `json:"price"`
	StopPrice         string `json:"stop_price"`
	ExecutionType     string `json:"execution_type"`
	OrderStatus       string `json:"order_status"`
	RejectReason      string `json:"reject_reason"`
	OrderID           string `json:"order_id"`
	LastFilledQty     string `json:"last_filled_qty"`
	CumulativeFilled  string `json:"cumulative_filled"`
	LastExecutedPrice string `json:"last_executed_price"`
	CommissionAmount  string `json:"commission_amount"`
	CommissionAsset   string `json:"commission_asset"`
	TradeID           string `json:"trade_id"`
	EventTime         int64  `json:"event_time"`
	TransactionTime   int64  `json:"transaction_time"`
	CreatedTime       int64  `json:"created_time"`
	UserID            string `json:"user_id"`
}

// BinanceBalanceUpdate is one balanceUpdate push.
type BinanceBalanceUpdate struct {
	_msgpack struct{} `msgpack:",as_array"`

	Asset     string `json:"asset"`
	Delta     string `json:"delta"`
	EventTime int64  `json:"event_time"`
	ClearTime int64  `json:"clear_time"`
	UserID    string `json:"user_id"`
}

// BinanceAccountPosition is one asset entry expanded out of an
// outboundAccountPosition push.
type BinanceAccountPosition struct {
	_msgpack struct{} `msgpack:",as_array"`

	Asset      string `json:"asset"`
	Free       string `json:"free"`
	Locked     string `json:"locked"`
	EventTime  int64  `json:"event_time"`
	LastUpdate int64  `json:"last_update"`
	UserID     string `json:"user_id"`
}

// OkxOrderUpdate is one orders-channel push.
type OkxOrderUpdate struct {
	_msgpack struct{} `msgpack:",as_array"`

	InstrumentType  string `json:"instrument_type"`
	InstrumentID    string `json:"instrument_id"`
	Currency        string `json:"currency"`
	OrderID         string `json:"order_id"`
	Price           string `json:"price"`
	Quantity        string `json:"quantity"`
	OrderType       string `json:"order_type"`
	Side            string `json:"side"`
	PositionSide    string `json:"position_side"`
	TradeMode       string `json:"trade_mode"`
	LastFilledQty   string `json:"last_filled_qty"`
	LastFilledFee   string `json:"last_filled_fee"`
	LastFilledCcy   string `json:"last_filled_ccy"`
	State           string `json:"state"`
	FeeCurrency     string `json:"fee_currency"`
	Fee             string `json:"fee"`
	UpdatedTime     string `json:"updated_time"`
	CreatedTime     string `json:"created_time"`
	AmendResult     string `json:"amend_result"`
	AmendErrMessage string `json:"amend_err_message"`
	UserID          string `json:"user_id"`
}

// OkxBalanceData is one balance_and_position entry.
type OkxBalanceData struct {
	_msgpack struct{} `msgpack:",as_array"`

	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	UserID   string `json:"user_id"`
}

// KucoinOrderUpdate is one tradeOrders push.
type KucoinOrderUpdate struct {
	_msgpack struct{} `msgpack:",as_array"`

	Symbol     string `json:"symbol"`
	OrderID    string `json:"order_id"`
	OrderType  string `json:"order_type"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	Size       string `json:"size"`
	FilledSize string `json:"filled_size"`
	Status     string `json:"status"`
	EventType  string `json:"event_type"`
	OrderTime  int64  `json:"order_time"`
	UserID     string `json:"user_id"`
}

// KucoinBalanceUpdate is one account balance-change push.
type KucoinBalanceUpdate struct {
	_msgpack struct{} `msgpack:",as_array"`

	Currency      string `json:"currency"`
	Total         string `json:"total"`
	Available     string `json:"available"`
	Hold          string `json:"hold"`
	RelationEvent string `json:"relation_event"`
	Time          string `json:"time"`
	UserID        string `json:"user_id"`
}
