package kucoin

import "encoding/json"

// REST endpoints
const (
	EndpointBulletPublic  = "/api/v1/bullet-public"
	EndpointBulletPrivate = "/api/v1/bullet-private"
	EndpointSpotSymbols   = "/api/v1/symbols"
	EndpointFutContracts  = "/api/v1/contracts/active"
)

// Websocket topics
const (
	TopicAllTickers    = "/market/ticker:all"
	TopicFutTicker     = "/contractMarket/tickerV2"
	TopicTradeOrders   = "/spotMarket/tradeOrdersV2"
	TopicBalanceChange = "/account/balance"
	TopicStopOrders    = "/spotMarket/advancedOrders"
)

// InstanceServer is one websocket endpoint advertised by the bullet response.
type InstanceServer struct {
	Endpoint     string `json:"endpoint"`
	Encrypt      bool   `json:"encrypt"`
	Protocol     string `json:"protocol"`
	PingInterval int64  `json:"pingInterval"`
	PingTimeout  int64  `json:"pingTimeout"`
}

// bulletResponse is the bullet-public/bullet-private reply.
type bulletResponse struct {
	Code string `json:"code"`
	Data struct {
		Token           string           `json:"token"`
		InstanceServers []InstanceServer `json:"instanceServers"`
	} `json:"data"`
}

// symbolsResponse is a symbol listing: spot symbols or active futures
// contracts, both of which carry data[].symbol.
type symbolsResponse struct {
	Code string `json:"code"`
	Data []struct {
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// wsCommand is an outgoing subscribe/ping message.
type wsCommand struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Topic          string `json:"topic,omitempty"`
	PrivateChannel bool   `json:"privateChannel,omitempty"`
	Response       bool   `json:"response,omitempty"`
}

// wsMessage is a generic incoming push.
type wsMessage struct {
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	Topic   string          `json:"topic"`
	Data    json.RawMessage `json:"data"`
}

// wsSpotTick is the data object of a /market/ticker:all push; the symbol
// rides in the enclosing subject.
type wsSpotTick struct {
	Price string `json:"price"`
}

// wsFuturesTick is the data object of a tickerV2 push.
type wsFuturesTick struct {
	Symbol       string `json:"symbol"`
	BestBidPrice string `json:"bestBidPrice"`
	BestAskPrice string `json:"bestAskPrice"`
}

// wsOrderChange is a tradeOrders push.
type wsOrderChange struct {
	Symbol     string `json:"symbol"`
	OrderID    string `json:"orderId"`
	OrderType  string `json:"orderType"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	Size       string `json:"size"`
	FilledSize string `json:"filledSize"`
	Status     string `json:"status"`
	Type       string `json:"type"`
	OrderTime  int64  `json:"orderTime"`
}

// wsBalanceChange is an /account/balance push.
type wsBalanceChange struct {
	Currency      string `json:"currency"`
	Total         string `json:"total"`
	Available     string `json:"available"`
	Hold          string `json:"hold"`
	RelationEvent string `json:"relationEvent"`
	Time          string `json:"time"`
}
