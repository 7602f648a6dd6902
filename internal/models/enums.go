package models

import (
	"encoding/json"
	"strings"
)

// Exchange identifies one of the supported exchanges. ExchangeTotal is a
// sentinel meaning "unset" and is never valid on a task or instrument.
type Exchange int

const (
	ExchangeBinance Exchange = iota
	ExchangeKucoin
	ExchangeOkx
	ExchangeTotal
)

var exchangeNames = [...]string{"binance", "kucoin", "okx", "total"}

func (e Exchange) String() string {
	if e < 0 || int(e) >= len(exchangeNames) {
		return "total"
	}
	return exchangeNames[e]
}

// ParseExchange maps a wire name to an Exchange. Unknown names map to
// ExchangeTotal so callers can reject them.
func ParseExchange(s string) Exchange {
	switch strings.ToLower(s) {
	case "binance":
		return ExchangeBinance
	case "kucoin":
		return ExchangeKucoin
	case "okx", "okex":
		return ExchangeOkx
	}
	return ExchangeTotal
}

// AllExchanges lists the real exchanges, excluding the sentinel.
func AllExchanges() []Exchange {
	return []Exchange{ExchangeBinance, ExchangeKucoin, ExchangeOkx}
}

func (e Exchange) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }

func (e *Exchange) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*e = ParseExchange(s)
	return nil
}

// TradeType identifies the market an instrument trades on.
type TradeType int

const (
	TradeTypeFutures TradeType = iota
	TradeTypeSpot
	TradeTypeSwap
	TradeTypeTotal
)

var tradeTypeNames = [...]string{"futures", "spot", "swap", "total"}

func (t TradeType) String() string {
	if t < 0 || int(t) >= len(tradeTypeNames) {
		return "total"
	}
	return tradeTypeNames[t]
}

func ParseTradeType(s string) TradeType {
	switch strings.ToLower(s) {
	case "futures":
		return TradeTypeFutures
	case "spot":
		return TradeTypeSpot
	case "swap":
		return TradeTypeSwap
	}
	return TradeTypeTotal
}

func (t TradeType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *TradeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTradeType(s)
	return nil
}

// TaskState is the lifecycle state reported on task results.
type TaskState int

const (
	TaskInitiated TaskState = iota
	TaskRunning
	TaskStopped
	TaskRestarted
	TaskRemoved
	TaskUnknown
)

var taskStateNames = [...]string{"initiated", "running", "stopped", "restarted", "remove", "unknown"}

func (s TaskState) String() string {
	if s < 0 || int(s) >= len(taskStateNames) {
		return "unknown"
	}
	return taskStateNames[s]
}

func (s TaskState) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// TaskOperation is the action carried by an account-monitor task.
type TaskOperation int

const (
	OperationAdd TaskOperation = iota
	OperationRemove
	OperationUpdate
)

func (o TaskOperation) String() string {
	switch o {
	case OperationAdd:
		return "add"
	case OperationRemove:
		return "remove"
	}
	return "update"
}

// PriceDirection is the side a progress task watches for.
type PriceDirection int

const (
	DirectionUp PriceDirection = iota
	DirectionDown
	DirectionInvalid
)

func ParsePriceDirection(s string) PriceDirection {
	switch strings.ToLower(s) {
	case "up":
		return DirectionUp
	case "down":
		return DirectionDown
	}
	return DirectionInvalid
}

func (d PriceDirection) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	}
	return "invalid"
}

func (d PriceDirection) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *PriceDirection) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParsePriceDirection(s)
	return nil
}

// DurationUnit scales the interval supplied on a time-based task.
type DurationUnit int

const (
	DurationSeconds DurationUnit = iota
	DurationMinutes
	DurationHours
	DurationDays
	DurationWeeks
	DurationInvalid
)

func ParseDurationUnit(s string) DurationUnit {
	switch strings.ToLower(s) {
	case "second", "seconds":
		return DurationSeconds
	case "minute", "minutes":
		return DurationMinutes
	case "hour", "hours":
		return DurationHours
	case "day", "days":
		return DurationDays
	case "week", "weeks":
		return DurationWeeks
	}
	return DurationInvalid
}

// Millis converts n units into milliseconds. Invalid units pass n through
// unchanged, the wire already carries milliseconds in that case.
func (u DurationUnit) Millis(n int64) int64 {
	switch u {
	case DurationSeconds:
		return n * 1_000
	case DurationMinutes:
		return n * 60_000
	case DurationHours:
		return n * 3_600_000
	case DurationDays:
		return n * 86_400_000
	case DurationWeeks:
		return n * 7 * 86_400_000
	}
	return n
}

func (u DurationUnit) String() string {
	switch u {
	case DurationSeconds:
		return "seconds"
	case DurationMinutes:
		return "minutes"
	case DurationHours:
		return "hours"
	case DurationDays:
		return "days"
	case DurationWeeks:
		return "weeks"
	}
	return "invalid"
}

func (u *DurationUnit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*u = ParseDurationUnit(s)
	return nil
}

func (u DurationUnit) MarshalJSON() ([]byte, error) { return json.Marshal(u.String()) }
