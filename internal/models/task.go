package models

// TimeProperty configures a time-based price task.
type TimeProperty struct {
	_msgpack struct{} `msgpack:",as_array"`

	IntervalMs int64        `json:"interval_ms"`
	Duration   DurationUnit `json:"duration"`
}

// PercentProperty configures a progress (percentage-crossing) price task.
type PercentProperty struct {
	_msgpack struct{} `msgpack:",as_array"`

	Percent   float64        `json:"percentage"`
	Direction PriceDirection `json:"direction"`
}

// PriceTask is a user-submitted scheduled price watch. Exactly one of
// TimeProp/PercentProp is set on a valid task.
type PriceTask struct {
	_msgpack struct{} `msgpack:",as_array"`

	TaskID      string           `json:"task_id"`
	UserID      string           `json:"user_id"`
	Tokens      []string         `json:"symbols"`
	TradeType   TradeType        `json:"trade"`
	Exchange    Exchange         `json:"exchange"`
	PercentProp *PercentProperty `json:"percent_prop,omitempty"`
	TimeProp    *TimeProperty    `json:"time_prop,omitempty"`
	Status      TaskState        `json:"status"`
	ProcessID   uint64           `json:"process_id"`
}

// PriceTaskResult couples a task with the instrument snapshots that fired it.
type PriceTaskResult struct {
	_msgpack struct{} `msgpack:",as_array"`

	Task               PriceTask    `json:"task"`
	MatchedInstruments []Instrument `json:"matched_instruments"`
}

// AccountTask asks the scheduler to start, stop or update an account monitor.
type AccountTask struct {
	_msgpack struct{} `msgpack:",as_array"`

	TaskID     string            `json:"task_id"`
	UserID     string            `json:"user_id"`
	Credential AccountCredential `json:"-"`
	Exchange   Exchange          `json:"exchange"`
	TradeType  TradeType         `json:"trade_type"`
	Operation  TaskOperation     `json:"operation"`
}

// AccountTaskResult reports the scheduler's handling of one AccountTask.
type AccountTaskResult struct {
	_msgpack struct{} `msgpack:",as_array"`

	TaskID string    `json:"task_id"`
	UserID string    `json:"user_id"`
	State  TaskState `json:"state"`
}
