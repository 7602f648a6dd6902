package models

import "errors"

var (
	// Task errors
	ErrInvalidTask      = errors.New("invalid price task")
	ErrTaskNotFound     = errors.New("task not found")
	ErrDuplicateSymbols = errors.New("duplicate symbols in task")

	// Lookup errors
	ErrUnknownExchange   = errors.New("unknown exchange")
	ErrUnknownTradeType  = errors.New("unknown trade type")
	ErrInstrumentMissing = errors.New("instrument not found")

	// Transport errors
	ErrBrokerClosed     = errors.New("broker endpoint closed")
	ErrSchedulingFailed = errors.New("task could not be scheduled")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal server error")
)
