package kucoin

import "github.com/shopspring/decimal"

// midPrice averages best bid and ask, preserving string precision.
func midPrice(bid, ask string) (string, error) {
	b, err := decimal.NewFromString(bid)
	if err != nil {
		return "", err
	}
	a, err := decimal.NewFromString(ask)
	if err != nil {
		return "", err
	}
	return a.Add(b).Div(decimal.NewFromInt(2)).String(), nil
}
