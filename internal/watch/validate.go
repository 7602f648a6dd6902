package watch

import (
	"fmt"
	"sort"

	"github.com/crypto-telemetry/internal/models"
)

// Validate checks a submitted task and normalizes it in place: the percent is
// clamped to ±100 and the tokens are sorted. A task that fails any rule is
// rejected before it reaches the registry.
func Validate(task *models.PriceTask) error {
	if len(task.Tokens) == 0 {
		return fmt.Errorf("%w: no symbols", models.ErrInvalidTask)
	}
	if task.PercentProp == nil && task.TimeProp == nil {
		return fmt.Errorf("%w: neither time nor percentage property set", models.ErrInvalidTask)
	}
	if task.PercentProp != nil && task.TimeProp != nil {
		return fmt.Errorf("%w: both time and percentage properties set", models.ErrInvalidTask)
	}

	if task.PercentProp != nil {
		percent := task.PercentProp.Percent
		if percent > 100 {
			percent = 100
		} else if percent < -100 {
			percent = -100
		}
		if percent == 0 {
			return fmt.Errorf("%w: percentage is zero", models.ErrInvalidTask)
		}
		task.PercentProp.Percent = percent
	}

	if task.TimeProp != nil && task.TimeProp.IntervalMs <= 0 {
		return fmt.Errorf("%w: interval must be positive", models.ErrInvalidTask)
	}

	if task.Exchange == models.ExchangeTotal {
		return fmt.Errorf("%w: %s", models.ErrUnknownExchange, "exchange not set")
	}
	if task.TradeType == models.TradeTypeTotal {
		return fmt.Errorf("%w: %s", models.ErrUnknownTradeType, "trade type not set")
	}

	sort.Strings(task.Tokens)
	for i := 1; i < len(task.Tokens); i++ {
		if task.Tokens[i] == task.Tokens[i-1] {
			return fmt.Errorf("%w: %s", models.ErrDuplicateSymbols, task.Tokens[i])
		}
	}
	return nil
}
