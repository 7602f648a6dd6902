package watch

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crypto-telemetry/internal/models"
	"github.com/crypto-telemetry/internal/pricing"
)

// progressCheckInterval is how often anchors are compared against the index.
const progressCheckInterval = 100 * time.Millisecond

var oneHundred = decimal.NewFromInt(100)

// anchor is one token's precomputed threshold.
type anchor struct {
	instrument models.Instrument // anchor form: LastPrice holds the threshold
	price      decimal.Decimal
}

// ProgressWatch fires at most once per token: the anchor is fixed from the
// snapshot at Run, each crossing removes its entry from the working list, and
// the watch goes terminal once the list empties.
type ProgressWatch struct {
	set  *pricing.Set
	task models.PriceTask
	sink ResultSink

	// compare reports whether current has crossed the anchor.
	compare func(current, anchor decimal.Decimal) bool

	mu      sync.Mutex
	anchors []anchor
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewProgressWatch binds a progress task to the index view for its exchange.
func NewProgressWatch(set *pricing.Set, task models.PriceTask, sink ResultSink) *ProgressWatch {
	w := &ProgressWatch{set: set, task: task, sink: sink}
	if task.PercentProp.Percent < 0 {
		w.compare = func(current, anchor decimal.Decimal) bool {
			return current.LessThanOrEqual(anchor)
		}
	} else {
		w.compare = func(current, anchor decimal.Decimal) bool {
			return current.GreaterThanOrEqual(anchor)
		}
	}
	return w
}

func (w *ProgressWatch) Task() models.PriceTask { return w.task }

// Run computes the anchors from the current snapshot and starts polling.
// Tokens missing from the index at anchor time are skipped and never fire.
func (w *ProgressWatch) Run() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	factor := decimal.NewFromFloat(w.task.PercentProp.Percent).Div(oneHundred)
	w.anchors = w.anchors[:0]
	for _, token := range w.task.Tokens {
		key := models.InstrumentKey{Symbol: token, TradeType: w.task.TradeType}
		inst, ok := w.set.Find(key)
		if !ok {
			continue
		}
		current, err := decimal.NewFromString(inst.LastPrice)
		if err != nil {
			continue
		}
		price := current.Add(current.Mul(factor))
		inst.LastPrice = price.String()
		w.anchors = append(w.anchors, anchor{instrument: inst, price: price})
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
}

func (w *ProgressWatch) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(progressCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if terminal := w.checkPrices(); terminal {
				go w.Stop()
				return
			}
		}
	}
}

// checkPrices fires crossed anchors and shrinks the working list. Returns
// true once the list is empty.
func (w *ProgressWatch) checkPrices() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	matched := make([]models.Instrument, 0, len(w.anchors))
	remaining := w.anchors[:0]
	for _, a := range w.anchors {
		inst, ok := w.set.Find(a.instrument.Key())
		if !ok {
			remaining = append(remaining, a)
			continue
		}
		current, err := decimal.NewFromString(inst.LastPrice)
		if err != nil {
			remaining = append(remaining, a)
			continue
		}
		if w.compare(current, a.price) {
			matched = append(matched, a.instrument)
			continue
		}
		remaining = append(remaining, a)
	}
	w.anchors = remaining

	if len(matched) > 0 {
		w.sink(models.PriceTaskResult{Task: w.task, MatchedInstruments: matched})
	}
	return len(w.anchors) == 0
}

// Stop cancels polling and drops the working list. Idempotent; stopping a
// terminal watch is a no-op.
func (w *ProgressWatch) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
