package watch

import (
	"context"
	"sync"
	"time"

	"github.com/crypto-telemetry/internal/models"
	"github.com/crypto-telemetry/internal/pricing"
)

// TimeWatch emits a snapshot of the task's tokens every interval. It is
// restartable: Run after Stop starts a fresh timer.
type TimeWatch struct {
	set  *pricing.Set
	task models.PriceTask
	sink ResultSink

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimeWatch binds a time-based task to the index view for its exchange.
func NewTimeWatch(set *pricing.Set, task models.PriceTask, sink ResultSink) *TimeWatch {
	return &TimeWatch{set: set, task: task, sink: sink}
}

func (w *TimeWatch) Task() models.PriceTask { return w.task }

// Run schedules the periodic snapshot. Calling Run while running is a no-op.
func (w *TimeWatch) Run() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
}

func (w *TimeWatch) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(w.task.TimeProp.IntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.fetchPrices()
		}
	}
}

// fetchPrices projects the index onto the task's tokens and emits a result
// when anything matched.
func (w *TimeWatch) fetchPrices() {
	matched := make([]models.Instrument, 0, len(w.task.Tokens))
	for _, token := range w.task.Tokens {
		key := models.InstrumentKey{Symbol: token, TradeType: w.task.TradeType}
		if inst, ok := w.set.Find(key); ok {
			matched = append(matched, inst)
		}
	}
	if len(matched) == 0 {
		return
	}
	w.sink(models.PriceTaskResult{Task: w.task, MatchedInstruments: matched})
}

// Stop cancels the timer and waits for the loop to exit. Idempotent.
func (w *TimeWatch) Stop() {
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
