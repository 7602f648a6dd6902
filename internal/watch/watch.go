// Package watch runs scheduled price tasks against a price index: periodic
// snapshots for time-based tasks, threshold crossings for progress tasks.
package watch

import (
	"github.com/crypto-telemetry/internal/models"
)

// Watcher is one running price task. Run and Stop are idempotent; Stop after
// terminal is a no-op.
type Watcher interface {
	Run()
	Stop()
	Task() models.PriceTask
}

// ResultSink receives the results a watcher emits.
type ResultSink func(models.PriceTaskResult)
