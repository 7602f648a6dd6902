package pricing

import (
	"sync"

	"github.com/crypto-telemetry/internal/models"
)

// Set holds the most recent Instrument per (symbol, tradeType) key for one
// exchange. Safe for concurrent readers with a single writer.
type Set struct {
	mu    sync.RWMutex
	items map[models.InstrumentKey]models.Instrument
}

// NewSet creates an empty instrument set.
func NewSet() *Set {
	return &Set{items: make(map[models.InstrumentKey]models.Instrument)}
}

// Insert stores the instrument, replacing any existing element with the same
// key. Keys are never removed; the set grows monotonically during a run.
func (s *Set) Insert(inst models.Instrument) {
	s.mu.Lock()
	s.items[inst.Key()] = inst
	s.mu.Unlock()
}

// Find returns the latest record for the key, if any.
func (s *Set) Find(key models.InstrumentKey) (models.Instrument, bool) {
	s.mu.RLock()
	inst, ok := s.items[key]
	s.mu.RUnlock()
	return inst, ok
}

// Snapshot returns a point-in-time copy of the set.
func (s *Set) Snapshot() []models.Instrument {
	s.mu.RLock()
	out := make([]models.Instrument, 0, len(s.items))
	for _, inst := range s.items {
		out = append(out, inst)
	}
	s.mu.RUnlock()
	return out
}

// Len returns the number of distinct keys.
func (s *Set) Len() int {
	s.mu.RLock()
	n := len(s.items)
	s.mu.RUnlock()
	return n
}

// Index is the process-global map of exchange to instrument set.
type Index struct {
	sets map[models.Exchange]*Set
}

// NewIndex allocates a set per real exchange.
func NewIndex() *Index {
	sets := make(map[models.Exchange]*Set, len(models.AllExchanges()))
	for _, e := range models.AllExchanges() {
		sets[e] = NewSet()
	}
	return &Index{sets: sets}
}

// Exchange returns the set for one exchange. The sentinel exchange gets a new
// empty set on every call, so lookups stay total and nothing inserted into it
// is kept.
func (ix *Index) Exchange(e models.Exchange) *Set {
	if set, ok := ix.sets[e]; ok {
		return set
	}
	return NewSet()
}
