package watch

import (
	"sync"
	"sync/atomic"

	"github.com/crypto-telemetry/internal/models"
)

// Registry is the process-global map of user to running price tasks.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string][]Watcher
	processID atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string][]Watcher)}
}

// NextProcessID hands out the scheduler-assigned monotonic task id.
func (r *Registry) NextProcessID() uint64 {
	return r.processID.Add(1)
}

// Add registers a watcher under its task's user.
func (r *Registry) Add(w Watcher) {
	task := w.Task()
	r.mu.Lock()
	r.byUser[task.UserID] = append(r.byUser[task.UserID], w)
	r.mu.Unlock()
}

// RemoveByUserAndTask stops and drops every watcher matching (user, task).
// Returns true when at least one was removed.
func (r *Registry) RemoveByUserAndTask(userID, taskID string) bool {
	r.mu.Lock()
	watchers := r.byUser[userID]
	kept := watchers[:0]
	var removed []Watcher
	for _, w := range watchers {
		if w.Task().TaskID == taskID {
			removed = append(removed, w)
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		delete(r.byUser, userID)
	} else {
		r.byUser[userID] = kept
	}
	r.mu.Unlock()

	// Stop outside the lock; watchers wait for their loops to exit.
	for _, w := range removed {
		w.Stop()
	}
	return len(removed) > 0
}

// ListForUser returns the task definitions registered for one user.
func (r *Registry) ListForUser(userID string) []models.PriceTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	watchers := r.byUser[userID]
	tasks := make([]models.PriceTask, 0, len(watchers))
	for _, w := range watchers {
		tasks = append(tasks, w.Task())
	}
	return tasks
}

// ListAll flattens the registry into one sequence, in unspecified order.
func (r *Registry) ListAll() []models.PriceTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tasks []models.PriceTask
	for _, watchers := range r.byUser {
		for _, w := range watchers {
			tasks = append(tasks, w.Task())
		}
	}
	return tasks
}

// StopAll stops every registered watcher; used on shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	var all []Watcher
	for _, watchers := range r.byUser {
		all = append(all, watchers...)
	}
	r.byUser = make(map[string][]Watcher)
	r.mu.Unlock()

	for _, w := range all {
		w.Stop()
	}
}
