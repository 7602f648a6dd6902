// Package edge hosts the HTTP control plane's core: the task registry, both
// evaluators, a replica price index fed from the broker, and the
// account-monitor command path.
package edge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/models"
	"github.com/crypto-telemetry/internal/pricing"
	"github.com/crypto-telemetry/internal/storage"
	"github.com/crypto-telemetry/internal/watch"
)

// Service wires the edge's collaborators. Construct with New, then Start.
type Service struct {
	index    *pricing.Index
	registry *watch.Registry
	bus      broker.Bus
	journal  *storage.Journal // optional

	resultWait time.Duration

	resultPub   broker.Publisher
	accountPubs map[models.Exchange]broker.Publisher

	waiterMu sync.Mutex
	waiters  map[string]chan models.AccountTaskResult

	subs   []broker.Subscriber
	cancel context.CancelFunc
}

// New builds the edge service. journal may be nil.
func New(bus broker.Bus, journal *storage.Journal, resultWait time.Duration) *Service {
	if resultWait <= 0 {
		resultWait = 20 * time.Second
	}
	return &Service{
		index:       pricing.NewIndex(),
		registry:    watch.NewRegistry(),
		bus:         bus,
		journal:     journal,
		resultWait:  resultWait,
		accountPubs: make(map[models.Exchange]broker.Publisher),
		waiters:     make(map[string]chan models.AccountTaskResult),
	}
}

// Registry exposes the task registry for listings.
func (s *Service) Registry() *watch.Registry { return s.registry }

// Index exposes the replica price index.
func (s *Service) Index() *pricing.Index { return s.index }

// Start opens the broker endpoints and begins replicating prices and routing
// task-status results.
func (s *Service) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	pub, err := s.bus.Publisher(broker.EndpointPriceResult)
	if err != nil {
		return fmt.Errorf("price-result publisher: %w", err)
	}
	s.resultPub = pub

	for _, ex := range models.AllExchanges() {
		accountPub, err := s.bus.Publisher(broker.AccountTaskEndpoint(ex))
		if err != nil {
			return fmt.Errorf("%s account-task publisher: %w", ex, err)
		}
		s.accountPubs[ex] = accountPub

		sub, err := s.bus.Subscriber(broker.PriceEndpoint(ex))
		if err != nil {
			return fmt.Errorf("%s price subscriber: %w", ex, err)
		}
		s.subs = append(s.subs, sub)
		go s.replicatePrices(ctx, ex, sub)
	}

	statusSub, err := s.bus.Subscriber(broker.EndpointTaskStatus)
	if err != nil {
		return fmt.Errorf("task-status subscriber: %w", err)
	}
	s.subs = append(s.subs, statusSub)
	go s.routeTaskStatus(ctx, statusSub)

	return nil
}

// replicatePrices mirrors one exchange's tick stream into the local index.
func (s *Service) replicatePrices(ctx context.Context, ex models.Exchange, sub broker.Subscriber) {
	set := s.index.Exchange(ex)
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.Messages():
			if !ok {
				return
			}
			if env.Kind != broker.KindInstrument {
				continue
			}
			var inst models.Instrument
			if err := broker.Decode(env, &inst); err != nil {
				log.Error().Err(err).Str("exchange", ex.String()).Msg("dropping malformed tick")
				continue
			}
			set.Insert(inst)
		}
	}
}

// routeTaskStatus hands scheduler results to the waiter registered for the
// task id; results nobody waits for are dropped.
func (s *Service) routeTaskStatus(ctx context.Context, sub broker.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.Messages():
			if !ok {
				return
			}
			if env.Kind != broker.KindAccountTaskResult {
				continue
			}
			var result models.AccountTaskResult
			if err := broker.Decode(env, &result); err != nil {
				continue
			}
			s.waiterMu.Lock()
			waiter := s.waiters[result.TaskID]
			delete(s.waiters, result.TaskID)
			s.waiterMu.Unlock()
			if waiter != nil {
				waiter <- result
			}
		}
	}
}

// publishResult forwards an evaluator emission to the notification sink.
func (s *Service) publishResult(result models.PriceTaskResult) {
	if err := s.resultPub.Publish(result); err != nil {
		log.Error().Err(err).Str("task", result.Task.TaskID).Msg("failed to publish price task result")
	}
}

// SchedulePriceTasks validates and starts each task. Tasks failing validation
// come back in the rejected list with the error alongside.
func (s *Service) SchedulePriceTasks(tasks []models.PriceTask) (rejected []RejectedTask) {
	for i := range tasks {
		task := tasks[i]
		if err := watch.Validate(&task); err != nil {
			rejected = append(rejected, RejectedTask{Task: task, Reason: err.Error()})
			continue
		}

		task.ProcessID = s.registry.NextProcessID()
		task.Status = models.TaskRunning
		set := s.index.Exchange(task.Exchange)

		var watcher watch.Watcher
		if task.TimeProp != nil {
			watcher = watch.NewTimeWatch(set, task, s.publishResult)
		} else {
			watcher = watch.NewProgressWatch(set, task, s.publishResult)
		}
		s.registry.Add(watcher)
		watcher.Run()

		if s.journal != nil {
			if err := s.journal.RecordPriceTask(task); err != nil {
				log.Error().Err(err).Str("task", task.TaskID).Msg("journal write failed")
			}
		}
		log.Info().Str("task", task.TaskID).Str("user", task.UserID).Uint64("process", task.ProcessID).Msg("price task scheduled")
	}
	return rejected
}

// RejectedTask pairs a failed submission with its reason.
type RejectedTask struct {
	Task   models.PriceTask `json:"task"`
	Reason string           `json:"reason"`
}

// StopPriceTasks removes the given tasks for the user.
func (s *Service) StopPriceTasks(userID string, taskIDs []string) {
	for _, taskID := range taskIDs {
		if s.registry.RemoveByUserAndTask(userID, taskID) {
			log.Info().Str("task", taskID).Str("user", userID).Msg("price task stopped")
		}
		if s.journal != nil {
			if err := s.journal.DeletePriceTask(userID, taskID); err != nil {
				log.Error().Err(err).Str("task", taskID).Msg("journal delete failed")
			}
		}
	}
}

// MonitorAccount submits the account task to its exchange's scheduler and
// waits for the first result, up to the configured cap.
func (s *Service) MonitorAccount(task models.AccountTask) (models.AccountTaskResult, error) {
	pub, ok := s.accountPubs[task.Exchange]
	if !ok {
		return models.AccountTaskResult{}, models.ErrUnknownExchange
	}

	waiter := make(chan models.AccountTaskResult, 1)
	s.waiterMu.Lock()
	s.waiters[task.TaskID] = waiter
	s.waiterMu.Unlock()

	if err := pub.Publish(task); err != nil {
		s.waiterMu.Lock()
		delete(s.waiters, task.TaskID)
		s.waiterMu.Unlock()
		return models.AccountTaskResult{}, fmt.Errorf("%w: %v", models.ErrSchedulingFailed, err)
	}

	if s.journal != nil && task.Operation == models.OperationAdd {
		if err := s.journal.RecordAccountMonitor(task); err != nil {
			log.Error().Err(err).Str("task", task.TaskID).Msg("journal write failed")
		}
	}

	select {
	case result := <-waiter:
		return result, nil
	case <-time.After(s.resultWait):
		s.waiterMu.Lock()
		delete(s.waiters, task.TaskID)
		s.waiterMu.Unlock()
		return models.AccountTaskResult{
			TaskID: task.TaskID,
			UserID: task.UserID,
			State:  models.TaskUnknown,
		}, nil
	}
}

// TradingPairs snapshots the replica index for one exchange.
func (s *Service) TradingPairs(ex models.Exchange) []models.Instrument {
	return s.index.Exchange(ex).Snapshot()
}

// LatestPrice looks up a single instrument.
func (s *Service) LatestPrice(ex models.Exchange, trade models.TradeType, symbol string) (models.Instrument, bool) {
	return s.index.Exchange(ex).Find(models.InstrumentKey{Symbol: symbol, TradeType: trade})
}

// Stop tears down watchers, subscriptions and publishers.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.registry.StopAll()
	for _, sub := range s.subs {
		sub.Close()
	}
	if s.resultPub != nil {
		s.resultPub.Close()
	}
	for _, pub := range s.accountPubs {
		pub.Close()
	}
}
