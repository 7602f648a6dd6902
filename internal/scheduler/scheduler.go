package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/config"
	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/exchange/binance"
	"github.com/crypto-telemetry/internal/exchange/kucoin"
	"github.com/crypto-telemetry/internal/exchange/okx"
	"github.com/crypto-telemetry/internal/models"
)

// AdapterFactory builds a supervised account adapter for one task. The sink
// receives the adapter's normalized account events.
type AdapterFactory func(task models.AccountTask, sink exchange.AccountSink) (*exchange.Supervisor, error)

// DefaultFactories wires the real exchange adapters with the configured
// hosts and reconnect policy.
func DefaultFactories(cfg config.ExchangeConfig) map[models.Exchange]AdapterFactory {
	return map[models.Exchange]AdapterFactory{
		models.ExchangeBinance: func(task models.AccountTask, sink exchange.AccountSink) (*exchange.Supervisor, error) {
			stream := binance.NewAccountStream(binance.AccountStreamConfig{
				RESTHost:    cfg.Binance.SpotRESTHost,
				WSHost:      cfg.Binance.SpotWSHost,
				RESTTimeout: cfg.RESTTimeout,
			}, task.Credential, sink)
			return exchange.NewSupervisor(stream, cfg.AccountReconnectWait), nil
		},
		models.ExchangeKucoin: func(task models.AccountTask, sink exchange.AccountSink) (*exchange.Supervisor, error) {
			host := cfg.Kucoin.SpotRESTHost
			if task.TradeType == models.TradeTypeFutures {
				host = cfg.Kucoin.FutRESTHost
			}
			stream := kucoin.NewAccountStream(kucoin.AccountStreamConfig{
				RESTHost:    host,
				TradeType:   task.TradeType,
				RESTTimeout: cfg.RESTTimeout,
			}, task.Credential, sink)
			return exchange.NewSupervisor(stream, cfg.AccountReconnectWait), nil
		},
		models.ExchangeOkx: func(task models.AccountTask, sink exchange.AccountSink) (*exchange.Supervisor, error) {
			stream := okx.NewAccountStream(okx.AccountStreamConfig{
				WSHost: cfg.Okx.WSHost,
			}, task.Credential, sink)
			return exchange.NewSupervisor(stream, cfg.AccountReconnectWait), nil
		},
	}
}

// monitor is one live account adapter keyed by its credential.
type monitor struct {
	cred models.AccountCredential
	sup  *exchange.Supervisor
}

// Scheduler runs one worker per exchange. Each worker consumes account tasks,
// owns its adapters' lifecycles, and reports an AccountTaskResult for every
// message it handles.
type Scheduler struct {
	bus       broker.Bus
	factories map[models.Exchange]AdapterFactory
	results   chan models.AccountTaskResult
}

// New builds a scheduler over the given bus and adapter factories.
func New(bus broker.Bus, factories map[models.Exchange]AdapterFactory) *Scheduler {
	return &Scheduler{
		bus:       bus,
		factories: factories,
		results:   make(chan models.AccountTaskResult, 256),
	}
}

// Run blocks until ctx is done, servicing all exchanges plus the status
// writer.
func (s *Scheduler) Run(ctx context.Context) error {
	statusPub, err := s.bus.Publisher(broker.EndpointTaskStatus)
	if err != nil {
		return fmt.Errorf("task-status publisher: %w", err)
	}
	defer statusPub.Close()

	var wg sync.WaitGroup
	for _, ex := range models.AllExchanges() {
		factory, ok := s.factories[ex]
		if !ok {
			continue
		}
		worker, err := s.newWorker(ex, factory)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.run(ctx)
		}()
	}

	// Status writer: one producer for task-status/writer.
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case result := <-s.results:
			if err := statusPub.Publish(result); err != nil {
				log.Error().Err(err).Str("task", result.TaskID).Msg("failed to publish task status")
			}
		}
	}
}

type worker struct {
	exchange models.Exchange
	factory  AdapterFactory
	tasks    broker.Subscriber
	events   broker.Publisher
	results  chan<- models.AccountTaskResult

	monitors []monitor
}

func (s *Scheduler) newWorker(ex models.Exchange, factory AdapterFactory) (*worker, error) {
	tasks, err := s.bus.Subscriber(broker.AccountTaskEndpoint(ex))
	if err != nil {
		return nil, fmt.Errorf("%s task subscriber: %w", ex, err)
	}
	events, err := s.bus.Publisher(broker.AccountResultEndpoint(ex))
	if err != nil {
		tasks.Close()
		return nil, fmt.Errorf("%s result publisher: %w", ex, err)
	}
	return &worker{
		exchange: ex,
		factory:  factory,
		tasks:    tasks,
		events:   events,
		results:  s.results,
	}, nil
}

func (w *worker) run(ctx context.Context) {
	defer w.shutdown()
	log.Info().Str("exchange", w.exchange.String()).Msg("account monitor worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-w.tasks.Messages():
			if !ok {
				return
			}
			if env.Kind != broker.KindAccountTask {
				continue
			}
			var task models.AccountTask
			if err := broker.Decode(env, &task); err != nil {
				log.Error().Err(err).Str("exchange", w.exchange.String()).Msg("dropping malformed account task")
				continue
			}
			if task.Exchange != w.exchange {
				continue
			}
			w.handle(task)
		}
	}
}

// handle applies one task and reports its outcome. Add and remove both report
// running, except an add whose adapter could not be built, which reports
// unknown; anything else is a no-op reported as stopped.
func (w *worker) handle(task models.AccountTask) {
	result := models.AccountTaskResult{
		TaskID: task.TaskID,
		UserID: task.UserID,
		State:  models.TaskRunning,
	}

	switch task.Operation {
	case models.OperationAdd:
		if err := w.addMonitor(task); err != nil {
			log.Error().Err(err).Str("user", task.UserID).Str("exchange", w.exchange.String()).Msg("failed to start account monitor")
			result.State = models.TaskUnknown
		}
	case models.OperationRemove:
		w.removeMonitor(task.Credential)
	default:
		result.State = models.TaskStopped
	}

	w.results <- result
}

func (w *worker) addMonitor(task models.AccountTask) error {
	sink := func(event any) {
		if err := w.events.Publish(event); err != nil {
			log.Error().Err(err).Str("exchange", w.exchange.String()).Msg("failed to publish account event")
		}
	}
	sup, err := w.factory(task, sink)
	if err != nil {
		return err
	}
	sup.Start()
	w.monitors = append(w.monitors, monitor{cred: task.Credential, sup: sup})
	log.Info().Str("user", task.UserID).Str("exchange", w.exchange.String()).Msg("account monitor started")
	return nil
}

// removeMonitor stops and drops every adapter whose credential matches
// field-wise.
func (w *worker) removeMonitor(cred models.AccountCredential) {
	kept := w.monitors[:0]
	for _, m := range w.monitors {
		if m.cred.Equal(cred) {
			m.sup.Stop()
			log.Info().Str("user", cred.UserID).Str("exchange", w.exchange.String()).Msg("account monitor stopped")
			continue
		}
		kept = append(kept, m)
	}
	w.monitors = kept
}

func (w *worker) shutdown() {
	for _, m := range w.monitors {
		m.sup.Stop()
	}
	w.monitors = nil
	w.tasks.Close()
	w.events.Close()
}
