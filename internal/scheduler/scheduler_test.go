package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/broker"
	"github.com/crypto-telemetry/internal/exchange"
	"github.com/crypto-telemetry/internal/models"
)

// fakeAdapter blocks until stopped, tracking how many instances are live.
type fakeAdapter struct {
	live *atomic.Int64
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Run(ctx context.Context) error {
	f.live.Add(1)
	defer f.live.Add(-1)
	<-ctx.Done()
	return nil
}

type fakeFactory struct {
	live  atomic.Int64
	built atomic.Int64
}

func (f *fakeFactory) build(task models.AccountTask, sink exchange.AccountSink) (*exchange.Supervisor, error) {
	f.built.Add(1)
	return exchange.NewSupervisor(&fakeAdapter{live: &f.live}, time.Hour), nil
}

type schedulerHarness struct {
	t         *testing.T
	taskPub   broker.Publisher
	statusSub broker.Subscriber
	factory   *fakeFactory
}

func newSchedulerHarness(t *testing.T) *schedulerHarness {
	bus := broker.NewIPCBus(t.TempDir())
	factory := &fakeFactory{}
	sched := New(bus, map[models.Exchange]AdapterFactory{
		models.ExchangeBinance: factory.build,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sched.Run(ctx)

	taskPub, err := bus.Publisher(broker.AccountTaskEndpoint(models.ExchangeBinance))
	require.NoError(t, err)
	t.Cleanup(func() { taskPub.Close() })

	statusSub, err := bus.Subscriber(broker.EndpointTaskStatus)
	require.NoError(t, err)
	t.Cleanup(func() { statusSub.Close() })

	return &schedulerHarness{t: t, taskPub: taskPub, statusSub: statusSub, factory: factory}
}

// submit keeps publishing the task until a result with its id arrives;
// delivery is attach-time best-effort, so early publishes may be lost.
func (h *schedulerHarness) submit(task models.AccountTask) models.AccountTaskResult {
	h.t.Helper()
	var result models.AccountTaskResult
	require.Eventually(h.t, func() bool {
		if err := h.taskPub.Publish(task); err != nil {
			return false
		}
		deadline := time.After(150 * time.Millisecond)
		for {
			select {
			case env := <-h.statusSub.Messages():
				if env.Kind != broker.KindAccountTaskResult {
					continue
				}
				var r models.AccountTaskResult
				if err := broker.Decode(env, &r); err != nil {
					continue
				}
				if r.TaskID == task.TaskID {
					result = r
					return true
				}
			case <-deadline:
				return false
			}
		}
	}, 10*time.Second, 10*time.Millisecond)
	return result
}

func testCredential() models.AccountCredential {
	return models.AccountCredential{
		UserID:    "u1",
		APIKey:    "api-key",
		SecretKey: "secret-key",
	}
}

func TestSchedulerAddRemoveRoundTrip(t *testing.T) {
	h := newSchedulerHarness(t)
	cred := testCredential()

	addResult := h.submit(models.AccountTask{
		TaskID:     "add-1",
		UserID:     cred.UserID,
		Credential: cred,
		Exchange:   models.ExchangeBinance,
		Operation:  models.OperationAdd,
	})
	assert.Equal(t, models.TaskRunning, addResult.State)
	assert.Equal(t, "u1", addResult.UserID)

	require.Eventually(t, func() bool { return h.factory.live.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	removeResult := h.submit(models.AccountTask{
		TaskID:     "remove-1",
		UserID:     cred.UserID,
		Credential: cred,
		Exchange:   models.ExchangeBinance,
		Operation:  models.OperationRemove,
	})
	assert.Equal(t, models.TaskRunning, removeResult.State)

	// Every adapter for that credential must be out of the live list.
	require.Eventually(t, func() bool { return h.factory.live.Load() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSchedulerUnknownOperationReportsStopped(t *testing.T) {
	h := newSchedulerHarness(t)

	result := h.submit(models.AccountTask{
		TaskID:     "upd-1",
		UserID:     "u1",
		Credential: testCredential(),
		Exchange:   models.ExchangeBinance,
		Operation:  models.OperationUpdate,
	})
	assert.Equal(t, models.TaskStopped, result.State)
	assert.Zero(t, h.factory.live.Load())
}

func TestSchedulerIgnoresMismatchedExchange(t *testing.T) {
	h := newSchedulerHarness(t)

	// A task addressed to another exchange on this endpoint is skipped
	// silently; the following matched task still gets its result.
	mismatched := models.AccountTask{
		TaskID:     "wrong-1",
		UserID:     "u1",
		Credential: testCredential(),
		Exchange:   models.ExchangeOkx,
		Operation:  models.OperationAdd,
	}
	require.NoError(t, h.taskPub.Publish(mismatched))

	result := h.submit(models.AccountTask{
		TaskID:     "right-1",
		UserID:     "u1",
		Credential: testCredential(),
		Exchange:   models.ExchangeBinance,
		Operation:  models.OperationUpdate,
	})
	assert.Equal(t, "right-1", result.TaskID)
}

func TestRemoveMatchesCredentialFieldWise(t *testing.T) {
	h := newSchedulerHarness(t)
	cred := testCredential()

	h.submit(models.AccountTask{
		TaskID: "add-a", UserID: cred.UserID, Credential: cred,
		Exchange: models.ExchangeBinance, Operation: models.OperationAdd,
	})
	require.Eventually(t, func() bool { return h.factory.live.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
	before := h.factory.live.Load()

	// Different secret: nothing may be removed.
	other := cred
	other.SecretKey = "different"
	h.submit(models.AccountTask{
		TaskID: "rm-b", UserID: cred.UserID, Credential: other,
		Exchange: models.ExchangeBinance, Operation: models.OperationRemove,
	})
	assert.Equal(t, before, h.factory.live.Load())
}
