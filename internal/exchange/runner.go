package exchange

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/models"
)

// InstrumentSink receives normalized ticks from a price adapter.
type InstrumentSink func(models.Instrument)

// AccountSink receives normalized account events from an account adapter.
type AccountSink func(event any)

// Adapter is a single connection attempt against one exchange endpoint. Run
// blocks until the stream fails or the context is canceled; the supervisor
// owns the retry policy.
type Adapter interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor keeps an adapter alive: run, and on any failure cool down and
// run again from scratch. Stop is idempotent and safe from any goroutine.
type Supervisor struct {
	adapter  Adapter
	cooldown time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewSupervisor wraps the adapter with the given restart cooldown.
func NewSupervisor(adapter Adapter, cooldown time.Duration) *Supervisor {
	return &Supervisor{adapter: adapter, cooldown: cooldown}
}

// Start launches the supervision loop. Calling Start on a running supervisor
// is a no-op.
func (s *Supervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.stopped {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

func (s *Supervisor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		err := s.adapter.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error().Err(err).Str("adapter", s.adapter.Name()).Msg("stream failed, restarting after cooldown")
		} else {
			log.Warn().Str("adapter", s.adapter.Name()).Msg("stream ended, restarting after cooldown")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cooldown):
		}
	}
}

// Stop cancels the running adapter and waits for the loop to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Dial opens a websocket connection with the handshake timeout every adapter
// uses.
func Dial(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			log.Error().Int("status", resp.StatusCode).Str("url", url).Msg("websocket handshake failed")
		}
		return nil, err
	}
	return conn, nil
}

// CloseGracefully sends a best-effort close frame before dropping the
// connection.
func CloseGracefully(conn *websocket.Conn) {
	if conn == nil {
		return
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = conn.Close()
}

// WatchContext closes the connection when ctx ends so blocking reads unwind.
// The returned stop func releases the watcher.
func WatchContext(ctx context.Context, conn *websocket.Conn) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			CloseGracefully(conn)
		case <-done:
		}
	}()
	return func() { close(done) }
}
