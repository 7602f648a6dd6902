package broker

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/models"
)

// maxFrameSize bounds a single broker frame; anything larger is a protocol
// violation and drops the connection.
const maxFrameSize = 1 << 20

const subscriberRedialWait = time.Second

// IPCBus is the default transport: one unix domain socket per endpoint under
// a filesystem root, length-prefixed frames, fan-out to whoever is connected
// at publish time.
type IPCBus struct {
	root string
}

// NewIPCBus scopes endpoints under root; the tree is created lazily by
// publishers.
func NewIPCBus(root string) *IPCBus {
	return &IPCBus{root: root}
}

func (b *IPCBus) socketPath(endpoint string) string {
	return filepath.Join(b.root, filepath.FromSlash(endpoint)+".sock")
}

// Publisher binds the endpoint socket and starts accepting subscribers.
func (b *IPCBus) Publisher(endpoint string) (Publisher, error) {
	path := b.socketPath(endpoint)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// A socket file left over from a dead process blocks the bind.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	p := &ipcPublisher{
		endpoint: endpoint,
		path:     path,
		listener: ln,
		conns:    make(map[net.Conn]struct{}),
	}
	go p.acceptLoop()
	log.Debug().Str("endpoint", endpoint).Str("path", path).Msg("broker endpoint bound")
	return p, nil
}

type ipcPublisher struct {
	endpoint string
	path     string
	listener net.Listener

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func (p *ipcPublisher) acceptLoop() {
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			conn.Close()
			return
		}
		p.conns[conn] = struct{}{}
		p.mu.Unlock()
	}
}

// Publish frames the value and writes it to every attached subscriber.
// Delivery is best-effort: a subscriber that errors or stalls is dropped.
func (p *ipcPublisher) Publish(v any) error {
	blob, err := Encode(v)
	if err != nil {
		return err
	}

	frame := make([]byte, 4+len(blob))
	binary.BigEndian.PutUint32(frame, uint32(len(blob)))
	copy(frame[4:], blob)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return models.ErrBrokerClosed
	}
	for conn := range p.conns {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if _, err := conn.Write(frame); err != nil {
			conn.Close()
			delete(p.conns, conn)
		}
	}
	return nil
}

func (p *ipcPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for conn := range p.conns {
		conn.Close()
	}
	p.conns = map[net.Conn]struct{}{}
	p.mu.Unlock()

	err := p.listener.Close()
	_ = os.Remove(p.path)
	return err
}

// Subscriber dials the endpoint socket and keeps redialing until closed, so a
// consumer may attach before its producer binds.
func (b *IPCBus) Subscriber(endpoint string) (Subscriber, error) {
	s := &ipcSubscriber{
		endpoint: endpoint,
		path:     b.socketPath(endpoint),
		messages: make(chan Envelope, 256),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type ipcSubscriber struct {
	endpoint string
	path     string
	messages chan Envelope
	done     chan struct{}

	mu   sync.Mutex
	conn net.Conn
}

func (s *ipcSubscriber) Messages() <-chan Envelope { return s.messages }

func (s *ipcSubscriber) readLoop() {
	defer close(s.messages)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, err := net.Dial("unix", s.path)
		if err != nil {
			select {
			case <-s.done:
				return
			case <-time.After(subscriberRedialWait):
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		s.drainConn(conn)

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}
}

func (s *ipcSubscriber) drainConn(conn net.Conn) {
	var header [4]byte
	for {
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			if !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Str("endpoint", s.endpoint).Msg("broker read ended")
			}
			return
		}
		size := binary.BigEndian.Uint32(header[:])
		if size == 0 || size > maxFrameSize {
			log.Error().Uint32("size", size).Str("endpoint", s.endpoint).Msg("broker frame size out of range")
			return
		}
		blob := make([]byte, size)
		if _, err := io.ReadFull(conn, blob); err != nil {
			return
		}
		env, err := DecodeEnvelope(blob)
		if err != nil {
			log.Error().Err(err).Str("endpoint", s.endpoint).Msg("dropping malformed broker frame")
			continue
		}
		select {
		case s.messages <- env:
		case <-s.done:
			return
		default:
			// Best-effort delivery: shed when the consumer lags.
		}
	}
}

func (s *ipcSubscriber) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	return nil
}

// Close is a no-op; endpoint handles own their sockets.
func (b *IPCBus) Close() error { return nil }
