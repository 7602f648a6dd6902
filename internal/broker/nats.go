package broker

import (
	"strings"

	"github.com/nats-io/nats.go"
)

// NatsBus runs the same endpoints over a NATS server, for deployments that
// already operate one. Endpoint paths map to subjects by replacing slashes.
type NatsBus struct {
	conn *nats.Conn
}

// NewNatsBus connects to the configured server.
func NewNatsBus(url string) (*NatsBus, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, err
	}
	return &NatsBus{conn: conn}, nil
}

func subjectFor(endpoint string) string {
	return "stream." + strings.ReplaceAll(endpoint, "/", ".")
}

func (b *NatsBus) Publisher(endpoint string) (Publisher, error) {
	return &natsPublisher{conn: b.conn, subject: subjectFor(endpoint)}, nil
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

func (p *natsPublisher) Publish(v any) error {
	blob, err := Encode(v)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, blob)
}

// Close leaves the shared connection open; the bus owns it.
func (p *natsPublisher) Close() error { return nil }

func (b *NatsBus) Subscriber(endpoint string) (Subscriber, error) {
	s := &natsSubscriber{messages: make(chan Envelope, 256)}
	sub, err := b.conn.Subscribe(subjectFor(endpoint), func(msg *nats.Msg) {
		env, err := DecodeEnvelope(msg.Data)
		if err != nil {
			return
		}
		select {
		case s.messages <- env:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return s, nil
}

type natsSubscriber struct {
	sub      *nats.Subscription
	messages chan Envelope
}

func (s *natsSubscriber) Messages() <-chan Envelope { return s.messages }

// Close unsubscribes; the messages channel is left open since the server may
// still be flushing callbacks.
func (s *natsSubscriber) Close() error {
	return s.sub.Unsubscribe()
}

func (b *NatsBus) Close() error {
	b.conn.Close()
	return nil
}
