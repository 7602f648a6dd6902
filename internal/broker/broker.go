package broker

import (
	"fmt"

	"github.com/crypto-telemetry/internal/config"
	"github.com/crypto-telemetry/internal/models"
)

// Endpoint names. Each is a single-producer channel; subscribers attach by
// name and miss anything published before they attached.
const (
	EndpointTaskStatus  = "task-status/writer"
	EndpointPriceResult = "price-result"
)

// PriceEndpoint is the tick channel for one exchange.
func PriceEndpoint(e models.Exchange) string {
	return "price/" + e.String()
}

// AccountTaskEndpoint carries account-monitor commands for one exchange.
func AccountTaskEndpoint(e models.Exchange) string {
	return "account-task/" + e.String()
}

// AccountResultEndpoint carries account-stream events for one exchange.
func AccountResultEndpoint(e models.Exchange) string {
	return "account-result/" + e.String()
}

// Publisher is the producing side of one endpoint.
type Publisher interface {
	Publish(v any) error
	Close() error
}

// Subscriber is one attached consumer. Messages stops yielding after Close.
type Subscriber interface {
	Messages() <-chan Envelope
	Close() error
}

// Bus creates endpoint handles over one concrete transport.
type Bus interface {
	Publisher(endpoint string) (Publisher, error)
	Subscriber(endpoint string) (Subscriber, error)
	Close() error
}

// New builds the bus selected by configuration.
func New(cfg config.BrokerConfig) (Bus, error) {
	switch cfg.Driver {
	case "", "ipc":
		return NewIPCBus(cfg.Root), nil
	case "nats":
		return NewNatsBus(cfg.NatsURL)
	}
	return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
}
