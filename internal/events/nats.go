package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DrawSubject is the NATS subject draw events are published to.
const DrawSubject = "tarot.draws"

// Connect dials the NATS broker with reconnect options suited to a
// long-running service.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("tarot-mcp"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
	}
	return nats.Connect(url, opts...)
}

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{
		nc:      nc,
		subject: DrawSubject,
	}
}

func (p *NATSPublisher) PublishDraw(ev DrawEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: failed to marshal draw event: %w", err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("events: failed to publish draw event: %w", err)
	}

	return nil
}
