package progress

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes progress events as JSON on NATS subjects. One
// subject per user, so independent subscribers can watch the same job.
type NATSPublisher struct {
	nc *nats.Conn
}

func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(channel string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish("progress."+channel, b)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
