package nats

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/nats-io/nats.go"
)

const streamName = "upload-events"

// Client wraps a NATS connection with its JetStream context.
type Client struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
}

// Connect dials NATS, enables JetStream and makes sure the event stream exists.
func Connect(url, name string) (*Client, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Println("[NATS] connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Client{Conn: conn, JS: js}
	if err := c.ensureStream(); err != nil {
		log.Printf("[NATS] warning: failed to ensure stream %s: %v", streamName, err)
	}
	log.Println("[NATS] connected and JetStream initialized")
	return c, nil
}

func (c *Client) ensureStream() error {
	if _, err := c.JS.StreamInfo(streamName); err == nil {
		return nil
	}
	_, err := c.JS.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"uploads.*", "owners.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Publish sends an upload lifecycle event through JetStream.
func (c *Client) Publish(ctx context.Context, event services.Event) error {
	if c == nil || c.JS == nil {
		return errors.New("jetstream not initialized")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// One message per (event, upload) so redeliveries are deduplicated by the server.
	msgID := event.Type + ":" + event.Asset.ID
	if _, err := c.JS.Publish(event.Type, data, nats.MsgId(msgID), nats.Context(ctx)); err != nil {
		log.Printf("[NATS] publish failed subject=%s err=%v", event.Type, err)
		return err
	}
	return nil
}

// SubscribeAll attaches a durable manual-ack consumer per route.
func (c *Client) SubscribeAll(durablePrefix string, routes map[string]nats.MsgHandler) error {
	for subject, handler := range routes {
		durable := durablePrefix + "-" + durableName(subject)
		if _, err := c.JS.Subscribe(subject, handler, nats.Durable(durable), nats.ManualAck()); err != nil {
			return err
		}
		log.Printf("[NATS] Subscribed to: %s (durable=%s)", subject, durable)
	}
	return nil
}

func (c *Client) Close() {
	if c != nil && c.Conn != nil {
		c.Conn.Close()
	}
}

// durableName turns "owners.deleted" into "owners-deleted"; durable names may not contain dots.
func durableName(subject string) string {
	out := []byte(subject)
	for i, b := range out {
		if b == '.' || b == '*' || b == '>' {
			out[i] = '-'
		}
	}
	return string(out)
}
