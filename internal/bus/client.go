// Package bus publishes batch progress events over NATS so other
// services can follow synthesis runs without polling.
package bus

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/protocol"
)

// Client wraps a NATS connection with typed publish helpers.
type Client struct {
	conn *nats.Conn
	log  *slog.Logger
}

func Connect(cfg config.BusConfig, log *slog.Logger) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}

	options := []nats.Option{
		nats.Name("chorus"),
		nats.Timeout(time.Duration(cfg.ConnectTimeout) * time.Millisecond),
	}

	if cfg.Username != "" || cfg.Password != "" {
		options = append(options, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}
	if cfg.TLSInsecure {
		options = append(options, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	log = log.With(slog.String("component", "bus"))
	log.Info("connected to NATS", slog.String("servers", url))

	return &Client{conn: conn, log: log}, nil
}

func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	c.log.Info("closing NATS connection")
	c.conn.Drain()
	c.conn.Close()
}

func (c *Client) Healthy() bool {
	return c != nil && c.conn != nil && c.conn.Status() == nats.CONNECTED
}

// PublishJobEvent broadcasts one job completion. A nil client is a no-op
// so callers need not branch on whether the bus is enabled.
func (c *Client) PublishJobEvent(evt protocol.JobEvent) {
	c.publish(protocol.SubjectJobResult, evt)
}

// PublishRunDone broadcasts the final run tally.
func (c *Client) PublishRunDone(done protocol.RunDone) {
	c.publish(protocol.SubjectRunDone, done)
}

func (c *Client) publish(subject string, msg any) {
	if c == nil || c.conn == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		c.log.Warn("marshal bus message", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		c.log.Warn("publish bus message", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}
