// Package notify publishes build lifecycle notifications to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

// Event names carried in Notification.Event.
const (
	EventStarted  = "started"
	EventFinished = "finished"
)

// Notification is the JSON message published for each lifecycle event.
type Notification struct {
	Event       string    `json:"event"`
	BuildID     string    `json:"build_id"`
	Status      string    `json:"status,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Files       int       `json:"files"`
	BinaryBytes int       `json:"binary_bytes,omitempty"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher delivers notifications.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Publish(context.Context, Notification) error { return nil }
func (Noop) Close() error                                { return nil }

// conn is the subset of *nats.Conn used for publishing.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes notifications with core NATS. Publish only
// buffers the message; delivery happens on the client's flusher goroutine.
type NATSPublisher struct {
	conn    conn
	subject string
}

// NewNATSPublisher connects to the configured NATS server. The connection
// keeps retrying in the background when the server is unreachable at startup.
func NewNATSPublisher(cfg config.NotifyConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("anchorbuilder"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS connection lost", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS connection restored", logfields.URL(c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	slog.Info("NATS publisher initialized", logfields.URL(cfg.NATSURL), logfields.Subject(cfg.Subject))
	return &NATSPublisher{conn: nc, subject: cfg.Subject}, nil
}

// Publish marshals n and hands it to the NATS client.
func (p *NATSPublisher) Publish(_ context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return errors.InternalError("failed to marshal notification").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NetworkError("failed to publish notification").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	slog.Debug("Published build notification", logfields.Subject(p.subject), logfields.BuildID(n.BuildID), slog.String("event", n.Event))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// New returns a NATS publisher when notifications are configured and a Noop otherwise.
func New(cfg config.NotifyConfig) (Publisher, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	return NewNATSPublisher(cfg)
}
