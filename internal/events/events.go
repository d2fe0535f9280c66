// Package events publishes domain events to NATS with OpenTelemetry trace
// propagation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/scoring"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "impact.calculated"

// ImpactCalculated is emitted after a new impact log is stored.
type ImpactCalculated struct {
	LogID         uuid.UUID      `json:"log_id"`
	UserID        uuid.UUID      `json:"user_id"`
	CarbonScore   float64        `json:"carbon_score"`
	OverallRating scoring.Rating `json:"overall_rating"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewImpactCalculated builds the event for a stored log.
func NewImpactCalculated(l *model.ImpactLog) ImpactCalculated {
	return ImpactCalculated{
		LogID:         l.ID,
		UserID:        l.UserID,
		CarbonScore:   l.Carbon,
		OverallRating: l.Rating,
		CreatedAt:     l.CreatedAt,
	}
}

// Publisher emits impact events.
type Publisher interface {
	PublishImpactCalculated(ctx context.Context, ev ImpactCalculated) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishImpactCalculated(context.Context, ImpactCalculated) error { return nil }
func (NopPublisher) Close()                                                         {}

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher publishes JSON events on a single subject.
type NATSPublisher struct {
	conn    msgPublisher
	close   func()
	subject string
}

// Connect dials NATS and returns a publisher. With an empty URL it returns a
// NopPublisher.
func Connect(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("event publishing disabled")
		return NopPublisher{}, nil
	}
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("ecotrack"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("event publishing enabled", "subject", subjectOrDefault(cfg.Subject))
	return &NATSPublisher{conn: nc, close: nc.Close, subject: subjectOrDefault(cfg.Subject)}, nil
}

func subjectOrDefault(s string) string {
	if s == "" {
		return DefaultSubject
	}
	return s
}

// PublishImpactCalculated serializes ev and publishes it. Trace context from
// ctx is injected into the message headers.
func (p *NATSPublisher) PublishImpactCalculated(ctx context.Context, ev ImpactCalculated) error {
	return publish(ctx, p.conn, p.subject, ev)
}

// Close closes the underlying connection.
func (p *NATSPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}

func publish[T any](ctx context.Context, conn msgPublisher, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return conn.PublishMsg(msg)
}

// headerCarrier adapts nats.Msg headers for propagation.TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}
