package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/models"
)

// Subjects for order lifecycle events
const (
	SubjectOrderCreated       = "orders.created"
	SubjectOrderPaid          = "orders.paid"
	SubjectOrderStatusUpdated = "orders.status_updated"
)

// OrderEvent is the payload published for every order lifecycle change
type OrderEvent struct {
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	OrderStatus models.OrderStatus `json:"order_status"`
	IsPaid      bool               `json:"is_paid"`
	TotalPrice  float64            `json:"total_price"`
	Reference   string             `json:"reference,omitempty"`
	OccurredAt  string             `json:"occurred_at"`
}

// NewOrderEvent snapshots order at the time of the event
func NewOrderEvent(order *models.Order, at time.Time) OrderEvent {
	event := OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		OrderStatus: order.OrderStatus,
		IsPaid:      order.IsPaid,
		TotalPrice:  order.PriceDetails.TotalPrice,
		OccurredAt:  at.UTC().Format(time.RFC3339),
	}
	if order.TransactionReference != nil {
		event.Reference = *order.TransactionReference
	}
	return event
}

// EventPublisher delivers order events to interested consumers
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event OrderEvent) error
	Close()
}

// natsConn is the part of *nats.Conn the publisher uses
type natsConn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	IsClosed() bool
	Close()
}

// flushTimeout bounds how long Publish waits for the server to acknowledge a message
const flushTimeout = time.Second

// NatsPublisher publishes events to a NATS server
type NatsPublisher struct {
	nc natsConn
}

// NewNatsPublisher connects to url, retrying a few times before giving up
func NewNatsPublisher(ctx context.Context, url string) (*NatsPublisher, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var nc *nats.Conn
	var err error

	for i := 0; i < 3; i++ {
		nc, err = nats.Connect(url,
			nats.Name("SayFoods API"),
			nats.MaxReconnects(5),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				log.Warn().Err(err).Msg("NATS disconnected")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			}),
		)
		if err == nil {
			log.Info().Str("url", url).Msg("Connected to NATS")
			return &NatsPublisher{nc: nc}, nil
		}

		log.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to NATS")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		case <-time.After(2 * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect to NATS after retries: %w", err)
}

// Publish sends event on subject once and waits for the server to acknowledge the flush.
// A failed flush is returned as is: the message may already sit in the reconnect buffer,
// and publishing it again would deliver duplicates once the connection is back.
func (p *NatsPublisher) Publish(ctx context.Context, subject string, event OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := p.nc.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("failed to flush %s event: %w", subject, err)
	}

	log.Debug().Str("subject", subject).Str("order_id", event.OrderID).Msg("Published order event")
	return nil
}

// Close closes the connection
func (p *NatsPublisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		p.nc.Close()
		log.Info().Msg("NATS connection closed")
	}
}

// NoopPublisher discards every event. Used when no event bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, event OrderEvent) error {
	return nil
}

func (NoopPublisher) Close() {}

// NewEventPublisher connects to NATS when url is set, falling back to a
// NoopPublisher when it is empty or unreachable
func NewEventPublisher(ctx context.Context, url string) EventPublisher {
	if url == "" {
		log.Info().Msg("NATS_URL not set, order events are disabled")
		return NoopPublisher{}
	}
	publisher, err := NewNatsPublisher(ctx, url)
	if err != nil {
		log.Error().Err(err).Msg("Order events are disabled")
		return NoopPublisher{}
	}
	return publisher
}
