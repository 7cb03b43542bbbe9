package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/config"
)

// Conn is the NATS-backed Relay. The connection is a process-wide singleton
// owned by main; nats.Conn is safe for concurrent use, and the client
// reconnects indefinitely on its own.
type Conn struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// Connect establishes the broker connection, retrying the initial dial with
// exponential backoff.
func Connect(cfg *config.NATSConfig, logger *zap.Logger) (*Conn, error) {
	opts := []nats.Option{
		nats.Name("location-svc"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	var nc *nats.Conn
	var err error
	backoff := time.Second
	maxBackoff := 30 * time.Second
	maxAttempts := 10

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		nc, err = nats.Connect(cfg.URL, opts...)
		if err == nil {
			logger.Info("Successfully connected to NATS",
				zap.String("url", nc.ConnectedUrl()),
			)
			return &Conn{nc: nc, logger: logger}, nil
		}

		if attempt < maxAttempts {
			logger.Warn("Initial connection to NATS failed, retrying...",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", maxAttempts, err)
}

// Publish implements Relay.
func (c *Conn) Publish(subject string, payload interface{}) error {
	if !c.IsConnected() {
		return fmt.Errorf("publish %s: broker connection is down", subject)
	}

	env, err := NewEnvelope(payload)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("publish %s: marshal envelope: %w", subject, err)
	}

	if err := c.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	c.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("correlation_id", env.CorrelationID),
	)
	return nil
}

// dispatch builds the per-message callback for a queue subscription.
// Malformed envelopes are discarded with a warning; handler errors are
// logged per message and never stop the subscription loop.
func (c *Conn) dispatch(queueGroup string, handler Handler) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			c.logger.Warn("Discarding malformed event",
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}
		if err := handler(context.Background(), msg.Subject, &env); err != nil {
			// No redelivery: consumers are idempotent and converge on the
			// next report.
			c.logger.Error("Event handler failed",
				zap.String("subject", msg.Subject),
				zap.String("queue_group", queueGroup),
				zap.String("correlation_id", env.CorrelationID),
				zap.Error(err),
			)
		}
	}
}

// SubscribeQueue implements Relay.
func (c *Conn) SubscribeQueue(subject, queueGroup string, handler Handler) error {
	_, err := c.nc.QueueSubscribe(subject, queueGroup, c.dispatch(queueGroup, handler))
	if err != nil {
		return fmt.Errorf("subscribe %s (group %s): %w", subject, queueGroup, err)
	}

	c.logger.Info("Subscribed to subject",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup),
	)
	return nil
}

// SubscribeQueueAll implements Relay.
func (c *Conn) SubscribeQueueAll(subs []Subscription, queueGroup string) error {
	for _, sub := range subs {
		if err := c.SubscribeQueue(sub.Subject, queueGroup, sub.Handler); err != nil {
			return err
		}
	}
	return nil
}

// IsConnected implements Relay.
func (c *Conn) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains the connection, letting in-flight handlers finish before
// closing.
func (c *Conn) Close() {
	if c.nc == nil {
		return
	}
	if err := c.nc.Drain(); err != nil {
		c.logger.Error("Error draining NATS connection", zap.Error(err))
		c.nc.Close()
	}
	c.logger.Info("NATS connection closed")
}
