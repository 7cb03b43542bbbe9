// Package relay is the queue-group event relay: publish/subscribe over the
// broker with named consumer groups, where each published message is
// delivered to exactly one member of a given queue group.
//
// Handler errors are logged per message and dropped; there is no redelivery
// and no dead-letter subject. Every consumer in this service is an
// idempotent upsert, so a dropped message converges on the next report.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps every published payload with a timestamp and a correlation
// ID for tracing a message across services.
type Envelope struct {
	CorrelationID string          `json:"correlation_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// Decode unmarshals the envelope's payload into v.
func (e *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode envelope payload: %w", err)
	}
	return nil
}

// NewEnvelope wraps payload, stamping the publish time and a fresh
// correlation ID.
func NewEnvelope(payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Envelope{
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Data:          data,
	}, nil
}

// Handler processes one delivered message. A returned error is logged by
// the relay and does not stop the subscription.
type Handler func(ctx context.Context, subject string, env *Envelope) error

// Subscription pairs a subject with its handler, for batch registration
// under one queue group.
type Subscription struct {
	Subject string
	Handler Handler
}

// Relay is the publish side plus queue-group subscribe side of the event
// relay. Implemented by Conn over NATS.
type Relay interface {
	// Publish serializes payload into an envelope and sends it. Fails fast
	// when the broker connection is down; the caller decides whether to
	// retry.
	Publish(subject string, payload interface{}) error
	// SubscribeQueue registers handler for subject within queueGroup. The
	// broker delivers each message on subject to one member of the group.
	SubscribeQueue(subject, queueGroup string, handler Handler) error
	// SubscribeQueueAll registers several subscriptions under one group.
	SubscribeQueueAll(subs []Subscription, queueGroup string) error
	// IsConnected reports whether the broker connection is up.
	IsConnected() bool
}
