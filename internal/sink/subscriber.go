package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/models"
	"github.com/marminbh/location-svc/internal/relay"
)

// Subscriber consumes location_updated events and upserts the durable
// record. Registered under a queue group so a horizontally scaled fleet
// writes each event exactly once.
type Subscriber struct {
	store  *Store
	logger *zap.Logger
}

// NewSubscriber creates a Subscriber over the given store.
func NewSubscriber(store *Store, logger *zap.Logger) *Subscriber {
	return &Subscriber{store: store, logger: logger}
}

// Register subscribes to both entity kinds' update subjects under
// queueGroup.
func (s *Subscriber) Register(r relay.Relay, queueGroup string) error {
	subs := []relay.Subscription{
		{Subject: models.LocationUpdatedSubject(models.KindUser), Handler: s.handleLocationUpdated},
		{Subject: models.LocationUpdatedSubject(models.KindVendor), Handler: s.handleLocationUpdated},
	}
	return r.SubscribeQueueAll(subs, queueGroup)
}

func (s *Subscriber) handleLocationUpdated(ctx context.Context, subject string, env *relay.Envelope) error {
	var event models.LocationEvent
	if err := env.Decode(&event); err != nil {
		return err
	}

	if err := s.store.Upsert(ctx, event.EntityID, event.Kind, event.Lat, event.Lng, event.Timestamp); err != nil {
		return err
	}

	s.logger.Debug("Persisted location record",
		zap.String("subject", subject),
		zap.String("entity_id", event.EntityID),
		zap.String("correlation_id", env.CorrelationID),
	)
	return nil
}
