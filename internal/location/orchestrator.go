// Package location orchestrates location reports: coordinate validation,
// geo-index upsert, the fire-and-forget record sink, and the domain event
// published for other replicas.
package location

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/models"
)

// GeoStore is the slice of the geospatial store the orchestrator uses.
type GeoStore interface {
	Upsert(ctx context.Context, indexName, entityID string, lat, lng float64) error
	BoundingBoxSearch(ctx context.Context, indexName string, bounds models.Bounds) ([]models.EntityPoint, error)
}

// Publisher is the publish side of the event relay.
type Publisher interface {
	Publish(subject string, payload interface{}) error
}

// RecordSink receives each successful location write as a fire-and-forget
// side channel: the orchestrator neither waits for nor retries it.
type RecordSink interface {
	Record(entityID string, kind models.EntityKind, lat, lng float64, timestamp time.Time)
}

// Orchestrator validates and applies location reports and serves area
// searches.
type Orchestrator struct {
	geo    GeoStore
	relay  Publisher
	sink   RecordSink // optional
	logger *zap.Logger
}

// NewOrchestrator creates an Orchestrator. sink may be nil when durable
// persistence is handled entirely by a relay subscriber.
func NewOrchestrator(geo GeoStore, relay Publisher, sink RecordSink, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{geo: geo, relay: relay, sink: sink, logger: logger}
}

// ReportLocation validates the report, upserts the point, notifies the
// record sink, and publishes the location_updated event. A validation
// failure reaches neither the index nor the relay. A publish failure is
// returned to the caller but does not undo the index write: search
// visibility and notification are decoupled side effects.
func (o *Orchestrator) ReportLocation(ctx context.Context, kind models.EntityKind, entityID string, lat, lng float64) error {
	if !kind.Valid() {
		return models.NewValidationError("entity_kind", kind, "must be user or vendor")
	}
	if entityID == "" {
		return models.NewValidationError("entity_id", entityID, "must not be empty")
	}
	if err := models.ValidateCoordinates(lat, lng); err != nil {
		return err
	}

	indexName := kind.GeoIndex()
	if err := o.geo.Upsert(ctx, indexName, entityID, lat, lng); err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}

	now := time.Now().UTC()
	if o.sink != nil {
		o.sink.Record(entityID, kind, lat, lng, now)
	}

	event := models.LocationEvent{
		EntityID:  entityID,
		Kind:      kind,
		Lat:       lat,
		Lng:       lng,
		Timestamp: now,
	}
	if err := o.relay.Publish(models.LocationUpdatedSubject(kind), event); err != nil {
		return fmt.Errorf("publish location event: %w", err)
	}

	return nil
}

// SearchArea validates the bounds, delegates to the geo store, and emits a
// best-effort audit event with the result count. Audit failure is logged
// and swallowed; it never affects the search result.
func (o *Orchestrator) SearchArea(ctx context.Context, indexName string, bounds models.Bounds) ([]models.EntityPoint, error) {
	if err := models.ValidateCoordinates(bounds.SouthWest.Lat, bounds.SouthWest.Lng); err != nil {
		return nil, err
	}
	if err := models.ValidateCoordinates(bounds.NorthEast.Lat, bounds.NorthEast.Lng); err != nil {
		return nil, err
	}
	if bounds.SouthWest.Lat > bounds.NorthEast.Lat {
		return nil, models.NewValidationError("south_west.lat", bounds.SouthWest.Lat, "must not exceed north_east.lat")
	}
	if bounds.SouthWest.Lng > bounds.NorthEast.Lng {
		return nil, models.NewValidationError("south_west.lng", bounds.SouthWest.Lng, "must not exceed north_east.lng")
	}

	results, err := o.geo.BoundingBoxSearch(ctx, indexName, bounds)
	if err != nil {
		return nil, fmt.Errorf("bounding box search: %w", err)
	}

	audit := models.SearchAuditEvent{
		IndexName:   indexName,
		Bounds:      bounds,
		ResultCount: len(results),
		Timestamp:   time.Now().UTC(),
	}
	if err := o.relay.Publish(models.SubjectSearchPerformed, audit); err != nil {
		o.logger.Warn("Failed to publish search audit event",
			zap.String("index", indexName),
			zap.Error(err),
		)
	}

	return results, nil
}
