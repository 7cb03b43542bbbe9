// Package sink persists the latest known position per entity. It keeps the
// durable record decoupled from the live geo index: rows are fed by relay
// events (and optionally the orchestrator's fire-and-forget side channel),
// never read on the hot path. Latest position only; no point history.
package sink

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marminbh/location-svc/internal/models"
)

// EntityLocation is the durable latest-position record.
type EntityLocation struct {
	EntityID   string    `gorm:"primaryKey" json:"entity_id"`
	Kind       string    `gorm:"primaryKey" json:"entity_kind"`
	Lat        float64   `gorm:"not null" json:"lat"`
	Lng        float64   `gorm:"not null" json:"lng"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (EntityLocation) TableName() string {
	return "entity_locations"
}

// Store writes latest-position rows.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a Store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Upsert writes the row for (entityID, kind), replacing any previous one.
// Idempotent.
func (s *Store) Upsert(ctx context.Context, entityID string, kind models.EntityKind, lat, lng float64, recordedAt time.Time) error {
	row := EntityLocation{
		EntityID:   entityID,
		Kind:       string(kind),
		Lat:        lat,
		Lng:        lng,
		RecordedAt: recordedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "recorded_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert entity location %s/%s: %w", kind, entityID, err)
	}
	return nil
}

// Record implements location.RecordSink as a fire-and-forget side channel:
// the write runs in the background with its own timeout, and failures are
// only logged.
func (s *Store) Record(entityID string, kind models.EntityKind, lat, lng float64, timestamp time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Upsert(ctx, entityID, kind, lat, lng, timestamp); err != nil {
			s.logger.Warn("Record sink write failed",
				zap.String("entity_id", entityID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}()
}
