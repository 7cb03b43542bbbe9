// Package geo implements the geospatial location store: point upsert,
// point lookup, bounding-box search, and removal over a sorted geo index.
//
// Callers always speak {lat, lng}. The underlying index speaks {lng, lat}
// (longitude is the index's "x" axis); the translation happens exactly once,
// at this package's boundary.
package geo

import (
	"context"

	"github.com/marminbh/location-svc/internal/models"
)

// Member is a raw index entry in the index's native lng/lat order.
type Member struct {
	Name string
	Lng  float64
	Lat  float64
}

// Index is the sorted geo index the store writes to. Implemented by
// redisstore.GeoIndex; tests use an in-memory fake.
type Index interface {
	Add(ctx context.Context, index, member string, lng, lat float64) error
	Pos(ctx context.Context, index, member string) (lng, lat float64, ok bool, err error)
	SearchBox(ctx context.Context, index string, lng, lat, widthKM, heightKM float64) ([]Member, error)
	Remove(ctx context.Context, index, member string) error
}

// Store wraps a geo index with lat/lng semantics.
type Store struct {
	idx Index
}

// NewStore creates a Store over the given index.
func NewStore(idx Index) *Store {
	return &Store{idx: idx}
}

// Upsert writes the point for entityID, replacing any previous point for the
// same entity in the same index. Coordinates are assumed pre-validated by the
// caller. Idempotent: repeating the call with the same point changes nothing.
func (s *Store) Upsert(ctx context.Context, indexName, entityID string, lat, lng float64) error {
	return s.idx.Add(ctx, indexName, entityID, lng, lat)
}

// PointLookup returns the entity's point, or ok=false if it was never
// indexed or has been removed.
func (s *Store) PointLookup(ctx context.Context, indexName, entityID string) (models.GeoPoint, bool, error) {
	lng, lat, ok, err := s.idx.Pos(ctx, indexName, entityID)
	if err != nil || !ok {
		return models.GeoPoint{}, false, err
	}
	return models.GeoPoint{Lat: lat, Lng: lng}, true, nil
}

// BoundingBoxSearch returns all indexed points inside the axis-aligned
// rectangle. An empty result is valid, not an error. Order is the index's
// native order; callers must not depend on it.
//
// The index searches by a center point plus box dimensions, which
// over-approximates the caller's rectangle, so candidates are re-checked
// against the bounds before being returned. The re-check tolerates the
// index's coordinate quantization: a point stored on a rectangle edge must
// not be dropped because its stored position decoded epsilon outside.
func (s *Store) BoundingBoxSearch(ctx context.Context, indexName string, bounds models.Bounds) ([]models.EntityPoint, error) {
	centerLat, centerLng, widthKM, heightKM := boxDimensions(bounds)

	candidates, err := s.idx.SearchBox(ctx, indexName, centerLng, centerLat, widthKM, heightKM)
	if err != nil {
		return nil, err
	}

	check := inflate(bounds)
	results := make([]models.EntityPoint, 0, len(candidates))
	for _, m := range candidates {
		if !check.Contains(m.Lat, m.Lng) {
			continue
		}
		results = append(results, models.EntityPoint{
			EntityID: m.Name,
			Lat:      m.Lat,
			Lng:      m.Lng,
		})
	}
	return results, nil
}

// Remove deletes the entity's point from the index. No-op if absent.
func (s *Store) Remove(ctx context.Context, indexName, entityID string) error {
	return s.idx.Remove(ctx, indexName, entityID)
}
