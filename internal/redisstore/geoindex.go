package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/marminbh/location-svc/internal/geo"
)

// GeoIndex adapts the shared Redis client to the geo-index operations the
// geospatial store needs. All coordinates cross this boundary in the index's
// native lng/lat order; the geo store owns the translation to lat/lng
// semantics. Satisfies geo.Index.
type GeoIndex struct {
	client *redis.Client
}

// NewGeoIndex wraps the shared Redis client.
func NewGeoIndex(client *redis.Client) *GeoIndex {
	return &GeoIndex{client: client}
}

// Add upserts a member. Redis GEOADD replaces an existing member's position,
// so repeat calls never duplicate.
func (g *GeoIndex) Add(ctx context.Context, index, member string, lng, lat float64) error {
	err := g.client.GeoAdd(ctx, index, &redis.GeoLocation{
		Name:      member,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis GEOADD %s %s: %w", index, member, err)
	}
	return nil
}

// Pos returns a member's position. ok is false when the member is not
// indexed.
func (g *GeoIndex) Pos(ctx context.Context, index, member string) (lng, lat float64, ok bool, err error) {
	positions, err := g.client.GeoPos(ctx, index, member).Result()
	if err != nil {
		return 0, 0, false, fmt.Errorf("redis GEOPOS %s %s: %w", index, member, err)
	}
	if len(positions) == 0 || positions[0] == nil {
		return 0, 0, false, nil
	}
	return positions[0].Longitude, positions[0].Latitude, true, nil
}

// SearchBox returns all members within a box of widthKM x heightKM centered
// at (lng, lat), with their coordinates.
func (g *GeoIndex) SearchBox(ctx context.Context, index string, lng, lat, widthKM, heightKM float64) ([]geo.Member, error) {
	locations, err := g.client.GeoSearchLocation(ctx, index, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude: lng,
			Latitude:  lat,
			BoxWidth:  widthKM,
			BoxHeight: heightKM,
			BoxUnit:   "km",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis GEOSEARCH %s: %w", index, err)
	}

	members := make([]geo.Member, 0, len(locations))
	for _, loc := range locations {
		members = append(members, geo.Member{
			Name: loc.Name,
			Lng:  loc.Longitude,
			Lat:  loc.Latitude,
		})
	}
	return members, nil
}

// Remove deletes a member from the index. Geo indexes are sorted sets
// underneath, so ZREM is the removal primitive; removing an absent member is
// a no-op.
func (g *GeoIndex) Remove(ctx context.Context, index, member string) error {
	if err := g.client.ZRem(ctx, index, member).Err(); err != nil {
		return fmt.Errorf("redis ZREM %s %s: %w", index, member, err)
	}
	return nil
}
