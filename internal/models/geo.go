package models

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// EntityPoint is a geo point tagged with the entity it belongs to, as
// returned by bounding-box searches.
type EntityPoint struct {
	EntityID string  `json:"entity_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Bounds is an axis-aligned bounding box. SouthWest.Lng must be <= and
// SouthWest.Lat must be <= their NorthEast counterparts; boxes crossing the
// antimeridian are not supported.
type Bounds struct {
	SouthWest GeoPoint `json:"south_west"`
	NorthEast GeoPoint `json:"north_east"`
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.SouthWest.Lat && lat <= b.NorthEast.Lat &&
		lng >= b.SouthWest.Lng && lng <= b.NorthEast.Lng
}
