package geo

import (
	"math"

	"github.com/marminbh/location-svc/internal/models"
)

// Kilometers per degree of latitude, and per degree of longitude at the
// equator. Longitude degrees shrink with cos(lat).
const kmPerDegree = 111.320

// boxMargin inflates the search box slightly so the spherical distance the
// index uses can never exclude a point that sits inside the caller's
// rectangle. Over-inclusion is corrected by the Contains re-check.
const boxMargin = 1.01

// coordEpsilon absorbs the index's coordinate quantization in the exact
// re-check. The index stores positions on a 26-bit-per-axis geohash grid, so
// a stored coordinate decodes up to half a cell away from what was written
// (~5.4e-6 degrees of longitude at the equator). Without the tolerance a
// point sitting exactly on a rectangle edge can decode epsilon outside it
// and be wrongly dropped.
const coordEpsilon = 1e-5

// inflate grows the bounds by coordEpsilon on every side.
func inflate(b models.Bounds) models.Bounds {
	b.SouthWest.Lat -= coordEpsilon
	b.SouthWest.Lng -= coordEpsilon
	b.NorthEast.Lat += coordEpsilon
	b.NorthEast.Lng += coordEpsilon
	return b
}

// boxDimensions converts an axis-aligned lat/lng rectangle into the
// center-plus-dimensions form the geo index searches by.
//
// The box width in kilometers varies with latitude, so the width is computed
// at the latitude inside the rectangle closest to the equator, where a
// degree of longitude is widest. That makes the box an over-approximation of
// the rectangle at every latitude it spans.
func boxDimensions(b models.Bounds) (centerLat, centerLng, widthKM, heightKM float64) {
	centerLat = (b.SouthWest.Lat + b.NorthEast.Lat) / 2
	centerLng = (b.SouthWest.Lng + b.NorthEast.Lng) / 2

	heightKM = (b.NorthEast.Lat - b.SouthWest.Lat) * kmPerDegree * boxMargin

	widest := widestLatitude(b.SouthWest.Lat, b.NorthEast.Lat)
	widthKM = (b.NorthEast.Lng - b.SouthWest.Lng) * kmPerDegree * math.Cos(widest*math.Pi/180) * boxMargin

	return centerLat, centerLng, widthKM, heightKM
}

// widestLatitude returns the latitude within [south, north] closest to the
// equator: zero when the range spans it, otherwise the bound with the
// smaller absolute value.
func widestLatitude(south, north float64) float64 {
	if south <= 0 && north >= 0 {
		return 0
	}
	if math.Abs(south) < math.Abs(north) {
		return south
	}
	return north
}
