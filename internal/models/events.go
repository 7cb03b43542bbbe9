package models

import (
	"fmt"
	"time"
)

// Broker subjects. The convention is {domain}.{kind}.{event}, fully
// dot-delimited.
const (
	SubjectSearchPerformed = "location.search.performed"

	locationUpdatedFormat = "location.%s.location_updated"
)

// LocationUpdatedSubject returns the subject for location updates of the
// given entity kind, e.g. "location.vendor.location_updated".
func LocationUpdatedSubject(kind EntityKind) string {
	return fmt.Sprintf(locationUpdatedFormat, kind)
}

// LocationEvent is published after every successful geo upsert.
type LocationEvent struct {
	EntityID  string     `json:"entity_id"`
	Kind      EntityKind `json:"entity_kind"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Timestamp time.Time  `json:"timestamp"`
}

// SearchAuditEvent is a best-effort observability event emitted after a
// bounding-box search.
type SearchAuditEvent struct {
	IndexName   string    `json:"index_name"`
	Bounds      Bounds    `json:"bounds"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}
