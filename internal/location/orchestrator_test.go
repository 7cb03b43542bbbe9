package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/models"
)

type memGeo struct {
	points    map[string]map[string]models.GeoPoint
	searchErr error
}

func newMemGeo() *memGeo {
	return &memGeo{points: make(map[string]map[string]models.GeoPoint)}
}

func (m *memGeo) Upsert(_ context.Context, indexName, entityID string, lat, lng float64) error {
	if m.points[indexName] == nil {
		m.points[indexName] = make(map[string]models.GeoPoint)
	}
	m.points[indexName][entityID] = models.GeoPoint{Lat: lat, Lng: lng}
	return nil
}

func (m *memGeo) BoundingBoxSearch(_ context.Context, indexName string, bounds models.Bounds) ([]models.EntityPoint, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var results []models.EntityPoint
	for id, p := range m.points[indexName] {
		if bounds.Contains(p.Lat, p.Lng) {
			results = append(results, models.EntityPoint{EntityID: id, Lat: p.Lat, Lng: p.Lng})
		}
	}
	return results, nil
}

type capturePublisher struct {
	subjects []string
	payloads []interface{}
	err      error
	errFor   string // fail only this subject; empty means fail all when err set
}

func (p *capturePublisher) Publish(subject string, payload interface{}) error {
	if p.err != nil && (p.errFor == "" || p.errFor == subject) {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

type captureSink struct {
	calls int
	last  models.LocationEvent
}

func (s *captureSink) Record(entityID string, kind models.EntityKind, lat, lng float64, timestamp time.Time) {
	s.calls++
	s.last = models.LocationEvent{EntityID: entityID, Kind: kind, Lat: lat, Lng: lng, Timestamp: timestamp}
}

func TestReportLocation_ValidationBoundary(t *testing.T) {
	cases := []struct {
		name      string
		lat, lng  float64
		wantField string
	}{
		{"latitude too high", 91, 0, "lat"},
		{"latitude too low", -90.5, 0, "lat"},
		{"longitude too low", 0, -181, "lng"},
		{"longitude too high", 0, 180.1, "lng"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			geo := newMemGeo()
			pub := &capturePublisher{}
			o := NewOrchestrator(geo, pub, nil, zap.NewNop())

			err := o.ReportLocation(context.Background(), models.KindVendor, "v1", tc.lat, tc.lng)

			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tc.wantField {
				t.Fatalf("validation field = %q, want %q", ve.Field, tc.wantField)
			}
			if len(geo.points) != 0 {
				t.Fatal("invalid report must not reach the geo index")
			}
			if len(pub.subjects) != 0 {
				t.Fatal("invalid report must not reach the relay")
			}
		})
	}
}

func TestReportLocation_RejectsBadIdentity(t *testing.T) {
	o := NewOrchestrator(newMemGeo(), &capturePublisher{}, nil, zap.NewNop())

	err := o.ReportLocation(context.Background(), models.EntityKind("robot"), "r1", 0, 0)
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Field != "entity_kind" {
		t.Fatalf("err = %v, want ValidationError on entity_kind", err)
	}

	err = o.ReportLocation(context.Background(), models.KindUser, "", 0, 0)
	if !errors.As(err, &ve) || ve.Field != "entity_id" {
		t.Fatalf("err = %v, want ValidationError on entity_id", err)
	}
}

func TestReportLocation_UpsertsAndPublishes(t *testing.T) {
	geo := newMemGeo()
	pub := &capturePublisher{}
	snk := &captureSink{}
	o := NewOrchestrator(geo, pub, snk, zap.NewNop())

	if err := o.ReportLocation(context.Background(), models.KindVendor, "v1", 40.7128, -74.0060); err != nil {
		t.Fatalf("report: %v", err)
	}

	p, ok := geo.points["vendor_locations"]["v1"]
	if !ok || p.Lat != 40.7128 || p.Lng != -74.0060 {
		t.Fatalf("geo index = %+v, want point for v1", geo.points)
	}

	if len(pub.subjects) != 1 || pub.subjects[0] != "location.vendor.location_updated" {
		t.Fatalf("published subjects = %v, want [location.vendor.location_updated]", pub.subjects)
	}
	event, ok := pub.payloads[0].(models.LocationEvent)
	if !ok {
		t.Fatalf("payload type = %T, want LocationEvent", pub.payloads[0])
	}
	if event.EntityID != "v1" || event.Kind != models.KindVendor {
		t.Fatalf("event = %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("event must carry a timestamp")
	}

	if snk.calls != 1 || snk.last.EntityID != "v1" {
		t.Fatalf("sink calls = %d last = %+v, want one record for v1", snk.calls, snk.last)
	}
}

func TestReportLocation_PublishFailureKeepsIndexWrite(t *testing.T) {
	geo := newMemGeo()
	pub := &capturePublisher{err: errors.New("broker down")}
	o := NewOrchestrator(geo, pub, nil, zap.NewNop())

	err := o.ReportLocation(context.Background(), models.KindUser, "u1", 40.7128, -74.0060)
	if err == nil {
		t.Fatal("publish failure must be surfaced to the caller")
	}

	// Search visibility and notification are decoupled: the point stays.
	if _, ok := geo.points["user_locations"]["u1"]; !ok {
		t.Fatal("geo write must survive a publish failure")
	}
}

func TestSearchArea_DelegatesAndAudits(t *testing.T) {
	geo := newMemGeo()
	pub := &capturePublisher{}
	o := NewOrchestrator(geo, pub, nil, zap.NewNop())

	ctx := context.Background()
	if err := o.ReportLocation(ctx, models.KindVendor, "midtown", 40.7589, -73.9851); err != nil {
		t.Fatal(err)
	}
	pub.subjects = nil
	pub.payloads = nil

	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: 40.7505, Lng: -73.9934},
		NorthEast: models.GeoPoint{Lat: 40.7589, Lng: -73.9851},
	}
	results, err := o.SearchArea(ctx, "vendor_locations", bounds)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].EntityID != "midtown" {
		t.Fatalf("results = %+v, want [midtown]", results)
	}

	if len(pub.subjects) != 1 || pub.subjects[0] != "location.search.performed" {
		t.Fatalf("audit subjects = %v, want [location.search.performed]", pub.subjects)
	}
	audit, ok := pub.payloads[0].(models.SearchAuditEvent)
	if !ok || audit.ResultCount != 1 || audit.IndexName != "vendor_locations" {
		t.Fatalf("audit = %+v", pub.payloads[0])
	}
}

func TestSearchArea_AuditFailureIsSwallowed(t *testing.T) {
	geo := newMemGeo()
	pub := &capturePublisher{err: errors.New("broker down"), errFor: "location.search.performed"}
	o := NewOrchestrator(geo, pub, nil, zap.NewNop())

	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: 0, Lng: 0},
		NorthEast: models.GeoPoint{Lat: 1, Lng: 1},
	}
	results, err := o.SearchArea(context.Background(), "vendor_locations", bounds)
	if err != nil {
		t.Fatalf("audit publish failure must not fail the search, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want empty", results)
	}
}

func TestSearchArea_ValidatesBounds(t *testing.T) {
	o := NewOrchestrator(newMemGeo(), &capturePublisher{}, nil, zap.NewNop())

	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: -91, Lng: 0},
		NorthEast: models.GeoPoint{Lat: 1, Lng: 1},
	}
	_, err := o.SearchArea(context.Background(), "vendor_locations", bounds)
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Field != "lat" {
		t.Fatalf("err = %v, want ValidationError on lat", err)
	}
}

func TestSearchArea_RejectsInvertedBounds(t *testing.T) {
	o := NewOrchestrator(newMemGeo(), &capturePublisher{}, nil, zap.NewNop())

	cases := []struct {
		name   string
		bounds models.Bounds
		field  string
	}{
		{
			name: "latitude inverted",
			bounds: models.Bounds{
				SouthWest: models.GeoPoint{Lat: 41, Lng: -74},
				NorthEast: models.GeoPoint{Lat: 40, Lng: -73},
			},
			field: "south_west.lat",
		},
		{
			name: "longitude inverted",
			bounds: models.Bounds{
				SouthWest: models.GeoPoint{Lat: 40, Lng: -73},
				NorthEast: models.GeoPoint{Lat: 41, Lng: -74},
			},
			field: "south_west.lng",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.SearchArea(context.Background(), "vendor_locations", tc.bounds)
			var ve *models.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("err = %v, want ValidationError on %s", err, tc.field)
			}
		})
	}
}
