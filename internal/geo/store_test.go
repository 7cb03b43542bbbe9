package geo

import (
	"context"
	"math"
	"testing"

	"github.com/marminbh/location-svc/internal/models"
)

// memIndex is an in-memory Index storing members in native lng/lat order,
// like the real geo index does.
type memIndex struct {
	points map[string]map[string][2]float64 // index → member → {lng, lat}
}

func newMemIndex() *memIndex {
	return &memIndex{points: make(map[string]map[string][2]float64)}
}

func (m *memIndex) Add(_ context.Context, index, member string, lng, lat float64) error {
	if m.points[index] == nil {
		m.points[index] = make(map[string][2]float64)
	}
	m.points[index][member] = [2]float64{lng, lat}
	return nil
}

func (m *memIndex) Pos(_ context.Context, index, member string) (float64, float64, bool, error) {
	p, ok := m.points[index][member]
	if !ok {
		return 0, 0, false, nil
	}
	return p[0], p[1], true, nil
}

// SearchBox returns every member, deliberately ignoring the box: the store
// must re-filter candidates itself.
func (m *memIndex) SearchBox(_ context.Context, index string, _, _, _, _ float64) ([]Member, error) {
	var members []Member
	for name, p := range m.points[index] {
		members = append(members, Member{Name: name, Lng: p[0], Lat: p[1]})
	}
	return members, nil
}

func (m *memIndex) Remove(_ context.Context, index, member string) error {
	delete(m.points[index], member)
	return nil
}

func TestUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex()
	store := NewStore(idx)

	if err := store.Upsert(ctx, "vendor_locations", "v1", 40.7128, -74.0060); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.Upsert(ctx, "vendor_locations", "v1", 40.7589, -73.9851); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if n := len(idx.points["vendor_locations"]); n != 1 {
		t.Fatalf("index holds %d points for v1, want 1", n)
	}
	p, ok, err := store.PointLookup(ctx, "vendor_locations", "v1")
	if err != nil || !ok {
		t.Fatalf("lookup after upsert: ok=%v err=%v", ok, err)
	}
	if p.Lat != 40.7589 || p.Lng != -73.9851 {
		t.Fatalf("lookup = %+v, want latest coordinates", p)
	}
}

func TestUpsert_AxisOrderAtIndexBoundary(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex()
	store := NewStore(idx)

	// Deliberately asymmetric coordinates so a silent axis swap fails.
	if err := store.Upsert(ctx, "user_locations", "u1", 10.0, 20.0); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	raw := idx.points["user_locations"]["u1"]
	if raw[0] != 20.0 || raw[1] != 10.0 {
		t.Fatalf("index stored {lng, lat} = %v, want {20, 10}", raw)
	}

	p, ok, err := store.PointLookup(ctx, "user_locations", "u1")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if p.Lat != 10.0 || p.Lng != 20.0 {
		t.Fatalf("lookup = %+v, want {Lat: 10, Lng: 20}", p)
	}
}

func TestPointLookup_Missing(t *testing.T) {
	store := NewStore(newMemIndex())
	_, ok, err := store.PointLookup(context.Background(), "vendor_locations", "absent")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Fatal("lookup of unindexed entity should return ok=false")
	}
}

func TestBoundingBoxSearch_FiltersExactly(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemIndex())

	if err := store.Upsert(ctx, "vendor_locations", "downtown", 40.7128, -74.0060); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, "vendor_locations", "midtown", 40.7589, -73.9851); err != nil {
		t.Fatal(err)
	}

	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: 40.7505, Lng: -73.9934},
		NorthEast: models.GeoPoint{Lat: 40.7589, Lng: -73.9851},
	}
	results, err := store.BoundingBoxSearch(ctx, "vendor_locations", bounds)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("search returned %d results, want 1", len(results))
	}
	if results[0].EntityID != "midtown" {
		t.Fatalf("search returned %q, want midtown", results[0].EntityID)
	}
	if results[0].Lat != 40.7589 || results[0].Lng != -73.9851 {
		t.Fatalf("result coordinates = %+v, want {40.7589, -73.9851}", results[0])
	}
}

// quantIndex quantizes coordinates on Add the way the real index does:
// each axis snaps to the center of a 26-bit geohash cell, so stored
// positions read back up to half a cell away from what was written.
type quantIndex struct {
	memIndex
}

func newQuantIndex() *quantIndex {
	return &quantIndex{memIndex{points: make(map[string]map[string][2]float64)}}
}

func quantize(v, lo, hi float64) float64 {
	step := (hi - lo) / float64(uint64(1)<<26)
	cell := math.Floor((v - lo) / step)
	return lo + (cell+0.5)*step
}

func (q *quantIndex) Add(ctx context.Context, index, member string, lng, lat float64) error {
	return q.memIndex.Add(ctx, index, member, quantize(lng, -180, 180), quantize(lat, -90, 90))
}

func TestBoundingBoxSearch_ToleratesIndexQuantization(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newQuantIndex())

	// Both corners of the search rectangle coincide with a stored point,
	// whose quantized position decodes epsilon outside the rectangle.
	if err := store.Upsert(ctx, "vendor_locations", "downtown", 40.7128, -74.0060); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, "vendor_locations", "midtown", 40.7589, -73.9851); err != nil {
		t.Fatal(err)
	}

	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: 40.7505, Lng: -73.9934},
		NorthEast: models.GeoPoint{Lat: 40.7589, Lng: -73.9851},
	}
	results, err := store.BoundingBoxSearch(ctx, "vendor_locations", bounds)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].EntityID != "midtown" {
		t.Fatalf("results = %+v, want exactly the edge point", results)
	}
}

func TestBoundingBoxSearch_ToleranceStaysTight(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemIndex())

	// A point clearly outside the rectangle must still be filtered out.
	if err := store.Upsert(ctx, "vendor_locations", "outside", 40.7595, -73.9851); err != nil {
		t.Fatal(err)
	}

	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: 40.7505, Lng: -73.9934},
		NorthEast: models.GeoPoint{Lat: 40.7589, Lng: -73.9851},
	}
	results, err := store.BoundingBoxSearch(ctx, "vendor_locations", bounds)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want empty", results)
	}
}

func TestBoundingBoxSearch_Empty(t *testing.T) {
	store := NewStore(newMemIndex())
	bounds := models.Bounds{
		SouthWest: models.GeoPoint{Lat: 0, Lng: 0},
		NorthEast: models.GeoPoint{Lat: 1, Lng: 1},
	}
	results, err := store.BoundingBoxSearch(context.Background(), "vendor_locations", bounds)
	if err != nil {
		t.Fatalf("search over empty index: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("search returned %d results, want 0", len(results))
	}
}

func TestRemove_IdempotentAndEffective(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemIndex())

	if err := store.Remove(ctx, "vendor_locations", "never-there"); err != nil {
		t.Fatalf("removing an absent member should be a no-op, got %v", err)
	}

	if err := store.Upsert(ctx, "vendor_locations", "v1", 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, "vendor_locations", "v1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, ok, err := store.PointLookup(ctx, "vendor_locations", "v1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("point should be gone after remove")
	}
}
