package models

// EntityKind distinguishes the two classes of mobile entities the service
// tracks. The kind is part of every presence key and geo index name, so the
// same entity ID may exist independently as a user and as a vendor.
type EntityKind string

const (
	KindUser   EntityKind = "user"
	KindVendor EntityKind = "vendor"
)

// Valid reports whether the kind is one of the known values.
func (k EntityKind) Valid() bool {
	return k == KindUser || k == KindVendor
}

// GeoIndex returns the name of the geo index holding points for this kind.
func (k EntityKind) GeoIndex() string {
	switch k {
	case KindVendor:
		return VendorLocationIndex
	default:
		return UserLocationIndex
	}
}

// Geo index names owned by the geospatial store.
const (
	VendorLocationIndex = "vendor_locations"
	UserLocationIndex   = "user_locations"
)

// Identity is the authenticated-entity input from the external auth layer.
// It arrives already verified; this service never validates credentials.
type Identity struct {
	EntityID string     `json:"entity_id"`
	Kind     EntityKind `json:"entity_kind"`
}
