package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(40.7128, -74.0060); err != nil {
		t.Fatalf("valid coordinates rejected: %v", err)
	}
	if err := ValidateCoordinates(90, 180); err != nil {
		t.Fatalf("boundary coordinates rejected: %v", err)
	}
	if err := ValidateCoordinates(-90, -180); err != nil {
		t.Fatalf("boundary coordinates rejected: %v", err)
	}

	var ve *ValidationError
	if err := ValidateCoordinates(91, 0); !errors.As(err, &ve) || ve.Field != "lat" {
		t.Fatalf("lat=91: got %v, want ValidationError on lat", err)
	}
	if err := ValidateCoordinates(0, -181); !errors.As(err, &ve) || ve.Field != "lng" {
		t.Fatalf("lng=-181: got %v, want ValidationError on lng", err)
	}
}

func TestIsValidation_SeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("report location: %w", NewValidationError("lat", 91.0, "out of range"))
	if !IsValidation(err) {
		t.Fatal("wrapped ValidationError not recognized")
	}
	if IsValidation(errors.New("plain")) {
		t.Fatal("plain error misclassified as validation")
	}
}

func TestEntityKind(t *testing.T) {
	if !KindUser.Valid() || !KindVendor.Valid() {
		t.Fatal("known kinds must be valid")
	}
	if EntityKind("robot").Valid() {
		t.Fatal("unknown kind must be invalid")
	}
	if KindVendor.GeoIndex() != "vendor_locations" {
		t.Fatalf("vendor index = %q", KindVendor.GeoIndex())
	}
	if KindUser.GeoIndex() != "user_locations" {
		t.Fatalf("user index = %q", KindUser.GeoIndex())
	}
}

func TestLocationUpdatedSubject(t *testing.T) {
	if got := LocationUpdatedSubject(KindVendor); got != "location.vendor.location_updated" {
		t.Fatalf("subject = %q", got)
	}
	if got := LocationUpdatedSubject(KindUser); got != "location.user.location_updated" {
		t.Fatalf("subject = %q", got)
	}
}
