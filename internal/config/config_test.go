package config

import (
	"testing"
)

func TestParseLocations(t *testing.T) {
	locs, err := parseLocations("39.9042,116.4074,北京; 48.85,2.35,Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}
	if locs[0].DisplayName != "北京" || locs[0].Lat != 39.9042 {
		t.Errorf("unexpected first location: %+v", locs[0])
	}
	if locs[1].DisplayName != "Paris" || locs[1].Lon != 2.35 {
		t.Errorf("unexpected second location: %+v", locs[1])
	}
}

func TestParseLocationsRejectsMalformedEntries(t *testing.T) {
	if _, err := parseLocations("48.85,2.35"); err == nil {
		t.Fatal("expected error for entry without a name")
	}
	if _, err := parseLocations("x,2.35,Paris"); err == nil {
		t.Fatal("expected error for non-numeric latitude")
	}
}

func TestParseLocationsEmpty(t *testing.T) {
	locs, err := parseLocations("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locs != nil {
		t.Fatalf("expected nil, got %v", locs)
	}
}
