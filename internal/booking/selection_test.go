package booking

import (
	"reflect"
	"testing"
)

func TestDeriveSelectionClampsDuration(t *testing.T) {
	// 06:00 and 07:00 free, 08:00 occupied: a three hour request clamps to two.
	catalog := catalogWithOccupied("08:00")

	sel := DeriveSelection(catalog, "06:00", 3)
	if sel.Duration != 2 {
		t.Fatalf("duration = %d, want 2", sel.Duration)
	}
	if !reflect.DeepEqual(sel.Hours, []string{"06:00", "07:00"}) {
		t.Fatalf("hours = %v, want [06:00 07:00]", sel.Hours)
	}
}

func TestDeriveSelectionMissingStartFallsBackToFirstFree(t *testing.T) {
	catalog := catalogWithOccupied("06:00")

	sel := DeriveSelection(catalog, "05:00", 2)
	if sel.StartHour != "07:00" {
		t.Fatalf("start = %q, want 07:00", sel.StartHour)
	}
	if !reflect.DeepEqual(sel.Hours, []string{"07:00", "08:00"}) {
		t.Fatalf("hours = %v", sel.Hours)
	}
}

func TestDeriveSelectionFullyOccupiedCatalog(t *testing.T) {
	catalog := catalogWithOccupied(DefaultHours()...)

	sel := DeriveSelection(catalog, "09:30", 3)
	if sel.StartHour != "06:00" || sel.Duration != 1 {
		t.Fatalf("selection = %+v, want first-slot anchor", sel)
	}
}

func TestDeriveSelectionEmptyCatalog(t *testing.T) {
	sel := DeriveSelection(nil, "06:00", 1)
	if sel.StartHour != "" || len(sel.Hours) != 0 {
		t.Fatalf("expected zero selection, got %+v", sel)
	}
}

func TestDeriveSelectionIdempotent(t *testing.T) {
	catalog := catalogWithOccupied("10:00", "15:00")
	first := DeriveSelection(catalog, "11:00", 4)
	second := DeriveSelection(catalog, "11:00", 4)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("derivation diverged: %+v vs %+v", first, second)
	}
}

func TestDeriveSelectionDurationBounds(t *testing.T) {
	catalog := DefaultCatalog()

	if sel := DeriveSelection(catalog, "06:00", 0); sel.Duration != 1 {
		t.Errorf("duration 0 should clamp to 1, got %d", sel.Duration)
	}
	if sel := DeriveSelection(catalog, "06:00", 9); sel.Duration != MaxDurationHours {
		t.Errorf("duration 9 should clamp to %d, got %d", MaxDurationHours, sel.Duration)
	}
}
