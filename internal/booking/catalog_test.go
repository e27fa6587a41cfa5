package booking

import (
	"errors"
	"reflect"
	"testing"
)

func catalogWithOccupied(occupied ...string) Catalog {
	busy := make(map[string]bool, len(occupied))
	for _, hour := range occupied {
		busy[hour] = true
	}
	catalog := DefaultCatalog()
	for i := range catalog {
		catalog[i].Occupied = busy[catalog[i].Hour]
	}
	return catalog
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(catalog))
	}
	if catalog[0].Hour != "06:00" || catalog[15].Hour != "21:00" {
		t.Fatalf("unexpected day bounds: %s - %s", catalog[0].Hour, catalog[15].Hour)
	}
	for _, slot := range catalog {
		if slot.Occupied {
			t.Fatalf("default catalog slot %s should be free", slot.Hour)
		}
	}
}

func TestMaxContiguousFreeRun(t *testing.T) {
	tests := []struct {
		name     string
		catalog  Catalog
		start    string
		expected int
	}{
		{"start occupied", catalogWithOccupied("06:00"), "06:00", 0},
		{"start missing", DefaultCatalog(), "05:00", 0},
		{"stops at first occupied", catalogWithOccupied("08:00"), "06:00", 2},
		{"capped at four", DefaultCatalog(), "06:00", 4},
		{"end of catalog", DefaultCatalog(), "21:00", 1},
		{"run of three near end", catalogWithOccupied("21:00"), "18:00", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.catalog.MaxContiguousFreeRun(tt.start); got != tt.expected {
				t.Errorf("MaxContiguousFreeRun(%q) = %d, want %d", tt.start, got, tt.expected)
			}
		})
	}
}

func TestMaxContiguousFreeRunMonotonic(t *testing.T) {
	// Occupying a trailing slot never increases the run from an earlier start.
	prev := DefaultCatalog().MaxContiguousFreeRun("06:00")
	for _, hour := range []string{"09:00", "08:00", "07:00"} {
		run := catalogWithOccupied(hour).MaxContiguousFreeRun("06:00")
		if run > prev {
			t.Fatalf("run grew from %d to %d after occupying %s", prev, run, hour)
		}
		prev = run
	}
}

func TestBuildSelection(t *testing.T) {
	tests := []struct {
		name     string
		catalog  Catalog
		start    string
		duration int
		expected []string
		wantErr  error
	}{
		{
			name:     "single hour",
			catalog:  DefaultCatalog(),
			start:    "06:00",
			duration: 1,
			expected: []string{"06:00"},
		},
		{
			name:     "three contiguous hours",
			catalog:  DefaultCatalog(),
			start:    "10:00",
			duration: 3,
			expected: []string{"10:00", "11:00", "12:00"},
		},
		{
			name:     "occupied slot inside range",
			catalog:  catalogWithOccupied("08:00"),
			start:    "06:00",
			duration: 3,
			wantErr:  ErrRangeUnavailable,
		},
		{
			name:     "start missing from catalog",
			catalog:  catalogWithOccupied(),
			start:    "09:30",
			duration: 1,
			wantErr:  ErrRangeUnavailable,
		},
		{
			name:     "range runs past end of day",
			catalog:  DefaultCatalog(),
			start:    "20:00",
			duration: 3,
			wantErr:  ErrRangeUnavailable,
		},
		{
			name:     "duration above cap",
			catalog:  DefaultCatalog(),
			start:    "06:00",
			duration: 5,
			wantErr:  ErrDurationOutOfRange,
		},
		{
			name:     "zero duration",
			catalog:  DefaultCatalog(),
			start:    "06:00",
			duration: 0,
			wantErr:  ErrDurationOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours, err := tt.catalog.BuildSelection(tt.start, tt.duration)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuildSelection error = %v, want %v", err, tt.wantErr)
				}
				if hours != nil {
					t.Fatalf("expected no partial selection, got %v", hours)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildSelection: %v", err)
			}
			if !reflect.DeepEqual(hours, tt.expected) {
				t.Errorf("BuildSelection = %v, want %v", hours, tt.expected)
			}
		})
	}
}

func TestBuildSelectionIdempotent(t *testing.T) {
	catalog := catalogWithOccupied("12:00", "18:00")
	first, err1 := catalog.BuildSelection("09:00", 3)
	second, err2 := catalog.BuildSelection("09:00", 3)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated BuildSelection diverged: %v vs %v", first, second)
	}
}

func TestFormatHourRange(t *testing.T) {
	catalog := DefaultCatalog()

	if got := catalog.FormatHourRange("06:00", 2); got != "06:00 - 08:00" {
		t.Errorf("FormatHourRange = %q, want %q", got, "06:00 - 08:00")
	}
	if got := catalog.FormatHourRange("20:00", 2); got != "20:00 + 2h" {
		t.Errorf("FormatHourRange past end = %q, want %q", got, "20:00 + 2h")
	}
	if got := catalog.FormatHourRange("05:00", 1); got != "05:00" {
		t.Errorf("FormatHourRange missing start = %q, want %q", got, "05:00")
	}
}

func TestFirstFree(t *testing.T) {
	catalog := catalogWithOccupied("06:00", "07:00")
	hour, ok := catalog.FirstFree()
	if !ok || hour != "08:00" {
		t.Fatalf("FirstFree = %q, %v, want 08:00", hour, ok)
	}

	full := catalogWithOccupied(DefaultHours()...)
	if _, ok := full.FirstFree(); ok {
		t.Fatal("expected no free slot in fully occupied catalog")
	}
}
