// Package booking implements the hourly slot catalog and the contiguous
// selection rules applied when a player requests a court reservation.
package booking

import (
	"errors"
	"fmt"
)

// MaxDurationHours caps how many consecutive hours a single reservation may span.
const MaxDurationHours = 4

var (
	ErrRangeUnavailable   = errors.New("requested hour range is not available")
	ErrDurationOutOfRange = errors.New("duration must be between 1 and 4 hours")
)

// Slot is one bookable hour of a court's day.
type Slot struct {
	Hour     string `json:"hour"`
	Occupied bool   `json:"occupied"`
}

// Catalog is the ordered list of hourly slots for one (court, date) pair.
// It is replaced wholesale whenever the court or date changes.
type Catalog []Slot

var defaultHours = []string{
	"06:00", "07:00", "08:00", "09:00",
	"10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00",
	"18:00", "19:00", "20:00", "21:00",
}

// DefaultCatalog returns the full-day catalog with every slot free. It is the
// fallback used when no schedule could be fetched for a court.
func DefaultCatalog() Catalog {
	catalog := make(Catalog, len(defaultHours))
	for i, hour := range defaultHours {
		catalog[i] = Slot{Hour: hour}
	}
	return catalog
}

// DefaultHours returns the fixed daily hour grid (06:00 through 21:00).
func DefaultHours() []string {
	hours := make([]string, len(defaultHours))
	copy(hours, defaultHours)
	return hours
}

func (c Catalog) indexOf(hour string) int {
	for i, slot := range c {
		if slot.Hour == hour {
			return i
		}
	}
	return -1
}

// MarkOccupied marks the slot for the given hour as occupied, if present.
func (c Catalog) MarkOccupied(hour string) {
	if i := c.indexOf(hour); i >= 0 {
		c[i].Occupied = true
	}
}

// FirstFree returns the earliest unoccupied hour in the catalog.
func (c Catalog) FirstFree() (string, bool) {
	for _, slot := range c {
		if !slot.Occupied {
			return slot.Hour, true
		}
	}
	return "", false
}

// MaxContiguousFreeRun counts consecutive free slots starting at startHour,
// capped at MaxDurationHours. It returns 0 when startHour is missing from the
// catalog or is itself occupied.
func (c Catalog) MaxContiguousFreeRun(startHour string) int {
	start := c.indexOf(startHour)
	if start < 0 {
		return 0
	}
	run := 0
	for i := start; i < len(c); i++ {
		if c[i].Occupied {
			break
		}
		run++
		if run >= MaxDurationHours {
			break
		}
	}
	return run
}

// BuildSelection returns the ordered hours of a contiguous free run of the
// requested duration starting at startHour. The result is all-or-nothing: if
// any hour in the range is missing or occupied, no partial selection is
// returned.
func (c Catalog) BuildSelection(startHour string, duration int) ([]string, error) {
	if duration < 1 || duration > MaxDurationHours {
		return nil, ErrDurationOutOfRange
	}
	start := c.indexOf(startHour)
	if start < 0 || start+duration > len(c) {
		return nil, ErrRangeUnavailable
	}
	hours := make([]string, 0, duration)
	for _, slot := range c[start : start+duration] {
		if slot.Occupied {
			return nil, ErrRangeUnavailable
		}
		hours = append(hours, slot.Hour)
	}
	return hours, nil
}

// FormatHourRange renders the selected range as "06:00 - 08:00". When the end
// of the range runs past the catalog the duration is appended instead, e.g.
// "20:00 + 2h".
func (c Catalog) FormatHourRange(startHour string, duration int) string {
	start := c.indexOf(startHour)
	if start < 0 {
		return startHour
	}
	end := start + duration
	if end < len(c) {
		return startHour + " - " + c[end].Hour
	}
	return fmt.Sprintf("%s + %dh", startHour, duration)
}
