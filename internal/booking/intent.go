package booking

import (
	"fmt"
	"math"
	"time"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "15:04"
)

// Intent is the ephemeral summary of a validated selection, built only at
// confirmation time. It is never persisted beyond the outbound message or
// charge payload derived from it.
type Intent struct {
	CourtID       int64
	Date          string // YYYY-MM-DD
	StartHour     string // HH:MM
	EndHour       string // HH:MM, start + duration on the clock
	DurationHours int
	TotalPrice    float64
}

// NewIntent validates the date and selection and computes the end hour and
// total price (price per hour times duration).
func NewIntent(courtID int64, date string, sel Selection, pricePerHour float64) (Intent, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Intent{}, fmt.Errorf("invalid reservation date %q: %w", date, err)
	}
	if sel.StartHour == "" || len(sel.Hours) != sel.Duration || sel.Duration < 1 {
		return Intent{}, ErrRangeUnavailable
	}
	start, err := time.Parse(hourLayout, sel.StartHour)
	if err != nil {
		return Intent{}, fmt.Errorf("invalid start hour %q: %w", sel.StartHour, err)
	}
	end := start.Add(time.Duration(sel.Duration) * time.Hour)

	return Intent{
		CourtID:       courtID,
		Date:          date,
		StartHour:     sel.StartHour,
		EndHour:       end.Format(hourLayout),
		DurationHours: sel.Duration,
		TotalPrice:    pricePerHour * float64(sel.Duration),
	}, nil
}

// AmountCents converts the total price to payment-gateway cents, never below 1.
func (i Intent) AmountCents() int64 {
	cents := int64(math.Round(i.TotalPrice * 100))
	if cents < 1 {
		return 1
	}
	return cents
}

// StartAt resolves the reservation start as a wall-clock time in loc.
func (i Intent) StartAt(loc *time.Location) (time.Time, error) {
	return timeAt(i.Date, i.StartHour, loc)
}

// EndAt resolves the reservation end as a wall-clock time in loc. Reservations
// ending past midnight roll into the next day.
func (i Intent) EndAt(loc *time.Location) (time.Time, error) {
	start, err := i.StartAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(i.DurationHours) * time.Hour), nil
}

func timeAt(date, hour string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout+" "+hourLayout, date+" "+hour, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reservation time %s %s: %w", date, hour, err)
	}
	return t, nil
}
