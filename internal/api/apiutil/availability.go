package apiutil

import (
	"context"
	"fmt"
	"time"

	"github.com/canchapro/canchapro/internal/booking"
	"github.com/canchapro/canchapro/internal/db"
)

// DayWindow returns the UTC bounds of the calendar date in the given location.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.Add(24 * time.Hour).UTC()
}

// DayCatalog builds the slot catalog for a court and date, marking hours
// covered by slot-holding reservations as occupied.
func DayCatalog(ctx context.Context, q *db.Queries, courtID int64, date time.Time, loc *time.Location) (booking.Catalog, error) {
	from, to := DayWindow(date, loc)

	reservations, err := q.ListBlockingReservations(ctx, courtID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	catalog := booking.DefaultCatalog()
	for _, res := range reservations {
		start := res.StartTime.In(loc)
		end := res.EndTime.In(loc)
		for t := start.Truncate(time.Hour); t.Before(end); t = t.Add(time.Hour) {
			if !t.Before(from.In(loc)) && t.Before(to.In(loc)) {
				catalog.MarkOccupied(fmt.Sprintf("%02d:00", t.Hour()))
			}
		}
	}
	return catalog, nil
}
