package booking

// Selection is a validated contiguous run of free hours. It is derived from
// the current catalog on every read instead of being mutated in place, so an
// async catalog refresh can never leave a stale selection behind.
type Selection struct {
	StartHour string
	Duration  int
	Hours     []string
}

// DeriveSelection computes the selection for the requested start hour and
// duration against the given catalog.
//
// When the start hour is missing from the catalog (e.g. it disappeared after
// a refresh for a new date), the first free slot is chosen instead, falling
// back to the first slot of the catalog when nothing is free. The duration is
// clamped down to the maximal contiguous free run from the effective start,
// never below 1.
func DeriveSelection(catalog Catalog, startHour string, duration int) Selection {
	if len(catalog) == 0 {
		return Selection{}
	}

	start := startHour
	if catalog.indexOf(start) < 0 {
		if free, ok := catalog.FirstFree(); ok {
			start = free
		} else {
			start = catalog[0].Hour
		}
	}

	if duration < 1 {
		duration = 1
	}
	if duration > MaxDurationHours {
		duration = MaxDurationHours
	}
	if run := catalog.MaxContiguousFreeRun(start); run > 0 && duration > run {
		duration = run
	}

	hours, err := catalog.BuildSelection(start, duration)
	if err != nil {
		// Start slot itself is occupied: keep it as a one-hour placeholder so
		// the caller still has an anchor in the catalog.
		return Selection{StartHour: start, Duration: 1, Hours: []string{start}}
	}
	return Selection{StartHour: start, Duration: duration, Hours: hours}
}
