package apiutil

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateField parses a calendar date in YYYY-MM-DD form.
func ParseDateField(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s es obligatorio", field)
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s debe ser una fecha en formato YYYY-MM-DD", field)
	}
	return parsed, nil
}
