// Package slot buckets instants into fixed-width windows of a UTC day.
// Travelers departing or arriving within the same window share a room, so
// the machine key must be byte-for-byte stable across deployments.
package slot

import (
	"fmt"
	"time"

	"flyte/errors"
)

// Slot is a half-open time bucket [Start, End) of a UTC day divided into
// TotalSlots equal parts.
type Slot struct {
	TotalSlots    int
	DurationHours int
	Start         time.Time
	End           time.Time

	// Key is the machine-sortable identifier, e.g. "S16T20D06012026".
	// Room deduplication matches on it; never change its format.
	Key string

	// Label is the human-readable rendering, e.g. "4PM-8PM-06Jan".
	// Display only, never used for matching.
	Label string
}

// Compute maps an instant to its slot. totalSlots must be a positive integer
// that divides 24 evenly.
func Compute(instant time.Time, totalSlots int) (Slot, error) {
	if totalSlots <= 0 || 24%totalSlots != 0 {
		return Slot{}, errors.ConfigurationError{
			Reason: fmt.Sprintf("total slots must be a positive divisor of 24, got %d", totalSlots),
		}
	}

	duration := 24 / totalSlots
	utc := instant.UTC()
	startHour := utc.Hour() / duration * duration

	start := time.Date(utc.Year(), utc.Month(), utc.Day(), startHour, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(duration) * time.Hour)

	return Slot{
		TotalSlots:    totalSlots,
		DurationHours: duration,
		Start:         start,
		End:           end,
		Key:           fmt.Sprintf("S%02dT%02dD%s", startHour, startHour+duration, start.Format("02012006")),
		Label:         fmt.Sprintf("%s-%s-%s", start.Format("3PM"), end.Format("3PM"), start.Format("02Jan")),
	}, nil
}
