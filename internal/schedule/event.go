package schedule

import (
	"fmt"
	"regexp"
	"time"
)

// TimedEvent is one scheduled occurrence, reduced to the fields double-booking
// detection needs. Dates are plain calendar dates (no timezone conversion) and
// times are zero-padded HH:MM times of day, so lexicographic order equals
// temporal order. Events never span midnight.
type TimedEvent struct {
	ID           string `json:"id"`
	Date         string `json:"date"`      // YYYY-MM-DD
	StartTime    string `json:"startTime"` // HH:MM
	EndTime      string `json:"endTime"`   // HH:MM, strictly after StartTime
	InstructorID string `json:"instructorId,omitempty"`
}

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateTimes checks the well-formedness the detector assumes: parseable
// date, zero-padded times, start strictly before end. Malformed values are a
// caller bug, reported loudly here rather than tolerated downstream.
func (e TimedEvent) ValidateTimes() error {
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", e.Date, err)
	}
	if !timeOfDayRe.MatchString(e.StartTime) {
		return fmt.Errorf("invalid start time %q: want HH:MM", e.StartTime)
	}
	if !timeOfDayRe.MatchString(e.EndTime) {
		return fmt.Errorf("invalid end time %q: want HH:MM", e.EndTime)
	}
	if e.StartTime >= e.EndTime {
		return fmt.Errorf("start %q must precede end %q", e.StartTime, e.EndTime)
	}
	return nil
}
