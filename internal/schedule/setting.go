package schedule

import (
	"fmt"
	"time"
)

// DurationUnit is the unit of the scheduled range length.
type DurationUnit string

const (
	DurationWeeks  DurationUnit = "weeks"
	DurationMonths DurationUnit = "months"
)

const daysPerMonth = 30 // calendar approximation, not exact month length

// TotalDays converts a duration count in this unit to a number of
// calendar days.
func (u DurationUnit) TotalDays(count int) (int, error) {
	switch u {
	case DurationWeeks:
		return count * 7, nil
	case DurationMonths:
		return count * daysPerMonth, nil
	default:
		return 0, fmt.Errorf("unknown duration unit [%s]", u)
	}
}

// Setting is the per-user calendar configuration: which program runs,
// from which date, for how long, and how many rest days follow each
// full pass through the program days. One row per user, replaced
// wholesale on every "add to calendar".
type Setting struct {
	UserID        int          `json:"userId"`
	ProgramID     int          `json:"programId"`
	StartDate     time.Time    `json:"startDate"`
	DurationCount int          `json:"durationCount"`
	DurationUnit  DurationUnit `json:"durationUnit"`
	RestDays      int          `json:"restDays"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (s Setting) Validate() error {
	if s.ProgramID <= 0 {
		return fmt.Errorf("program id invalid")
	}
	if s.StartDate.IsZero() {
		return fmt.Errorf("start date missing")
	}
	if s.DurationCount <= 0 {
		return fmt.Errorf("duration count must be positive")
	}
	if _, err := s.DurationUnit.TotalDays(s.DurationCount); err != nil {
		return err
	}
	if s.RestDays < 0 {
		return fmt.Errorf("rest days must not be negative")
	}
	return nil
}
