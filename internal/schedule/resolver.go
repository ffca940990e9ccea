package schedule

import (
	"github.com/fitcal/fitcal/internal/programs"

	log "github.com/sirupsen/logrus"
)

type DayKind string

const (
	DayKindWorkout     DayKind = "workout"
	DayKindRest        DayKind = "rest"
	DayKindUnscheduled DayKind = "unscheduled"
)

// Resolution is the answer to "what happens on this date": a workout
// (with the resolved program day), a rest day, or nothing scheduled.
type Resolution struct {
	Kind DayKind       `json:"kind"`
	Day  *programs.Day `json:"day,omitempty"`
}

// Resolve looks a date key up in the generated mapping. Dates outside
// the generated range are unscheduled. A workout entry whose day no
// longer exists in the program (the program was edited after the
// schedule was generated) degrades to unscheduled with a warning
// instead of failing.
func Resolve(dateKey string, mapping map[string]Entry, days []programs.Day) Resolution {
	entry, ok := mapping[dateKey]
	if !ok {
		return Resolution{Kind: DayKindUnscheduled}
	}
	if entry.IsRest {
		return Resolution{Kind: DayKindRest}
	}

	for i := range days {
		if days[i].ID == entry.DayID {
			return Resolution{Kind: DayKindWorkout, Day: &days[i]}
		}
	}

	log.Warnf(
		"schedule entry for %s points to day %d [%s] which is gone from the program, treating as unscheduled",
		dateKey, entry.DayID, entry.Label,
	)
	return Resolution{Kind: DayKindUnscheduled}
}
