package schedule

import (
	"time"

	"github.com/fitcal/fitcal/internal/programs"
	"github.com/fitcal/fitcal/pkg"
)

// Entry is one generated calendar date: either a rest day or a pointer
// to a program day. The day id is the cross-reference key, the label is
// carried along for display only.
type Entry struct {
	IsRest bool   `json:"isRest"`
	DayID  int    `json:"dayId,omitempty"`
	Label  string `json:"label,omitempty"`
}

// Generate maps calendar dates onto program days. Starting at startDate
// it walks totalDays consecutive dates with a cycle counter: the first
// len(days) positions of each cycle take the program days in ordinal
// order, the following restDays positions are rest days, then the cycle
// restarts. Keys are ISO dates (YYYY-MM-DD), any time of day on the
// start date is dropped.
//
// A program without days yields an empty mapping. The generation is
// deterministic, rerunning with the same inputs gives the same mapping.
func Generate(
	days []programs.Day,
	startDate time.Time,
	durationCount int,
	durationUnit DurationUnit,
	restDays int,
) (map[string]Entry, error) {
	totalDays, err := durationUnit.TotalDays(durationCount)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]Entry)
	if len(days) == 0 {
		return mapping, nil
	}

	cycleLen := len(days) + restDays
	cyclePos := 0
	date := pkg.DateOnly(startDate)
	for i := 0; i < totalDays; i++ {
		key := date.Format(time.DateOnly)
		if cyclePos < len(days) {
			day := days[cyclePos%len(days)]
			mapping[key] = Entry{DayID: day.ID, Label: day.Name}
		} else {
			mapping[key] = Entry{IsRest: true}
		}

		cyclePos++
		if cyclePos >= cycleLen {
			cyclePos = 0
		}
		date = date.AddDate(0, 0, 1)
	}

	return mapping, nil
}
