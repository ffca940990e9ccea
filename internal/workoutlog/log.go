package workoutlog

import "time"

// Log is a user's recorded performance for one planned exercise on one
// calendar date. Unique per (user, planned exercise, date) - saving
// again for the same triple replaces the previous values.
type Log struct {
	ID                int       `json:"id"`
	UserID            int       `json:"userId"`
	ProgramExerciseID int       `json:"programExerciseId"`
	Date              time.Time `json:"date"`
	Notes             string    `json:"notes,omitempty"`

	Sets   *int     `json:"sets,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// Empty reports whether the log carries no recorded values at all.
// Empty logs are never persisted.
func (l Log) Empty() bool {
	return l.Sets == nil && l.Reps == nil && l.Weight == nil && l.Notes == ""
}
