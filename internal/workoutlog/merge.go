package workoutlog

import (
	"time"

	"github.com/fitcal/fitcal/internal/programs"
	"github.com/fitcal/fitcal/pkg"
)

// EditableLog is the edit state of one exercise's log: what the user
// sees in the input fields before an explicit save.
type EditableLog struct {
	Sets   *int     `json:"sets,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

func (l EditableLog) empty() bool {
	return l.Sets == nil && l.Reps == nil && l.Weight == nil && l.Notes == ""
}

// DisplayExercise pairs a planned exercise with its editable log for a
// given date. Persisted reports whether a saved log backs the values.
type DisplayExercise struct {
	Planned   programs.PlannedExercise `json:"planned"`
	Log       EditableLog              `json:"log"`
	Persisted bool                     `json:"persisted"`
}

// Merge produces the day-detail view: for each planned exercise the
// editable log is seeded field by field, persisted value first, planned
// target as fallback, empty otherwise.
func Merge(planned []programs.PlannedExercise, persistedLogs []Log) []DisplayExercise {
	logPerExercise := make(map[int]Log, len(persistedLogs))
	for _, l := range persistedLogs {
		logPerExercise[l.ProgramExerciseID] = l
	}

	display := make([]DisplayExercise, 0, len(planned))
	for _, exercise := range planned {
		de := DisplayExercise{
			Planned: exercise,
			Log: EditableLog{
				Sets:   exercise.Sets,
				Reps:   exercise.Reps,
				Weight: exercise.Weight,
			},
		}
		if persisted, ok := logPerExercise[exercise.ID]; ok {
			de.Persisted = true
			if persisted.Sets != nil {
				de.Log.Sets = persisted.Sets
			}
			if persisted.Reps != nil {
				de.Log.Reps = persisted.Reps
			}
			if persisted.Weight != nil {
				de.Log.Weight = persisted.Weight
			}
			de.Log.Notes = persisted.Notes
		}
		display = append(display, de)
	}

	return display
}

// Draft is the not-yet-saved edit overlay for one day: edits keyed by
// planned exercise id, each flagged dirty on change. Nothing in the
// draft touches persistence until Batch is built and saved.
type Draft struct {
	date  time.Time
	edits map[int]EditableLog
	dirty map[int]bool
}

func NewDraft(date time.Time, display []DisplayExercise) *Draft {
	draft := &Draft{
		date:  pkg.DateOnly(date),
		edits: make(map[int]EditableLog, len(display)),
		dirty: make(map[int]bool),
	}
	for _, de := range display {
		draft.edits[de.Planned.ID] = de.Log
	}
	return draft
}

// Edit replaces the draft entry for an exercise and marks it dirty.
func (d *Draft) Edit(exerciseID int, log EditableLog) {
	d.edits[exerciseID] = log
	d.dirty[exerciseID] = true
}

// Discard drops all unsaved edits.
func (d *Draft) Discard() {
	d.dirty = make(map[int]bool)
}

// Batch builds the save batch for a user: only dirty entries with at
// least one non-empty field make it in. An empty batch means there is
// nothing to save.
func (d *Draft) Batch(userID int) []Log {
	var batch []Log
	for exerciseID, isDirty := range d.dirty {
		if !isDirty {
			continue
		}
		edit := d.edits[exerciseID]
		if edit.empty() {
			continue
		}
		batch = append(batch, Log{
			UserID:            userID,
			ProgramExerciseID: exerciseID,
			Date:              d.date,
			Sets:              edit.Sets,
			Reps:              edit.Reps,
			Weight:            edit.Weight,
			Notes:             edit.Notes,
		})
	}
	return batch
}
