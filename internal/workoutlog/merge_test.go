package workoutlog

import (
	"testing"
	"time"

	"github.com/fitcal/fitcal/internal/programs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func TestMerge_noPersistedLog(t *testing.T) {
	planned := []programs.PlannedExercise{
		{ID: 1, Sets: intPtr(3), Reps: intPtr(8), Weight: floatPtr(80)},
		{ID: 2},
	}

	display := Merge(planned, nil)
	require.Len(t, display, 2)

	// editable fields fall back to the planned targets
	assert.False(t, display[0].Persisted)
	assert.Equal(t, 3, *display[0].Log.Sets)
	assert.Equal(t, 8, *display[0].Log.Reps)
	assert.Equal(t, 80.0, *display[0].Log.Weight)

	// no plan targets either, everything stays empty
	assert.Nil(t, display[1].Log.Sets)
	assert.Nil(t, display[1].Log.Reps)
	assert.Nil(t, display[1].Log.Weight)
}

func TestMerge_perFieldFallback(t *testing.T) {
	planned := []programs.PlannedExercise{
		{ID: 1, Sets: intPtr(3), Reps: intPtr(8), Weight: floatPtr(80)},
	}
	// persisted log has sets only, reps and weight stay from the plan
	persisted := []Log{
		{ID: 10, UserID: 1, ProgramExerciseID: 1, Sets: intPtr(4), Notes: "felt heavy"},
	}

	display := Merge(planned, persisted)
	require.Len(t, display, 1)

	assert.True(t, display[0].Persisted)
	assert.Equal(t, 4, *display[0].Log.Sets)
	assert.Equal(t, 8, *display[0].Log.Reps)
	assert.Equal(t, 80.0, *display[0].Log.Weight)
	assert.Equal(t, "felt heavy", display[0].Log.Notes)
}

func TestMerge_logForOtherExerciseIgnored(t *testing.T) {
	planned := []programs.PlannedExercise{{ID: 1, Sets: intPtr(3)}}
	persisted := []Log{{ID: 10, ProgramExerciseID: 99, Sets: intPtr(5)}}

	display := Merge(planned, persisted)
	require.Len(t, display, 1)
	assert.False(t, display[0].Persisted)
	assert.Equal(t, 3, *display[0].Log.Sets)
}

func TestDraft_batch(t *testing.T) {
	date := time.Date(2024, 1, 3, 15, 4, 5, 0, time.UTC)
	planned := []programs.PlannedExercise{
		{ID: 1, Sets: intPtr(3)},
		{ID: 2},
		{ID: 3},
	}
	draft := NewDraft(date, Merge(planned, nil))

	// untouched draft has nothing to save
	assert.Empty(t, draft.Batch(1))

	draft.Edit(1, EditableLog{Sets: intPtr(4), Reps: intPtr(8)})
	draft.Edit(2, EditableLog{}) // cleared out entry stays out of the batch

	batch := draft.Batch(1)
	require.Len(t, batch, 1)
	assert.Equal(t, 1, batch[0].ProgramExerciseID)
	assert.Equal(t, 1, batch[0].UserID)
	assert.Equal(t, 4, *batch[0].Sets)
	// the batch date is the calendar day, time of day dropped
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), batch[0].Date)

	draft.Discard()
	assert.Empty(t, draft.Batch(1))
}
