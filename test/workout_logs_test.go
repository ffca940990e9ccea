package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workoutLogJSON struct {
	ID                int       `json:"id"`
	UserID            int       `json:"userId"`
	ProgramExerciseID int       `json:"programExerciseId"`
	Date              time.Time `json:"date"`
	Notes             string    `json:"notes"`
	Sets              *int      `json:"sets"`
	Reps              *int      `json:"reps"`
	Weight            *float64  `json:"weight"`
}

func (s *IntegrationTestSuite) saveLog(ctx context.Context, token, date string, programExerciseID, sets int) {
	status, body := s.request(ctx, token, http.MethodPost, "/logs",
		strings.NewReader(fmt.Sprintf(
			`{"date":%q,"logs":[{"programExerciseId":%d,"sets":%d,"reps":8,"weight":60.5}]}`,
			date, programExerciseID, sets,
		)),
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Contains(s.T(), string(body), `"saved":1`)
}

func (s *IntegrationTestSuite) TestWorkoutLogs_HistoryAndUpsert() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "logs-history@fitcal.app", testPassword)

	program := s.addProgram(ctx, token, "Strength Block")
	day := s.addDay(ctx, token, program.ID, "Heavy Day")
	exercise := s.addExercise(ctx, token, day.ID, s.libraryExerciseID(ctx, token))

	s.saveLog(ctx, token, "2024-02-01", exercise.ID, 3)
	s.saveLog(ctx, token, "2024-02-03", exercise.ID, 4)
	// same date again: the existing row is updated, not duplicated
	s.saveLog(ctx, token, "2024-02-03", exercise.ID, 5)

	// history comes back newest first
	status, body := s.request(ctx, token, http.MethodGet,
		fmt.Sprintf("/logs/exercise/%d", exercise.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var history []workoutLogJSON
	require.NoError(s.T(), json.Unmarshal(body, &history))
	require.Len(s.T(), history, 2)
	assert.Equal(s.T(), "2024-02-03", history[0].Date.Format(time.DateOnly))
	require.NotNil(s.T(), history[0].Sets)
	assert.Equal(s.T(), 5, *history[0].Sets)
	assert.Equal(s.T(), "2024-02-01", history[1].Date.Format(time.DateOnly))

	// logs for a single date
	status, body = s.request(ctx, token, http.MethodGet, "/logs?date=2024-02-01", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var forDate []workoutLogJSON
	require.NoError(s.T(), json.Unmarshal(body, &forDate))
	require.Len(s.T(), forDate, 1)
	assert.Equal(s.T(), exercise.ID, forDate[0].ProgramExerciseID)

	// delete one entry
	status, body = s.request(ctx, token, http.MethodDelete,
		fmt.Sprintf("/logs/%d", forDate[0].ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	status, body = s.request(ctx, token, http.MethodGet, "/logs?date=2024-02-01", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	require.NoError(s.T(), json.Unmarshal(body, &forDate))
	assert.Empty(s.T(), forDate)
}

func (s *IntegrationTestSuite) TestWorkoutLogs_BadRequests() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "logs-bad@fitcal.app", testPassword)

	// unparseable date
	status, _ := s.request(ctx, token, http.MethodPost, "/logs",
		strings.NewReader(`{"date":"01.02.2024","logs":[{"programExerciseId":1,"sets":3}]}`),
	)
	assert.Equal(s.T(), http.StatusBadRequest, status)

	// missing exercise reference
	status, _ = s.request(ctx, token, http.MethodPost, "/logs",
		strings.NewReader(`{"date":"2024-02-01","logs":[{"sets":3}]}`),
	)
	assert.Equal(s.T(), http.StatusBadRequest, status)
}
