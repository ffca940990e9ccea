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

type scheduleEntryJSON struct {
	IsRest bool   `json:"isRest"`
	DayID  int    `json:"dayId"`
	Label  string `json:"label"`
}

type scheduleSettingJSON struct {
	UserID        int       `json:"userId"`
	ProgramID     int       `json:"programId"`
	StartDate     time.Time `json:"startDate"`
	DurationCount int       `json:"durationCount"`
	DurationUnit  string    `json:"durationUnit"`
	RestDays      int       `json:"restDays"`
}

type dayDetailJSON struct {
	Date      string   `json:"date"`
	Kind      string   `json:"kind"`
	Day       *dayJSON `json:"day"`
	Exercises []struct {
		Planned plannedExerciseJSON `json:"planned"`
		Log     struct {
			Sets   *int     `json:"sets"`
			Reps   *int     `json:"reps"`
			Weight *float64 `json:"weight"`
			Notes  string   `json:"notes"`
		} `json:"log"`
		Persisted bool `json:"persisted"`
	} `json:"exercises"`
}

// creates a push/pull/legs program and puts it on the calendar
// starting 2024-01-01 with a single rest day after each cycle
func (s *IntegrationTestSuite) setupCalendar(ctx context.Context, token string) (programJSON, plannedExerciseJSON) {
	program := s.addProgram(ctx, token, "PPL")
	libID := s.libraryExerciseID(ctx, token)

	pushDay := s.addDay(ctx, token, program.ID, "Push")
	s.addDay(ctx, token, program.ID, "Pull")
	s.addDay(ctx, token, program.ID, "Legs")
	pushExercise := s.addExercise(ctx, token, pushDay.ID, libID)

	status, body := s.request(ctx, token, http.MethodPut, "/calendar",
		strings.NewReader(fmt.Sprintf(
			`{"programId":%d,"startDate":"2024-01-01","durationCount":1,"durationUnit":"weeks","restDays":1}`,
			program.ID,
		)),
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	return program, pushExercise
}

func (s *IntegrationTestSuite) TestCalendar_Mapping() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "calendar-mapping@fitcal.app", testPassword)

	// no schedule yet: empty calendar, not an error
	status, body := s.request(ctx, token, http.MethodGet, "/calendar", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Equal(s.T(), "{}", string(body))

	s.setupCalendar(ctx, token)

	status, body = s.request(ctx, token, http.MethodGet, "/calendar", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var mapping map[string]scheduleEntryJSON
	require.NoError(s.T(), json.Unmarshal(body, &mapping))
	require.Len(s.T(), mapping, 7)

	assert.Equal(s.T(), "Push", mapping["2024-01-01"].Label)
	assert.Equal(s.T(), "Pull", mapping["2024-01-02"].Label)
	assert.Equal(s.T(), "Legs", mapping["2024-01-03"].Label)
	assert.True(s.T(), mapping["2024-01-04"].IsRest)
	assert.Equal(s.T(), "Push", mapping["2024-01-05"].Label)
	assert.Equal(s.T(), "Pull", mapping["2024-01-06"].Label)
	assert.Equal(s.T(), "Legs", mapping["2024-01-07"].Label)

	// the setting itself is also retrievable
	status, body = s.request(ctx, token, http.MethodGet, "/calendar/setting", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var setting scheduleSettingJSON
	require.NoError(s.T(), json.Unmarshal(body, &setting))
	assert.Equal(s.T(), "weeks", setting.DurationUnit)
	assert.Equal(s.T(), 1, setting.RestDays)
	assert.Equal(s.T(), "2024-01-01", setting.StartDate.Format(time.DateOnly))
}

func (s *IntegrationTestSuite) TestCalendar_DayDetailAndLogs() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "calendar-day@fitcal.app", testPassword)

	_, pushExercise := s.setupCalendar(ctx, token)

	// before any logging, the day shows the planned values only
	status, body := s.request(ctx, token, http.MethodGet, "/calendar/day/2024-01-01", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var detail dayDetailJSON
	require.NoError(s.T(), json.Unmarshal(body, &detail))
	assert.Equal(s.T(), "workout", detail.Kind)
	require.NotNil(s.T(), detail.Day)
	assert.Equal(s.T(), "Push", detail.Day.Name)
	require.Len(s.T(), detail.Exercises, 1)
	assert.False(s.T(), detail.Exercises[0].Persisted)
	require.NotNil(s.T(), detail.Exercises[0].Log.Sets)
	assert.Equal(s.T(), 3, *detail.Exercises[0].Log.Sets)

	// a rest day and a date outside the schedule
	status, body = s.request(ctx, token, http.MethodGet, "/calendar/day/2024-01-04", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	require.NoError(s.T(), json.Unmarshal(body, &detail))
	assert.Equal(s.T(), "rest", detail.Kind)
	assert.Nil(s.T(), detail.Day)

	status, body = s.request(ctx, token, http.MethodGet, "/calendar/day/2025-06-15", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	require.NoError(s.T(), json.Unmarshal(body, &detail))
	assert.Equal(s.T(), "unscheduled", detail.Kind)

	// log the workout, overriding the planned sets
	status, body = s.request(ctx, token, http.MethodPost, "/logs",
		strings.NewReader(fmt.Sprintf(
			`{"date":"2024-01-01","logs":[{"programExerciseId":%d,"sets":4,"notes":"felt strong"}]}`,
			pushExercise.ID,
		)),
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Contains(s.T(), string(body), `"saved":1`)

	// saved sets win, planned reps fill the gap
	status, body = s.request(ctx, token, http.MethodGet, "/calendar/day/2024-01-01", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	require.NoError(s.T(), json.Unmarshal(body, &detail))
	require.Len(s.T(), detail.Exercises, 1)
	merged := detail.Exercises[0]
	assert.True(s.T(), merged.Persisted)
	require.NotNil(s.T(), merged.Log.Sets)
	assert.Equal(s.T(), 4, *merged.Log.Sets)
	require.NotNil(s.T(), merged.Log.Reps)
	assert.Equal(s.T(), 10, *merged.Log.Reps)
	assert.Equal(s.T(), "felt strong", merged.Log.Notes)

	// a batch with nothing filled in saves nothing
	status, body = s.request(ctx, token, http.MethodPost, "/logs",
		strings.NewReader(fmt.Sprintf(
			`{"date":"2024-01-01","logs":[{"programExerciseId":%d}]}`,
			pushExercise.ID,
		)),
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Contains(s.T(), string(body), `"saved":0`)
	assert.Contains(s.T(), string(body), "nothing to save")
}

func (s *IntegrationTestSuite) TestCalendar_SkipDay() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "calendar-skip@fitcal.app", testPassword)

	s.setupCalendar(ctx, token)

	// skipping a past date shifts the whole schedule forward one day
	status, body := s.request(ctx, token, http.MethodPost, "/calendar/skip",
		strings.NewReader(`{"date":"2024-01-02"}`),
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var setting scheduleSettingJSON
	require.NoError(s.T(), json.Unmarshal(body, &setting))
	assert.Equal(s.T(), "2024-01-02", setting.StartDate.Format(time.DateOnly))

	status, body = s.request(ctx, token, http.MethodGet, "/calendar", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var mapping map[string]scheduleEntryJSON
	require.NoError(s.T(), json.Unmarshal(body, &mapping))
	assert.NotContains(s.T(), mapping, "2024-01-01")
	assert.Equal(s.T(), "Push", mapping["2024-01-02"].Label)

	// future dates cannot be skipped
	futureDate := time.Now().AddDate(0, 0, 7).Format(time.DateOnly)
	status, _ = s.request(ctx, token, http.MethodPost, "/calendar/skip",
		strings.NewReader(fmt.Sprintf(`{"date":%q}`, futureDate)),
	)
	assert.Equal(s.T(), http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestCalendar_Clear() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "calendar-clear@fitcal.app", testPassword)

	s.setupCalendar(ctx, token)

	status, body := s.request(ctx, token, http.MethodDelete, "/calendar", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	status, body = s.request(ctx, token, http.MethodGet, "/calendar", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Equal(s.T(), "{}", string(body))

	// clearing twice is an error
	status, _ = s.request(ctx, token, http.MethodDelete, "/calendar", nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
}
