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

type programJSON struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Days        []dayJSON `json:"days"`
	CreatedAt   time.Time `json:"createdAt"`
}

type dayJSON struct {
	ID        int                   `json:"id"`
	ProgramID int                   `json:"programId"`
	Name      string                `json:"name"`
	Order     int                   `json:"order"`
	Exercises []plannedExerciseJSON `json:"exercises"`
}

type plannedExerciseJSON struct {
	ID        int      `json:"id"`
	DayID     int      `json:"dayId"`
	LibraryID int      `json:"libraryId"`
	Order     int      `json:"order"`
	Notes     string   `json:"notes"`
	Sets      *int     `json:"sets"`
	Reps      *int     `json:"reps"`
	Weight    *float64 `json:"weight"`
	Name      string   `json:"name"`
	BodyPart  string   `json:"bodyPart"`
}

func (s *IntegrationTestSuite) addProgram(ctx context.Context, token, name string) programJSON {
	status, body := s.request(ctx, token, http.MethodPost, "/programs",
		strings.NewReader(fmt.Sprintf(`{"name":%q,"description":"e2e program"}`, name)),
	)
	require.Equal(s.T(), http.StatusCreated, status, string(body))

	var program programJSON
	require.NoError(s.T(), json.Unmarshal(body, &program))
	require.NotZero(s.T(), program.ID)
	return program
}

func (s *IntegrationTestSuite) addDay(ctx context.Context, token string, programID int, name string) dayJSON {
	status, body := s.request(ctx, token, http.MethodPost,
		fmt.Sprintf("/programs/%d/days", programID),
		strings.NewReader(fmt.Sprintf(`{"name":%q}`, name)),
	)
	require.Equal(s.T(), http.StatusCreated, status, string(body))

	var day dayJSON
	require.NoError(s.T(), json.Unmarshal(body, &day))
	require.NotZero(s.T(), day.ID)
	return day
}

func (s *IntegrationTestSuite) addExercise(ctx context.Context, token string, dayID, libraryID int) plannedExerciseJSON {
	status, body := s.request(ctx, token, http.MethodPost,
		fmt.Sprintf("/days/%d/exercises", dayID),
		strings.NewReader(fmt.Sprintf(`{"libraryId":%d,"sets":3,"reps":10}`, libraryID)),
	)
	require.Equal(s.T(), http.StatusCreated, status, string(body))

	var exercise plannedExerciseJSON
	require.NoError(s.T(), json.Unmarshal(body, &exercise))
	require.NotZero(s.T(), exercise.ID)
	return exercise
}

// picks an exercise from the library catalog, seeded from the CSV on startup
func (s *IntegrationTestSuite) libraryExerciseID(ctx context.Context, token string) int {
	status, body := s.request(ctx, token, http.MethodGet, "/library", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var catalog []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(s.T(), json.Unmarshal(body, &catalog))
	require.NotEmpty(s.T(), catalog)
	return catalog[0].ID
}

func (s *IntegrationTestSuite) TestPrograms_CRUD() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "programs-crud@fitcal.app", testPassword)

	program := s.addProgram(ctx, token, "Push Pull Legs")
	assert.Equal(s.T(), "Push Pull Legs", program.Name)

	libID := s.libraryExerciseID(ctx, token)

	pushDay := s.addDay(ctx, token, program.ID, "Push")
	pullDay := s.addDay(ctx, token, program.ID, "Pull")
	assert.Equal(s.T(), 1, pushDay.Order)
	assert.Equal(s.T(), 2, pullDay.Order)

	s.addExercise(ctx, token, pushDay.ID, libID)
	s.addExercise(ctx, token, pushDay.ID, libID)

	// program detail carries days with their exercises
	status, body := s.request(ctx, token, http.MethodGet,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var detail programJSON
	require.NoError(s.T(), json.Unmarshal(body, &detail))
	require.Len(s.T(), detail.Days, 2)
	assert.Equal(s.T(), "Push", detail.Days[0].Name)
	require.Len(s.T(), detail.Days[0].Exercises, 2)
	assert.NotEmpty(s.T(), detail.Days[0].Exercises[0].Name)
	assert.Empty(s.T(), detail.Days[1].Exercises)

	// rename
	status, body = s.request(ctx, token, http.MethodPut,
		fmt.Sprintf("/programs/%d", program.ID),
		strings.NewReader(`{"name":"PPL v2","description":"tweaked"}`),
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Equal(s.T(), fmt.Sprintf(`{"updated":%d}`, program.ID), string(body))

	// cascade delete removes the program together with days and exercises
	status, body = s.request(ctx, token, http.MethodDelete,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	status, _ = s.request(ctx, token, http.MethodGet,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	assert.Equal(s.T(), http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestPrograms_DayOrderCompaction() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "programs-compact@fitcal.app", testPassword)

	program := s.addProgram(ctx, token, "Upper Lower")
	s.addDay(ctx, token, program.ID, "Upper")
	middle := s.addDay(ctx, token, program.ID, "Lower")
	s.addDay(ctx, token, program.ID, "Arms")

	status, body := s.request(ctx, token, http.MethodDelete,
		fmt.Sprintf("/days/%d", middle.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	status, body = s.request(ctx, token, http.MethodGet,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var detail programJSON
	require.NoError(s.T(), json.Unmarshal(body, &detail))
	require.Len(s.T(), detail.Days, 2)
	assert.Equal(s.T(), "Upper", detail.Days[0].Name)
	assert.Equal(s.T(), 1, detail.Days[0].Order)
	assert.Equal(s.T(), "Arms", detail.Days[1].Name)
	assert.Equal(s.T(), 2, detail.Days[1].Order)
}

func (s *IntegrationTestSuite) TestPrograms_DeleteWithLoggedWorkouts() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "programs-logged@fitcal.app", testPassword)

	program := s.addProgram(ctx, token, "Logged Block")
	day := s.addDay(ctx, token, program.ID, "Full Body")
	exercise := s.addExercise(ctx, token, day.ID, s.libraryExerciseID(ctx, token))
	s.saveLog(ctx, token, "2024-03-01", exercise.ID, 3)

	// the whole program goes, logs included
	status, body := s.request(ctx, token, http.MethodDelete,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	status, body = s.request(ctx, token, http.MethodGet, "/logs?date=2024-03-01", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	assert.Equal(s.T(), "[]", strings.TrimSpace(string(body)))

	// same for a single day delete
	program = s.addProgram(ctx, token, "Logged Block Two")
	day = s.addDay(ctx, token, program.ID, "Push")
	exercise = s.addExercise(ctx, token, day.ID, s.libraryExerciseID(ctx, token))
	s.saveLog(ctx, token, "2024-03-02", exercise.ID, 4)

	status, body = s.request(ctx, token, http.MethodDelete,
		fmt.Sprintf("/days/%d", day.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	// and a single exercise delete
	day = s.addDay(ctx, token, program.ID, "Pull")
	exercise = s.addExercise(ctx, token, day.ID, s.libraryExerciseID(ctx, token))
	s.saveLog(ctx, token, "2024-03-03", exercise.ID, 5)

	status, body = s.request(ctx, token, http.MethodDelete,
		fmt.Sprintf("/exercises/%d", exercise.ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))
}

func (s *IntegrationTestSuite) TestPrograms_OwnershipIsolation() {
	ctx := context.Background()
	ownerToken := s.registerAndLogin(ctx, "programs-owner@fitcal.app", testPassword)
	otherToken := s.registerAndLogin(ctx, "programs-other@fitcal.app", testPassword)

	program := s.addProgram(ctx, ownerToken, "Private Plan")

	// other users cannot see or touch it
	status, _ := s.request(ctx, otherToken, http.MethodGet,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	assert.Equal(s.T(), http.StatusNotFound, status)

	status, _ = s.request(ctx, otherToken, http.MethodDelete,
		fmt.Sprintf("/programs/%d", program.ID), nil,
	)
	assert.Equal(s.T(), http.StatusNotFound, status)

	// and without a token there is no access at all
	status, _ = s.request(ctx, "", http.MethodGet, "/programs", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)
}
