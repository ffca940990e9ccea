package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seedCatalog(t *testing.T, repo *RepoMock) {
	t.Helper()
	ctx := context.Background()
	for _, exercise := range []Exercise{
		{Name: "Bench Press", BodyPart: "chest", MediaURL: "https://media.fitcal.app/bench.gif"},
		{Name: "Squat", BodyPart: "legs"},
		{Name: "Deadlift", BodyPart: "back"},
		{Name: "Leg Press", BodyPart: "legs"},
	} {
		_, err := repo.Upsert(ctx, exercise)
		require.NoError(t, err)
	}
}

func TestService_List_cached(t *testing.T) {
	repo := NewRepoMock()
	seedCatalog(t, repo)
	service := NewService(repo)
	ctx := context.Background()

	exercises, err := service.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, exercises, 4)
	assert.Equal(t, "Bench Press", exercises[0].Name)
	assert.Equal(t, 1, repo.ListCalls)

	// second read comes from cache
	exercises, err = service.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, exercises, 4)
	assert.Equal(t, 1, repo.ListCalls)

	// body part filter is a separate cache entry
	legs, err := service.List(ctx, "legs")
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, 2, repo.ListCalls)
}

func TestService_Get_cached(t *testing.T) {
	repo := NewRepoMock()
	seedCatalog(t, repo)
	service := NewService(repo)
	ctx := context.Background()

	exercise, err := service.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", exercise.Name)
	assert.Equal(t, 1, repo.GetCalls)

	_, err = service.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.GetCalls)

	_, err = service.Get(ctx, 100)
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestService_Import_dropsCache(t *testing.T) {
	repo := NewRepoMock()
	seedCatalog(t, repo)
	service := NewService(repo)
	ctx := context.Background()

	exercises, err := service.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, exercises, 4)

	imported, err := service.Import(ctx, []Exercise{
		{Name: "Pull Up", BodyPart: "back"},
		// re-import of an existing name updates in place
		{Name: "Squat", BodyPart: "legs", MediaURL: "https://media.fitcal.app/squat.gif"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	exercises, err = service.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, exercises, 5)

	squat, err := service.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://media.fitcal.app/squat.gif", squat.MediaURL)
}
