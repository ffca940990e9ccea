package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type libraryExerciseJSON struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	BodyPart string `json:"bodyPart"`
	MediaURL string `json:"mediaUrl"`
}

func (s *IntegrationTestSuite) TestLibrary_Catalog() {
	ctx := context.Background()
	token := s.registerAndLogin(ctx, "library-catalog@fitcal.app", testPassword)

	// seeded from the CSV on server start
	status, body := s.request(ctx, token, http.MethodGet, "/library", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var catalog []libraryExerciseJSON
	require.NoError(s.T(), json.Unmarshal(body, &catalog))
	require.NotEmpty(s.T(), catalog)
	for _, exercise := range catalog {
		assert.NotEmpty(s.T(), exercise.Name)
		assert.NotEmpty(s.T(), exercise.BodyPart)
	}

	status, body = s.request(ctx, token, http.MethodGet, "/library/bodyparts", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var bodyParts []string
	require.NoError(s.T(), json.Unmarshal(body, &bodyParts))
	require.NotEmpty(s.T(), bodyParts)

	// filtering by body part returns a subset
	status, body = s.request(ctx, token, http.MethodGet,
		fmt.Sprintf("/library?bodyPart=%s", bodyParts[0]), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var filtered []libraryExerciseJSON
	require.NoError(s.T(), json.Unmarshal(body, &filtered))
	require.NotEmpty(s.T(), filtered)
	for _, exercise := range filtered {
		assert.Equal(s.T(), bodyParts[0], exercise.BodyPart)
	}

	// single exercise lookup
	status, body = s.request(ctx, token, http.MethodGet,
		fmt.Sprintf("/library/%d", catalog[0].ID), nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var single libraryExerciseJSON
	require.NoError(s.T(), json.Unmarshal(body, &single))
	assert.Equal(s.T(), catalog[0].Name, single.Name)

	status, _ = s.request(ctx, token, http.MethodGet, "/library/999999", nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
}
