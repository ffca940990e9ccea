package test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogin() {
	ctx := context.Background()

	s.doRegister(ctx, testEmail, testPassword)
	token := s.doLogin(ctx, testEmail, testPassword)
	require.NotEmpty(s.T(), token)

	// the token opens protected routes
	status, _ := s.request(ctx, token, http.MethodGet, "/programs", nil)
	assert.Equal(s.T(), http.StatusOK, status)

	// logout invalidates it
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		fmt.Sprintf("%s/a/logout", serverEndpoint), nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(authTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.NoError(s.T(), resp.Body.Close())
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	status, _ = s.request(ctx, token, http.MethodGet, "/programs", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestLogin_WrongCredentials() {
	ctx := context.Background()

	s.doRegister(ctx, "wrong-creds@fitcal.app", testPassword)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/a/login", serverEndpoint),
		strings.NewReader(url.Values{
			"email":    {"wrong-creds@fitcal.app"},
			"password": {"not-the-password"},
		}.Encode()),
	)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.NoError(s.T(), resp.Body.Close())
	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestRegister_EmailTaken() {
	ctx := context.Background()

	s.doRegister(ctx, "taken@fitcal.app", testPassword)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/a/register", serverEndpoint),
		strings.NewReader(url.Values{
			"email":    {"taken@fitcal.app"},
			"password": {testPassword},
		}.Encode()),
	)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.NoError(s.T(), resp.Body.Close())
	assert.Equal(s.T(), http.StatusConflict, resp.StatusCode)
}
