package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stretchr/testify/require"
)

const authTokenHeader = "X-FITCAL-TOKEN"

type loginResponse struct {
	Token       string `json:"token"`
	UserID      int    `json:"userId"`
	DisplayName string `json:"displayName"`
}

// doRegister creates a new user account via the register endpoint
func (s *IntegrationTestSuite) doRegister(ctx context.Context, email, password string) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/a/register", serverEndpoint),
		strings.NewReader(url.Values{
			"email":    {email},
			"password": {password},
		}.Encode()),
	)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
}

// doLogin logs the user in and returns the session token
func (s *IntegrationTestSuite) doLogin(ctx context.Context, email, password string) string {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/a/login", serverEndpoint),
		strings.NewReader(url.Values{
			"email":    {email},
			"password": {password},
		}.Encode()),
	)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var loginResp loginResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &loginResp))
	require.NotEmpty(s.T(), loginResp.Token)

	return loginResp.Token
}

// registerAndLogin is a shortcut for tests that just need a fresh session
func (s *IntegrationTestSuite) registerAndLogin(ctx context.Context, email, password string) string {
	s.doRegister(ctx, email, password)
	return s.doLogin(ctx, email, password)
}

// request sends an authenticated JSON request to the running server
// and returns the response status and body
func (s *IntegrationTestSuite) request(
	ctx context.Context,
	token, method, path string,
	body io.Reader,
) (int, []byte) {
	req, err := http.NewRequestWithContext(
		ctx, method,
		fmt.Sprintf("%s%s", serverEndpoint, path),
		body,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(authTokenHeader, token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp.StatusCode, respBytes
}
