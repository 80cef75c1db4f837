package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_MissingKeyRejected(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager(), "secret-key")
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/file/list")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_WrongKeyRejected(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager(), "secret-key")
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/file/list", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "not-the-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_ValidKeyAccepted(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager(), "secret-key")
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/file/list", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_EmptyAllowListDisablesAuth(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/file/list")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORS_Preflight(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager(), "secret-key")
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/file/list", nil)
	require.NoError(t, err)

	// Preflight passes without an API key.
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager(), "secret-key")
	defer ts.Close()

	// Health requires the key too; it sits behind the same chain.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
