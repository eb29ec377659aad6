package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessCheck(t *testing.T) {
	db, _ := setupMockDB(t)
	s := newTestServer(t, db, &fakeAuth{}, nil)

	app := fiberApp()
	app.Get("/health/live", s.LivenessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadinessCheck_WithoutChangeStream(t *testing.T) {
	db, _ := setupMockDB(t)
	s := newTestServer(t, db, &fakeAuth{}, nil)

	app := fiberApp()
	app.Get("/health/ready", s.ReadinessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp)

	// The change stream is optional; readiness only hard-fails on the database.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unavailable", body["change_stream"])
}
