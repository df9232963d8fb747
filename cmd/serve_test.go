package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildServer(t *testing.T) {
	old := cfg
	cfg = testConfig(t)
	t.Cleanup(func() { cfg = old })

	handler, reg, err := buildServer()
	require.NoError(t, err)
	require.NotNil(t, reg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, reg.Len())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildServer_BadStyles(t *testing.T) {
	old := cfg
	cfg = testConfig(t)
	cfg.Map.Styles = map[string]string{"bogus": "x"}
	t.Cleanup(func() { cfg = old })

	_, _, err := buildServer()
	assert.Error(t, err)
}

func TestServeCommand_ValidatesConfig(t *testing.T) {
	old := cfg
	cfg = testConfig(t)
	cfg.ArcGIS.Token = ""
	t.Cleanup(func() { cfg = old })

	err := serveCmd.RunE(serveCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arcgis.token is required")
}
