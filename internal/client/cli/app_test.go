package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
	"github.com/tailorcv/tailorcv-cli/internal/client/config"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SessionStore: config.StoreFile,
		SessionFile:  filepath.Join(t.TempDir(), "session.json"),
		DownloadDir:  t.TempDir(),
	}
}

// A missing backend URL degrades the backend surface instead of failing
// start-up; the affected calls report a configuration error.
func TestNewApp_MissingBackendURL(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg, logging.New(io.Discard, "error"))
	require.NoError(t, err)

	_, err = a.api.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	// Bootstrap still resolves to signed out.
	assert.Nil(t, a.sessions.Bootstrap(context.Background()))
}

func TestNewApp_ConfiguredBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackendBaseURL = "https://api.example.org"

	a, err := NewApp(cfg, logging.New(io.Discard, "error"))
	require.NoError(t, err)
	assert.NotNil(t, a.sessions)
	assert.NotNil(t, a.identity)
}
