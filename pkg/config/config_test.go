package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 20*time.Minute, cfg.Tracker.Interval)
	assert.Equal(t, SnapshotStoreFile, cfg.Tracker.SnapshotStore)
	assert.Equal(t, 5*time.Second, cfg.WarBot.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Captcha.Timeout)
	assert.Equal(t, 3, cfg.Notify.Retries)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRACKER_INTERVAL", "90s")
	t.Setenv("TRACKER_SUPPRESS_PROFESSOR_CHANGE", "true")
	t.Setenv("SNAPSHOT_STORE", "Postgres")
	t.Setenv("CAPTCHA_TIMEOUT", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("WARBOT_NOTFOUND_RETRY", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Tracker.Interval)
	assert.True(t, cfg.Tracker.SuppressProfessorChange)
	assert.Equal(t, SnapshotStorePostgres, cfg.Tracker.SnapshotStore)
	assert.Equal(t, 5*time.Minute, cfg.Captcha.Timeout)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.WarBot.NotFoundRetry)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
