package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoad_DecodesAndDefaults(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"base.yaml": `
db:
  host: localhost
  port: 5432
recurrence:
  timezone: Europe/Berlin
  sweep_interval: 10m
  rate_limit_window: 15m
  anchor_hour: 8
goals:
  bootstrap_on_start: true
`,
		"test.yaml": `
recurrence:
  allow_unscheduled: false
check_state:
  backend: memory
`,
	})
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10*time.Minute, cfg.Recurrence.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.Recurrence.RateLimitWindow)
	assert.Equal(t, 8, cfg.Recurrence.AnchorHour)
	assert.Equal(t, time.Hour, cfg.Recurrence.SlotIncrement)
	assert.Equal(t, time.Hour, cfg.Recurrence.TaskDuration)
	assert.False(t, cfg.Recurrence.AllowUnscheduled)
	assert.True(t, cfg.Goals.BootstrapOnStart)
	assert.Equal(t, 30*time.Minute, cfg.Goals.RecalcInterval)
	assert.Equal(t, "memory", cfg.CheckState.Backend)
	assert.Equal(t, "recurrence-runner", cfg.OTel.ServiceName)

	loc, err := cfg.Recurrence.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_AllowUnscheduledDefaultsTrue(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": "recurrence:\n  timezone: UTC\n"})
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_ENV", "local")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Recurrence.AllowUnscheduled)
	assert.Equal(t, "redis", cfg.CheckState.Backend)
	assert.Equal(t, 9, cfg.Recurrence.AnchorHour)
	assert.Equal(t, "8090", cfg.Server.Port)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"timezone":    "recurrence:\n  timezone: Mars/Olympus\n",
		"anchor hour": "recurrence:\n  anchor_hour: 25\n",
		"backend":     "check_state:\n  backend: etcd\n",
	}
	for name, base := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_DIR", writeConfig(t, map[string]string{"base.yaml": base}))
			t.Setenv("CONFIG_ENV", "local")
			_, err := Load()
			require.Error(t, err)
		})
	}
}
