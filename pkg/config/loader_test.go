package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_MergesEnvironmentAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  password: ${DB_SECRET}
recurrence:
  timezone: UTC
  sweep_interval: 15m
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.staging
recurrence:
  timezone: Europe/Berlin
`)
	writeFile(t, dir, "secrets.env", `
# comment
DB_SECRET="s3cret"
`)

	cfg, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	db := cfg["db"].(map[string]interface{})
	assert.Equal(t, "db.staging", db["host"])
	assert.Equal(t, 5432, db["port"])
	assert.Equal(t, "s3cret", db["password"])

	rec := cfg["recurrence"].(map[string]interface{})
	assert.Equal(t, "Europe/Berlin", rec["timezone"])
	assert.Equal(t, "15m", rec["sweep_interval"])
}

func TestLoadConfig_MissingBase(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	require.Error(t, err)
}

func TestOverrideFromSystemEnv(t *testing.T) {
	base := map[string]interface{}{
		"recurrence": map[string]interface{}{"timezone": "UTC", "anchor_hour": 9},
	}

	out := overrideFromSystemEnv(base, []string{
		"FOCUSFLOW__RECURRENCE__ANCHOR_HOUR=7",
		"FOCUSFLOW__GOALS__BOOTSTRAP_ON_START=true",
		"UNRELATED=1",
	})

	rec := out["recurrence"].(map[string]interface{})
	assert.Equal(t, 7, rec["anchor_hour"])
	assert.Equal(t, "UTC", rec["timezone"])
	goals := out["goals"].(map[string]interface{})
	assert.Equal(t, true, goals["bootstrap_on_start"])

	// 原始 map 不被修改
	assert.Equal(t, 9, base["recurrence"].(map[string]interface{})["anchor_hour"])
}

func TestDecode(t *testing.T) {
	var out struct {
		DB DBConfig `yaml:"db"`
	}
	err := Decode(map[string]interface{}{
		"db": map[string]interface{}{"host": "h", "port": 1234},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "h", out.DB.Host)
	assert.Equal(t, 1234, out.DB.Port)
}

func TestOverrideFromFlatEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_ENABLED", "false")

	db := DBConfig{Host: "localhost", Port: 5432, MaxConns: 10}
	OverrideDBFromEnv(&db)
	assert.Equal(t, "pg.internal", db.Host)
	assert.Equal(t, 5432, db.Port)
	assert.Equal(t, int32(25), db.MaxConns)

	var otel OTelConfig
	OverrideOTelFromEnv(&otel)
	assert.Equal(t, "collector:4317", otel.Endpoint)
	assert.False(t, otel.Enabled)
}
