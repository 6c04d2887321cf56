package db

import (
	"testing"

	"focusflow/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN_EscapesCredentials(t *testing.T) {
	dsn := DSN(config.DBConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "focus",
		Password: "p@ss:w/rd",
		Name:     "focusflow",
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "focus", cfg.ConnConfig.User)
	assert.Equal(t, "p@ss:w/rd", cfg.ConnConfig.Password)
	assert.Equal(t, "focusflow", cfg.ConnConfig.Database)
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestDSN_KeepsSSLMode(t *testing.T) {
	dsn := DSN(config.DBConfig{Host: "h", Port: 5432, User: "u", Name: "n", SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}
