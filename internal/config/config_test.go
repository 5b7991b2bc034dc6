package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_DSN", "TOKEN_TTL", "MIGRATIONS", "APP_ENV"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.App.Migrations)
	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, "host=localhost port=5432 user=mycoll password=mycoll dbname=mycoll sslmode=disable", cfg.Database.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("AUTH_CACHE_TTL", "not-a-duration")
	t.Setenv("MIGRATIONS", "yes")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, "/tmp/x.db", cfg.Database.DSN())
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.CacheTTL)
	assert.True(t, cfg.App.Migrations)
}

func TestDatabaseURLAndRedaction(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p@ss", DBName: "shop", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5433/shop?sslmode=disable", d.URL())
	assert.Equal(t, "postgres://u@db:5433/shop", d.Redacted())

	d.RawDSN = "postgres://u:secret@db/shop"
	assert.Equal(t, d.RawDSN, d.DSN())
	assert.NotContains(t, d.Redacted(), "secret")
}
