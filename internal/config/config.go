// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the store and holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	RawDSN     string // DATABASE_DSN overrides the discrete fields
	SQLitePath string
	Debug      bool
}

// AuthConfig holds token signing and seeding settings.
type AuthConfig struct {
	Secret        string
	TokenTTL      time.Duration
	CacheTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env        string
	Migrations bool
	UploadDir  string
}

// IsSQLite reports whether the sqlite driver is selected.
func (d DatabaseConfig) IsSQLite() bool { return d.Driver == "sqlite" }

// DSN returns the connection string handed to GORM.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.SQLitePath
	}
	if d.RawDSN != "" {
		return d.RawDSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format, as golang-migrate expects.
func (d DatabaseConfig) URL() string {
	if d.RawDSN != "" {
		return d.RawDSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Redacted describes the target database without credentials, for logs.
func (d DatabaseConfig) Redacted() string {
	if d.IsSQLite() {
		return "sqlite:" + d.SQLitePath
	}
	if d.RawDSN != "" {
		if u, err := url.Parse(d.RawDSN); err == nil && u.User != nil {
			u.User = url.User(u.User.Username())
			return u.String()
		}
		return "postgres:(dsn)"
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s", d.User, d.Host, d.Port, d.DBName)
}

// IsDev reports whether the app runs in development mode.
func (a AppConfig) IsDev() bool { return a.Env == "development" }

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "mycoll"),
			Password:   getEnv("DB_PASSWORD", "mycoll"),
			DBName:     getEnv("DB_NAME", "mycoll"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			RawDSN:     os.Getenv("DATABASE_DSN"),
			SQLitePath: getEnv("SQLITE_PATH", "mycoll.db"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		Auth: AuthConfig{
			Secret:        getEnv("SESSION_SECRET", "devsessionsecret"),
			TokenTTL:      getEnvDuration("TOKEN_TTL", 24*time.Hour),
			CacheTTL:      getEnvDuration("AUTH_CACHE_TTL", 5*time.Minute),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@mycoll.local"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		App: AppConfig{
			Env:        getEnv("APP_ENV", "development"),
			Migrations: getEnvBool("MIGRATIONS", false),
			UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
