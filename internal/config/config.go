// Package config loads the server runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/surveyor-app/surveyor/internal/utils"
)

const minSecretLen = 16

var ErrMissingSecret = errors.New("SURVEYOR_JWT_SECRET is required")

type Config struct {
	Addr          string
	LogLevel      string
	JWTSecret     []byte
	TokenTTL      time.Duration
	DBPath        string
	MigrationsDir string
	StaticDir     string
	CORSOrigin    string
	Metrics       bool
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	Commit        string
	BuildTime     string
}

// Load reads an optional dotenv file, then the process environment. Values
// already present in the environment win over the file.
func Load() (Config, error) {
	envFile := utils.SafeEnv("SURVEYOR_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the current environment.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          utils.SafeEnv("SURVEYOR_ADDR", ":5000"),
		LogLevel:      utils.SafeEnv("SURVEYOR_LOG_LEVEL", "info"),
		JWTSecret:     []byte(utils.SafeEnv("SURVEYOR_JWT_SECRET", "")),
		DBPath:        utils.SafeEnv("SURVEYOR_DB_PATH", ""),
		MigrationsDir: utils.SafeEnv("SURVEYOR_MIGRATIONS_DIR", ""),
		StaticDir:     utils.SafeEnv("SURVEYOR_STATIC_DIR", ""),
		CORSOrigin:    utils.SafeEnv("SURVEYOR_CORS_ORIGIN", "*"),
		Metrics:       utils.EnvBool("SURVEYOR_METRICS_ENABLED", true),
		Commit:        utils.SafeEnv("SURVEYOR_COMMIT", ""),
		BuildTime:     utils.SafeEnv("SURVEYOR_BUILD_TIME", ""),
	}
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"SURVEYOR_TOKEN_TTL", 168 * time.Hour, &cfg.TokenTTL},
		{"SURVEYOR_HTTP_READ_TIMEOUT", 15 * time.Second, &cfg.ReadTimeout},
		{"SURVEYOR_HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.WriteTimeout},
		{"SURVEYOR_HTTP_IDLE_TIMEOUT", 60 * time.Second, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		v, err := utils.EnvDuration(d.key, d.def)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return ErrMissingSecret
	}
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("SURVEYOR_JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if c.Addr == "" {
		return errors.New("SURVEYOR_ADDR must not be empty")
	}
	return nil
}

// UsesSQLite reports whether a database file was configured.
func (c Config) UsesSQLite() bool { return c.DBPath != "" }
