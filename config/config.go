// Package config builds the process configuration once at startup from the
// environment (optionally seeded by a .env file) and exposes it as an
// explicit struct that the rest of the application receives by reference.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// SessionBackend selects where session records live.
type SessionBackend string

const (
	// SessionBackendRedis keeps sessions in Redis (embedded miniredis when
	// no external address is configured), surviving in-flight requests and,
	// with an external server, process restarts.
	SessionBackendRedis SessionBackend = "redis"
	// SessionBackendCookie keeps the whole session payload in the client
	// cookie, signed and encrypted with the session secret.
	SessionBackendCookie SessionBackend = "cookie"
)

// Config carries every knob the portal reads from the environment.
type Config struct {
	Listen string
	Port   int

	DBFolder string

	SessionBackend SessionBackend
	SessionSecret  string
	SessionMaxAge  int // seconds
	RedisAddr      string

	RolesEnabled bool

	AdminEmail    string
	AdminPassword string

	Debug    bool
	LogLevel LogLevel
}

// Load reads the environment into a Config. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Listen:         os.Getenv("MEMBERHUB_LISTEN"),
		DBFolder:       envOr("MEMBERHUB_DB_FOLDER", "data"),
		SessionBackend: SessionBackend(envOr("MEMBERHUB_SESSION_BACKEND", string(SessionBackendRedis))),
		SessionSecret:  envOr("MEMBERHUB_SESSION_SECRET", "secret-key"),
		RedisAddr:      os.Getenv("MEMBERHUB_REDIS_ADDR"),
		AdminEmail:     envOr("MEMBERHUB_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:  os.Getenv("MEMBERHUB_ADMIN_PASSWORD"),
		Debug:          os.Getenv("MEMBERHUB_DEBUG") == "true",
	}

	var err error
	if cfg.Port, err = envInt("MEMBERHUB_PORT", envIntDefault("PORT", 3000)); err != nil {
		return nil, err
	}
	// One hour. The historical iterations disagreed on the TTL; this is the
	// one policy the portal enforces now.
	if cfg.SessionMaxAge, err = envInt("MEMBERHUB_SESSION_MAX_AGE", 3600); err != nil {
		return nil, err
	}

	switch cfg.SessionBackend {
	case SessionBackendRedis, SessionBackendCookie:
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}

	cfg.RolesEnabled = envOr("MEMBERHUB_ROLES_ENABLED", "true") == "true"

	if cfg.Debug {
		cfg.LogLevel = Debug
	} else {
		cfg.LogLevel = LogLevel(envOr("MEMBERHUB_LOG_LEVEL", string(Info)))
	}

	return cfg, nil
}

// DBPath returns the sqlite file path under the configured data folder.
func (c *Config) DBPath() string {
	return fmt.Sprintf("%s/%s.db", c.DBFolder, GetName())
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("MEMBERHUB_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "log"
	}
	return logFolderPath
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %q", key, v)
	}
	return n, nil
}

func envIntDefault(key string, fallback int) int {
	n, err := envInt(key, fallback)
	if err != nil {
		return fallback
	}
	return n
}
