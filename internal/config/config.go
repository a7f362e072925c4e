// Package config provides configuration management for the Boostify editor agent.
// Configuration is loaded from environment variables (optionally seeded from a .env
// file) with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".boostify"

	// Environment variable names
	EnvPort     = "BOOSTIFY_PORT"
	EnvLogLevel = "BOOSTIFY_LOG_LEVEL"
	EnvDataDir  = "BOOSTIFY_DATA_DIR"
	EnvFile     = "BOOSTIFY_ENV_FILE"

	// Render service environment variable names
	EnvRenderURL     = "BOOSTIFY_RENDER_URL"
	EnvRenderToken   = "BOOSTIFY_RENDER_TOKEN"
	EnvRenderTimeout = "BOOSTIFY_RENDER_TIMEOUT"
	EnvRenderRate    = "BOOSTIFY_RENDER_RATE"
	EnvPollInterval  = "BOOSTIFY_POLL_INTERVAL"
	EnvPollMaxWait   = "BOOSTIFY_POLL_MAX_WAIT"

	EnvAllowedOrigins = "BOOSTIFY_ALLOWED_ORIGINS"

	// Database filename
	DBFilename = "editor.db"

	// Render defaults
	DefaultRenderTimeout = 60 * time.Second
	DefaultRenderRate    = 2.0 // requests per second
	DefaultPollInterval  = 5 * time.Second
	DefaultPollMaxWait   = 10 * time.Minute
)

// DefaultAllowedOrigins are the browser origins the editor UI is served from in development.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	RenderURL() string
	RenderToken() string
	RenderTimeout() time.Duration
	RenderRate() float64
	PollInterval() time.Duration
	PollMaxWait() time.Duration
	AllowedOrigins() []string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	renderURL     string
	renderToken   string
	renderTimeout time.Duration
	renderRate    float64
	pollInterval  time.Duration
	pollMaxWait   time.Duration

	allowedOrigins []string
}

// New creates a new EnvConfig with defaults and environment variable overrides.
// A .env file in the working directory (or the file named by BOOSTIFY_ENV_FILE)
// is loaded first; variables already set in the environment win.
func New() (*EnvConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		renderTimeout:  DefaultRenderTimeout,
		renderRate:     DefaultRenderRate,
		pollInterval:   DefaultPollInterval,
		pollMaxWait:    DefaultPollMaxWait,
		allowedOrigins: DefaultAllowedOrigins,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.renderURL = strings.TrimRight(os.Getenv(EnvRenderURL), "/")
	cfg.renderToken = os.Getenv(EnvRenderToken)

	var err error
	if cfg.renderTimeout, err = durationEnv(EnvRenderTimeout, cfg.renderTimeout); err != nil {
		return nil, err
	}
	if cfg.pollInterval, err = durationEnv(EnvPollInterval, cfg.pollInterval); err != nil {
		return nil, err
	}
	if cfg.pollMaxWait, err = durationEnv(EnvPollMaxWait, cfg.pollMaxWait); err != nil {
		return nil, err
	}
	if cfg.pollMaxWait < cfg.pollInterval {
		return nil, fmt.Errorf("invalid %s: must not be shorter than %s", EnvPollMaxWait, EnvPollInterval)
	}

	if r := os.Getenv(EnvRenderRate); r != "" {
		rate, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRenderRate, err)
		}
		if rate <= 0 {
			return nil, fmt.Errorf("invalid %s: rate must be positive", EnvRenderRate)
		}
		cfg.renderRate = rate
	}

	if ao := os.Getenv(EnvAllowedOrigins); ao != "" {
		cfg.allowedOrigins = splitList(ao)
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// RenderURL returns the base URL of the external render service, or "" when unset.
func (c *EnvConfig) RenderURL() string {
	return c.renderURL
}

func (c *EnvConfig) RenderToken() string {
	return c.renderToken
}

func (c *EnvConfig) RenderTimeout() time.Duration {
	return c.renderTimeout
}

// RenderRate returns the maximum number of render service calls per second.
func (c *EnvConfig) RenderRate() float64 {
	return c.renderRate
}

func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

func (c *EnvConfig) PollMaxWait() time.Duration {
	return c.pollMaxWait
}

func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

func loadEnvFile() error {
	path := os.Getenv(EnvFile)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	// A missing default .env is normal; a missing explicit one is not.
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: duration must be positive", name)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}
