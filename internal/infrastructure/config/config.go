package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Taskforge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Calendar  CalendarConfig  `yaml:"calendar"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// ServerTimeoutConfig contains HTTP timeout settings, in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT      JWTConfig      `yaml:"jwt"`
	Password PasswordConfig `yaml:"password"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
}

// JWTConfig contains JWT token settings. Access and refresh tokens are
// signed with distinct secrets so a leaked refresh secret cannot be used
// to forge access tokens, and vice versa.
type JWTConfig struct {
	AccessSecret  string `yaml:"access_secret"`
	RefreshSecret string `yaml:"refresh_secret"`

	// AccessTokenTTL is the access token lifetime in minutes.
	AccessTokenTTL int `yaml:"access_token_ttl"`

	// RefreshTokenTTL is the refresh token lifetime in hours.
	RefreshTokenTTL int `yaml:"refresh_token_ttl"`
}

// PasswordConfig contains password hashing settings.
type PasswordConfig struct {
	// BcryptCost is the bcrypt cost factor. Higher is slower and stronger.
	BcryptCost int `yaml:"bcrypt_cost"`
}

// CleanupConfig contains expired-session sweep settings.
type CleanupConfig struct {
	// Interval is how often the refresh-token sweep runs, in minutes.
	Interval int `yaml:"interval"`
}

// WebSocketConfig contains WebSocket event feed settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// CalendarConfig contains Google Calendar integration settings.
type CalendarConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	Timezone        string `yaml:"timezone"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TASKFORGE_SECTION_KEY
// For example: TASKFORGE_DATABASE_PATH, TASKFORGE_SERVER_PORT
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default TTLs and cost factors. Access tokens are deliberately short-lived;
// refresh tokens last a week and are revocable through the session store.
const (
	defaultAccessTokenTTL  = 15      // minutes
	defaultRefreshTokenTTL = 7 * 24  // hours
	defaultBcryptCost      = 10      //nolint:mnd // bcrypt.DefaultCost
	defaultCleanupInterval = 60      // minutes
)

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/taskforge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL:  defaultAccessTokenTTL,
				RefreshTokenTTL: defaultRefreshTokenTTL,
			},
			Password: PasswordConfig{
				BcryptCost: defaultBcryptCost,
			},
			Cleanup: CleanupConfig{
				Interval: defaultCleanupInterval,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Calendar: CalendarConfig{
			Enabled:  false,
			Timezone: "Europe/Paris",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TASKFORGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("TASKFORGE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TASKFORGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database
	if v := os.Getenv("TASKFORGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Security - JWT secrets (IMPORTANT: always override in production)
	if v := os.Getenv("TASKFORGE_JWT_ACCESS_SECRET"); v != "" {
		cfg.Security.JWT.AccessSecret = v
	}
	if v := os.Getenv("TASKFORGE_JWT_REFRESH_SECRET"); v != "" {
		cfg.Security.JWT.RefreshSecret = v
	}

	// Calendar
	if v := os.Getenv("TASKFORGE_CALENDAR_CREDENTIALS_FILE"); v != "" {
		cfg.Calendar.CredentialsFile = v
	}
	if v := os.Getenv("TASKFORGE_CALENDAR_ID"); v != "" {
		cfg.Calendar.CalendarID = v
	}
}

// minJWTSecretLength is the minimum accepted secret length. Shorter HMAC
// secrets make forged tokens practical to brute-force offline.
const minJWTSecretLength = 32

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// Security validation - JWT secrets are REQUIRED
	if c.Security.JWT.AccessSecret == "" {
		errs = append(errs, "security.jwt.access_secret is required (set TASKFORGE_JWT_ACCESS_SECRET environment variable)")
	} else if len(c.Security.JWT.AccessSecret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.access_secret must be at least 32 characters")
	}
	if c.Security.JWT.RefreshSecret == "" {
		errs = append(errs, "security.jwt.refresh_secret is required (set TASKFORGE_JWT_REFRESH_SECRET environment variable)")
	} else if len(c.Security.JWT.RefreshSecret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.refresh_secret must be at least 32 characters")
	}
	if c.Security.JWT.AccessSecret != "" && c.Security.JWT.AccessSecret == c.Security.JWT.RefreshSecret {
		errs = append(errs, "security.jwt.access_secret and refresh_secret must differ")
	}

	if c.Security.Password.BcryptCost < 4 || c.Security.Password.BcryptCost > 31 {
		errs = append(errs, "security.password.bcrypt_cost must be between 4 and 31")
	}

	if c.Security.Cleanup.Interval < 1 {
		errs = append(errs, "security.cleanup.interval must be at least 1 minute")
	}

	// Calendar validation - only when the integration is enabled
	if c.Calendar.Enabled {
		if c.Calendar.CredentialsFile == "" {
			errs = append(errs, "calendar.credentials_file is required when calendar.enabled is true")
		}
		if c.Calendar.CalendarID == "" {
			errs = append(errs, "calendar.calendar_id is required when calendar.enabled is true")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// AccessTokenTTL returns the access token lifetime as a Duration.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a Duration.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.RefreshTokenTTL) * time.Hour
}

// CleanupInterval returns the sweep interval as a Duration.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Security.Cleanup.Interval) * time.Minute
}
