package erpauth

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ispops/erpauth/transport"
	"gopkg.in/yaml.v3"
)

// Config holds every Engine setting. Durations are written as strings in
// YAML ("15m").
type Config struct {
	Endpoints    transport.Endpoints `yaml:"endpoints"`
	HTTP         HTTPConfig          `yaml:"http"`
	Login        LoginConfig         `yaml:"login"`
	RateLimit    RateLimitConfig     `yaml:"rate_limit"`
	OTPRateLimit RateLimitConfig     `yaml:"otp_rate_limit"`
	Storage      StorageConfig       `yaml:"storage"`
	Session      SessionConfig       `yaml:"session"`
	Monitor      MonitorConfig       `yaml:"monitor"`
	Logout       LogoutConfig        `yaml:"logout"`
	Audit        AuditConfig         `yaml:"audit"`
	Metrics      MetricsConfig       `yaml:"metrics"`
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig configures the backend client.
type HTTPConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig controls the authentication protocols.
type LoginConfig struct {
	// AllowSingleFactor accepts a token issued by the password stage.
	// Otherwise such a token is ignored and the OTP stage is still required.
	AllowSingleFactor bool `yaml:"allow_single_factor"`
	// RememberByDefault applies to flows without an explicit remember-me
	// choice (passwordless, magic link, registration).
	RememberByDefault bool `yaml:"remember_by_default"`
	// ChallengeTTL bounds how long a started protocol may wait for its
	// next step.
	ChallengeTTL time.Duration `yaml:"challenge_ttl"`
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig configures one local lockout limiter.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Key             string        `yaml:"key"`
	MaxAttempts     int           `yaml:"max_attempts"`
	LockoutDuration time.Duration `yaml:"lockout_duration"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageBackend names a durable storage implementation.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
)

// StorageConfig selects the durable backend used for remembered tokens and
// limiter state. The volatile backend is always in-memory.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"`
	// Path is the state file for StorageFile. Empty means
	// ~/.erpauth/state.json.
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the in-memory session.
type SessionConfig struct {
	// PermissionCacheSize bounds memoised decisions per session; 0 disables.
	PermissionCacheSize int `yaml:"permission_cache_size"`
	// ExpiringSoon is the TokenInfo threshold.
	ExpiringSoon time.Duration `yaml:"expiring_soon"`
}

/*
====================================
MONITOR CONFIG
====================================
*/

// MonitorConfig holds defaults for Engine.Monitor.
type MonitorConfig struct {
	Interval      time.Duration `yaml:"interval"`
	WarnBefore    time.Duration `yaml:"warn_before"`
	RefreshBefore time.Duration `yaml:"refresh_before"`
}

/*
====================================
LOGOUT CONFIG
====================================
*/

// LogoutConfig controls backend notification on logout.
type LogoutConfig struct {
	NotifyBackend bool          `yaml:"notify_backend"`
	Timeout       time.Duration `yaml:"timeout"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls audit dispatching.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the production defaults. BaseURL must still be set.
func DefaultConfig() Config {
	return Config{
		Endpoints: transport.DefaultEndpoints(),
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "erpauth",
		},
		Login: LoginConfig{
			AllowSingleFactor: false,
			RememberByDefault: false,
			ChallengeTTL:      10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Key:             "auth_rate_limit",
			MaxAttempts:     5,
			LockoutDuration: 15 * time.Minute,
		},
		OTPRateLimit: RateLimitConfig{
			Enabled:         true,
			Key:             "auth_otp_rate_limit",
			MaxAttempts:     5,
			LockoutDuration: 15 * time.Minute,
		},
		Storage: StorageConfig{
			Backend:     StorageMemory,
			RedisPrefix: "erpauth",
		},
		Session: SessionConfig{
			PermissionCacheSize: 512,
			ExpiringSoon:        5 * time.Minute,
		},
		Monitor: MonitorConfig{
			Interval:      30 * time.Second,
			WarnBefore:    5 * time.Minute,
			RefreshBefore: time.Minute,
		},
		Logout: LogoutConfig{
			NotifyBackend: true,
			Timeout:       5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.BaseURL) == "" {
		return errors.New("HTTP BaseURL is required")
	}
	u, err := url.Parse(c.HTTP.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("HTTP BaseURL must be an absolute http(s) URL")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP Timeout must be > 0")
	}

	if c.Login.ChallengeTTL <= 0 {
		return errors.New("Login ChallengeTTL must be > 0")
	}

	if err := c.RateLimit.validate("RateLimit"); err != nil {
		return err
	}
	if err := c.OTPRateLimit.validate("OTPRateLimit"); err != nil {
		return err
	}
	if c.RateLimit.Enabled && c.OTPRateLimit.Enabled && c.RateLimit.Key == c.OTPRateLimit.Key {
		return errors.New("RateLimit and OTPRateLimit must use distinct keys")
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			return errors.New("Storage RedisAddr is required for the redis backend")
		}
		if c.Storage.RedisDB < 0 {
			return errors.New("Storage RedisDB must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported Storage Backend %q", c.Storage.Backend)
	}

	if c.Session.PermissionCacheSize < 0 {
		return errors.New("Session PermissionCacheSize must be >= 0")
	}
	if c.Session.ExpiringSoon <= 0 {
		return errors.New("Session ExpiringSoon must be > 0")
	}

	if c.Monitor.Interval <= 0 {
		return errors.New("Monitor Interval must be > 0")
	}
	if c.Monitor.WarnBefore < 0 || c.Monitor.RefreshBefore < 0 {
		return errors.New("Monitor thresholds must be >= 0")
	}
	if c.Monitor.RefreshBefore > c.Monitor.WarnBefore {
		return errors.New("Monitor RefreshBefore must not exceed WarnBefore")
	}

	if c.Logout.NotifyBackend && c.Logout.Timeout <= 0 {
		return errors.New("Logout Timeout must be > 0 when NotifyBackend is true")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (r RateLimitConfig) validate(section string) error {
	if !r.Enabled {
		return nil
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("%s Key is required", section)
	}
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("%s MaxAttempts must be > 0", section)
	}
	if r.LockoutDuration <= 0 {
		return fmt.Errorf("%s LockoutDuration must be > 0", section)
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML file through ParseConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}
