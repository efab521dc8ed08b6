package erpauth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	internalaudit "github.com/ispops/erpauth/internal/audit"
	"github.com/ispops/erpauth/storage"
	"github.com/ispops/erpauth/token"
	"github.com/ispops/erpauth/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrBuilderUsed is returned by a second call to Build.
var ErrBuilderUsed = errors.New("builder already used")

// Builder assembles an Engine. Configure it once, call Build once.
type Builder struct {
	config Config

	durable  storage.Backend
	volatile storage.Backend
	redis    redis.UniversalClient

	httpClient *http.Client
	auditSinks []AuditSink
	logger     *zap.Logger
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend base URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.HTTP.BaseURL = baseURL
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithStorage overrides the token backends. Either may be nil to keep the
// configured default.
func (b *Builder) WithStorage(durable, volatile storage.Backend) *Builder {
	b.durable = durable
	b.volatile = volatile
	return b
}

// WithRedis uses client for durable state instead of dialing
// Storage.RedisAddr. It implies the redis backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	b.config.Storage.Backend = StorageRedis
	return b
}

// WithHTTPClient sets the client used for backend calls.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithAuditSink adds sinks and enables auditing.
func (b *Builder) WithAuditSink(sinks ...AuditSink) *Builder {
	b.auditSinks = append(b.auditSinks, sinks...)
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles request latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock replaces the time source for the limiters, challenges, session
// timestamps and the expiry monitor.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	check := cfg
	if b.redis != nil || b.durable != nil {
		// An injected backend needs no connection settings.
		check.Storage = StorageConfig{Backend: StorageMemory}
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	durable, err := b.durableBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}
	volatile := b.volatile
	if volatile == nil {
		volatile = storage.NewMemory(0)
	}

	client, err := transport.New(transport.Config{
		BaseURL:   cfg.HTTP.BaseURL,
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Endpoints: cfg.Endpoints,
	}, b.httpClient)
	if err != nil {
		return nil, fmt.Errorf("build client: %w", err)
	}

	engine := &Engine{
		config:     cfg,
		client:     client,
		tokens:     token.NewStore(durable, volatile),
		challenges: newChallengeStore(cfg.Login.ChallengeTTL, now),
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger.Named("erpauth"),
		now:        now,
	}

	engine.passwordLimiter = newLoginLimiter("password", durable, cfg.RateLimit, engine.logger)
	engine.otpLimiter = newLoginLimiter("otp", durable, cfg.OTPRateLimit, engine.logger)
	if b.now != nil {
		engine.passwordLimiter.SetClock(now)
		engine.otpLimiter.SetClock(now)
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSinks...)

	b.built = true
	return engine, nil
}

func (b *Builder) durableBackend(cfg StorageConfig) (storage.Backend, error) {
	if b.durable != nil {
		return b.durable, nil
	}

	switch cfg.Backend {
	case StorageFile:
		if cfg.Path == "" {
			return storage.NewUserFile(".erpauth")
		}
		return storage.NewFile(cfg.Path)
	case StorageRedis:
		client := b.redis
		if client == nil {
			client = redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
		}
		return storage.NewRedis(client, cfg.RedisPrefix), nil
	default:
		return storage.NewMemory(0), nil
	}
}
