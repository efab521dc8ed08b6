package erpauth

import (
	"strings"
	"time"
)

// SecurityReport summarises the protections an Engine runs with.
type SecurityReport struct {
	BaseURL             string
	TLS                 bool
	StorageBackend      StorageBackend
	SingleFactorAllowed bool
	RememberByDefault   bool
	ChallengeTTL        time.Duration
	PasswordLockout     LockoutReport
	OTPLockout          LockoutReport
	NotifyBackendLogout bool
	AuditEnabled        bool
	MetricsEnabled      bool
	Warnings            []string
}

// LockoutReport describes one local limiter.
type LockoutReport struct {
	Enabled     bool
	MaxAttempts int
	Duration    time.Duration
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	cfg := e.config
	return SecurityReport{
		BaseURL:             cfg.HTTP.BaseURL,
		TLS:                 strings.HasPrefix(cfg.HTTP.BaseURL, "https://"),
		StorageBackend:      cfg.Storage.Backend,
		SingleFactorAllowed: cfg.Login.AllowSingleFactor,
		RememberByDefault:   cfg.Login.RememberByDefault,
		ChallengeTTL:        cfg.Login.ChallengeTTL,
		PasswordLockout:     lockoutReport(cfg.RateLimit),
		OTPLockout:          lockoutReport(cfg.OTPRateLimit),
		NotifyBackendLogout: cfg.Logout.NotifyBackend,
		AuditEnabled:        cfg.Audit.Enabled,
		MetricsEnabled:      cfg.Metrics.Enabled,
		Warnings:            cfg.Lint().Codes(),
	}
}

func lockoutReport(r RateLimitConfig) LockoutReport {
	if !r.Enabled {
		return LockoutReport{}
	}
	return LockoutReport{Enabled: true, MaxAttempts: r.MaxAttempts, Duration: r.LockoutDuration}
}
