package erpauth

import (
	"net"
	"net/url"
	"strings"
	"time"
)

// LintWarning is a configuration choice that is valid but risky.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult lists warnings in a stable order.
type LintResult []LintWarning

// Codes returns the warning codes.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// Lint reports risky settings that Validate accepts. It never fails.
func (c Config) Lint() LintResult {
	var out LintResult
	warn := func(code, msg string) {
		out = append(out, LintWarning{Code: code, Message: msg})
	}

	if u, err := url.Parse(c.HTTP.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		warn("insecure_base_url", "backend URL is plain http; tokens and passwords travel unencrypted")
	}
	if c.Login.AllowSingleFactor {
		warn("single_factor_allowed", "a password alone can establish a session")
	}
	if !c.RateLimit.Enabled && !c.OTPRateLimit.Enabled {
		warn("rate_limits_disabled", "no local lockout on password or code attempts")
	} else if !c.OTPRateLimit.Enabled {
		warn("otp_rate_limit_disabled", "no local lockout on one-time code attempts")
	}
	if c.RateLimit.Enabled && c.RateLimit.LockoutDuration < time.Minute {
		warn("lockout_short", "password lockout lasts under a minute")
	}
	if c.Login.RememberByDefault && c.Storage.Backend != StorageMemory {
		warn("remember_by_default", "tokens from passwordless, magic-link and registration sign-ins are persisted")
	}
	if c.Login.ChallengeTTL > 30*time.Minute {
		warn("challenge_ttl_long", "a started sign-in stays resumable for over 30 minutes")
	}
	if !c.Logout.NotifyBackend {
		warn("logout_not_notified", "logout leaves the token valid on the backend until it expires")
	}
	if !c.Audit.Enabled {
		warn("audit_disabled", "authentication events are not audited")
	}
	return out
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
