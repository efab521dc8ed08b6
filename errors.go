package erpauth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ispops/erpauth/password"
	"github.com/ispops/erpauth/transport"
)

var (
	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = transport.ErrInvalidCredentials
	// ErrInvalidOTP indicates a rejected or expired one-time code.
	ErrInvalidOTP = transport.ErrInvalidOTP
	// ErrInvalidLink indicates a rejected or expired magic link.
	ErrInvalidLink = transport.ErrInvalidLink
	// ErrSessionExpired indicates the bearer token is no longer accepted.
	ErrSessionExpired = transport.ErrSessionExpired
	// ErrUnauthorized is an alias of ErrSessionExpired.
	ErrUnauthorized = transport.ErrSessionExpired
	// ErrForbidden indicates an authenticated request lacking permission.
	ErrForbidden = transport.ErrForbidden
	// ErrAccountInactive indicates an account awaiting activation or approval.
	ErrAccountInactive = transport.ErrAccountInactive
	// ErrValidation indicates a rejected payload.
	ErrValidation = transport.ErrValidation
	// ErrConflict indicates the account already exists.
	ErrConflict = transport.ErrConflict
	// ErrNotFound indicates a missing endpoint or resource.
	ErrNotFound = transport.ErrNotFound
	// ErrRateLimited indicates server-side throttling (HTTP 429).
	ErrRateLimited = transport.ErrRateLimited
	// ErrServer indicates a 5xx response.
	ErrServer = transport.ErrServer
	// ErrNetwork indicates the backend could not be reached.
	ErrNetwork = transport.ErrNetwork
	// ErrDecode indicates a 2xx response with an unreadable body.
	ErrDecode = transport.ErrDecode

	// ErrPasswordMismatch indicates the confirmation does not match.
	ErrPasswordMismatch = password.ErrMismatch
	// ErrPasswordPolicy indicates the new password fails the local policy.
	ErrPasswordPolicy = password.ErrPolicy
)

var (
	// ErrLockedOut indicates the local limiter refused the attempt.
	ErrLockedOut = errors.New("too many failed attempts")
	// ErrInvalidState indicates a protocol step was invoked out of order.
	ErrInvalidState = errors.New("invalid authentication state")
	// ErrNotAuthenticated indicates the operation needs a token or session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEngineNotReady indicates a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockoutError is returned while a limiter refuses attempts. Cause is the
// failure that triggered the lockout, if this call triggered it.
type LockoutError struct {
	Stage     string
	Remaining time.Duration
	Cause     error
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s: %v, try again in %d minute(s)", e.Stage, ErrLockedOut, e.RemainingMinutes())
}

// Unwrap exposes ErrLockedOut and the cause.
func (e *LockoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrLockedOut}
	}
	return []error{ErrLockedOut, e.Cause}
}

// RemainingMinutes is Remaining rounded up to whole minutes.
func (e *LockoutError) RemainingMinutes() int {
	if e.Remaining <= 0 {
		return 0
	}
	return int(math.Ceil(e.Remaining.Minutes()))
}

// AttemptError decorates a rejected credential with the attempts left
// before lockout.
type AttemptError struct {
	Remaining int
	Err       error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%v (%d attempt(s) remaining)", e.Err, e.Remaining)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	return transport.StatusOf(err)
}

// DetailOf returns the backend's message carried by err, or "".
func DetailOf(err error) string {
	return transport.DetailOf(err)
}
