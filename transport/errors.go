package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP indicates a rejected or expired one-time code.
	ErrInvalidOTP = errors.New("invalid or expired verification code")
	// ErrInvalidLink indicates a rejected or expired magic link.
	ErrInvalidLink = errors.New("invalid or expired sign-in link")
	// ErrSessionExpired indicates the bearer token is no longer accepted.
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden indicates an authenticated request lacking permission.
	ErrForbidden = errors.New("forbidden")
	// ErrAccountInactive indicates the account exists but is not active yet.
	ErrAccountInactive = errors.New("account inactive")
	// ErrValidation indicates the backend rejected the request payload.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the resource already exists.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates a missing endpoint or resource.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited indicates server-side throttling.
	ErrRateLimited = errors.New("rate limited by server")
	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")
	// ErrUnexpectedStatus covers any other non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrNetwork indicates the request never produced a response.
	ErrNetwork = errors.New("network unavailable")
	// ErrDecode indicates a 2xx response with an unreadable body.
	ErrDecode = errors.New("malformed response")
)

// APIError is a classified non-2xx response.
type APIError struct {
	Op        string
	Status    int
	Detail    string
	RequestID string
	Err       error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v (HTTP %d)", e.Op, e.Err, e.Status)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Detail, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// DetailOf returns the backend message carried by err, or "".
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsAuthExpiry reports whether err means the bearer token is dead: any 401,
// or any ErrSessionExpired.
func IsAuthExpiry(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized || errors.Is(err, ErrSessionExpired)
}

type credKind uint8

const (
	credNone credKind = iota
	credPassword
	credOTP
	credLink
)

func (k credKind) rejected() error {
	switch k {
	case credPassword:
		return ErrInvalidCredentials
	case credOTP:
		return ErrInvalidOTP
	case credLink:
		return ErrInvalidLink
	default:
		return ErrSessionExpired
	}
}

var inactivePhrases = []string{"inactive", "not active", "pending approval", "awaiting approval", "not approved"}

var expiryPhrases = []string{"session expired", "token expired", "expired token", "unauthorized", "not authenticated", "could not validate credentials"}

func classify(kind credKind, status int, detail string) error {
	lower := strings.ToLower(detail)

	if status >= 400 && status < 500 && containsAny(lower, inactivePhrases) {
		return ErrAccountInactive
	}

	switch {
	case status == http.StatusUnauthorized:
		return kind.rejected()
	case status == http.StatusForbidden:
		return ErrForbidden
	case kind == credNone && containsAny(lower, expiryPhrases):
		return ErrSessionExpired
	case kind != credNone && status == http.StatusBadRequest:
		return kind.rejected()
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	default:
		return ErrUnexpectedStatus
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
