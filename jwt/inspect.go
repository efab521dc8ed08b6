package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiringSoon is the threshold used by [Describe] when none is given.
const DefaultExpiringSoon = 5 * time.Minute

var (
	// ErrMalformed is returned for tokens that cannot be decoded.
	ErrMalformed = errors.New("malformed access token")
	// ErrNoExpiry is returned for tokens without an exp claim.
	ErrNoExpiry = errors.New("access token has no expiry")
)

// AccessClaims are the claims the backend puts in its access tokens.
type AccessClaims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes tok without checking its signature.
func ParseUnverified(tok string) (*AccessClaims, error) {
	if tok == "" {
		return nil, ErrMalformed
	}

	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim.
func ExpiresAt(tok string) (time.Time, error) {
	claims, err := ParseUnverified(tok)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Info summarises a token's lifetime at a given instant.
type Info struct {
	Valid        bool
	Subject      string
	ExpiresAt    time.Time // zero when unknown
	ExpiresIn    time.Duration
	ExpiringSoon bool
}

// Describe reports tok's lifetime relative to now. Undecodable tokens and
// tokens without exp are reported as invalid.
//
// ExpiresIn is truncated to whole seconds; ExpiringSoon holds when
// 0 < ExpiresIn <= threshold.
func Describe(tok string, now time.Time, threshold time.Duration) Info {
	if threshold <= 0 {
		threshold = DefaultExpiringSoon
	}

	claims, err := ParseUnverified(tok)
	if err != nil || claims.ExpiresAt == nil {
		return Info{}
	}

	info := Info{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	exp := claims.ExpiresAt.Unix()
	nowSec := now.Unix()
	info.Valid = exp >= nowSec
	if exp > nowSec {
		info.ExpiresIn = time.Duration(exp-nowSec) * time.Second
	}
	info.ExpiringSoon = info.ExpiresIn > 0 && info.ExpiresIn <= threshold
	return info
}
