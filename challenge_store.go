package erpauth

import (
	"errors"
	"strings"
	"sync"
	"time"
)

type challengeKind uint8

const (
	challengeStandard challengeKind = iota + 1
	challengePasswordless
	challengeRegistration
	challengeReset
)

func (k challengeKind) String() string {
	switch k {
	case challengeStandard:
		return "login"
	case challengePasswordless:
		return "passwordless"
	case challengeRegistration:
		return "registration"
	case challengeReset:
		return "password reset"
	default:
		return "unknown"
	}
}

type challengePhase uint8

const (
	phasePasswordVerified challengePhase = iota + 1
	phaseOTPRequested
	phaseCodeSent
)

var (
	errChallengeNotFound = errors.New("no challenge in progress")
	errChallengeExpired  = errors.New("challenge expired")
	errChallengeKind     = errors.New("challenge belongs to another protocol")
	errChallengePhase    = errors.New("challenge step not reached")
)

type challenge struct {
	kind      challengeKind
	phase     challengePhase
	expiresAt time.Time
}

// challengeStore records how far each email got through a protocol. One
// email holds at most one challenge; starting a protocol replaces it.
type challengeStore struct {
	mu      sync.Mutex
	entries map[string]challenge
	ttl     time.Duration
	now     func() time.Time
}

func newChallengeStore(ttl time.Duration, now func() time.Time) *challengeStore {
	return &challengeStore{
		entries: make(map[string]challenge),
		ttl:     ttl,
		now:     now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *challengeStore) Save(email string, kind challengeKind, phase challengePhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[normalizeEmail(email)] = challenge{
		kind:      kind,
		phase:     phase,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Require returns the live challenge for email if it has the given kind and
// one of the accepted phases.
func (s *challengeStore) Require(email string, kind challengeKind, phases ...challengePhase) (challenge, error) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[key]
	if !ok {
		return challenge{}, errChallengeNotFound
	}
	if s.now().After(c.expiresAt) {
		delete(s.entries, key)
		return challenge{}, errChallengeExpired
	}
	if c.kind != kind {
		return challenge{}, errChallengeKind
	}
	for _, p := range phases {
		if c.phase == p {
			return c, nil
		}
	}
	return challenge{}, errChallengePhase
}

// Advance moves an existing challenge to phase and renews its expiry.
func (s *challengeStore) Advance(email string, phase challengePhase) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[key]
	if !ok {
		return
	}
	c.phase = phase
	c.expiresAt = s.now().Add(s.ttl)
	s.entries[key] = c
}

func (s *challengeStore) Delete(email string) {
	s.mu.Lock()
	delete(s.entries, normalizeEmail(email))
	s.mu.Unlock()
}

func (s *challengeStore) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]challenge)
	s.mu.Unlock()
}
