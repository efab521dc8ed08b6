package erpauth

import (
	"errors"
	"testing"
	"time"
)

func TestChallengeStoreLifecycle(t *testing.T) {
	clock := newFakeClock()
	s := newChallengeStore(time.Minute, clock.Now)

	if _, err := s.Require("a@isp.example", challengeStandard, phasePasswordVerified); !errors.Is(err, errChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	s.Save(" A@ISP.example ", challengeStandard, phasePasswordVerified)
	if _, err := s.Require("a@isp.example", challengeStandard, phasePasswordVerified); err != nil {
		t.Fatalf("require: %v", err)
	}
	if _, err := s.Require("a@isp.example", challengeStandard, phaseOTPRequested); !errors.Is(err, errChallengePhase) {
		t.Fatalf("expected phase error, got %v", err)
	}
	if _, err := s.Require("a@isp.example", challengeReset, phasePasswordVerified); !errors.Is(err, errChallengeKind) {
		t.Fatalf("expected kind error, got %v", err)
	}

	clock.Advance(50 * time.Second)
	s.Advance("a@isp.example", phaseOTPRequested)
	clock.Advance(50 * time.Second)
	c, err := s.Require("a@isp.example", challengeStandard, phaseOTPRequested)
	if err != nil {
		t.Fatalf("advance should renew expiry: %v", err)
	}
	if c.kind.String() != "login" {
		t.Fatalf("unexpected kind %q", c.kind)
	}

	clock.Advance(2 * time.Minute)
	if _, err := s.Require("a@isp.example", challengeStandard, phaseOTPRequested); !errors.Is(err, errChallengeExpired) {
		t.Fatalf("expected expiry, got %v", err)
	}
	if _, err := s.Require("a@isp.example", challengeStandard, phaseOTPRequested); !errors.Is(err, errChallengeNotFound) {
		t.Fatalf("expired challenge should be gone, got %v", err)
	}
}

func TestChallengeStoreIsPerEmail(t *testing.T) {
	clock := newFakeClock()
	s := newChallengeStore(time.Minute, clock.Now)

	s.Save("a@isp.example", challengePasswordless, phaseOTPRequested)
	s.Save("b@isp.example", challengeRegistration, phaseCodeSent)
	s.Delete("a@isp.example")

	if _, err := s.Require("a@isp.example", challengePasswordless, phaseOTPRequested); !errors.Is(err, errChallengeNotFound) {
		t.Fatalf("expected deleted, got %v", err)
	}
	if _, err := s.Require("b@isp.example", challengeRegistration, phaseCodeSent); err != nil {
		t.Fatalf("other email affected: %v", err)
	}

	s.Reset()
	if _, err := s.Require("b@isp.example", challengeRegistration, phaseCodeSent); !errors.Is(err, errChallengeNotFound) {
		t.Fatalf("expected reset, got %v", err)
	}
}
