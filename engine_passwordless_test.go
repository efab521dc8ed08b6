package erpauth

import (
	"context"
	"errors"
	"testing"

	"github.com/ispops/erpauth/internal/erptest"
)

func TestPasswordlessLogin(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator("customer:read")
	ctx := context.Background()

	if _, err := te.VerifyPasswordlessOTP(ctx, opsEmail, erptest.DefaultOTP); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("verify before request: expected ErrInvalidState, got %v", err)
	}

	if err := te.RequestPasswordlessLogin(ctx, opsEmail); err != nil {
		t.Fatalf("request passwordless: %v", err)
	}
	if _, err := te.VerifyPasswordlessOTP(ctx, opsEmail, "999999"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	s, err := te.VerifyPasswordlessOTP(ctx, opsEmail, erptest.DefaultOTP)
	if err != nil {
		t.Fatalf("verify passwordless: %v", err)
	}
	if s.User.Email != opsEmail || !te.HasPermission("customer:read:all") {
		t.Fatalf("unexpected session %+v", s.User)
	}
	if te.TokenInfo().Remembered {
		t.Fatal("passwordless login should not remember by default")
	}
}

func TestPasswordlessRememberByDefault(t *testing.T) {
	te := newTestEngine(t, func(c *Config) { c.Login.RememberByDefault = true })
	te.addOperator()
	ctx := context.Background()

	if err := te.RequestPasswordlessLogin(ctx, opsEmail); err != nil {
		t.Fatalf("request passwordless: %v", err)
	}
	if _, err := te.VerifyPasswordlessOTP(ctx, opsEmail, erptest.DefaultOTP); err != nil {
		t.Fatalf("verify passwordless: %v", err)
	}
	if !te.TokenInfo().Remembered {
		t.Fatal("expected remembered token")
	}
}

func TestPasswordlessChallengeIsNotStandardLogin(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	ctx := context.Background()

	if err := te.RequestPasswordlessLogin(ctx, opsEmail); err != nil {
		t.Fatalf("request passwordless: %v", err)
	}
	if _, err := te.VerifyOTP(ctx, opsEmail, erptest.DefaultOTP, false); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestMagicLink(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	ctx := context.Background()

	link := te.backend.MagicLink(opsEmail)
	if _, err := te.VerifyMagicLink(ctx, link); err != nil {
		t.Fatalf("verify magic link: %v", err)
	}
	if !te.IsAuthenticated() {
		t.Fatal("expected session after magic link")
	}

	if err := te.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := te.VerifyMagicLink(ctx, link); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("reused link: expected ErrInvalidLink, got %v", err)
	}
	if _, err := te.VerifyMagicLink(ctx, "  "); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("empty link: expected ErrInvalidLink, got %v", err)
	}

	snap := te.MetricsSnapshot()
	if snap.Counters[MetricMagicLinkSuccess] != 1 || snap.Counters[MetricMagicLinkFailure] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestRegistration(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	const email = "new.tech@isp.example"

	if err := te.RequestRegistrationOTP(ctx, email, "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing name: expected ErrValidation, got %v", err)
	}
	if err := te.RequestRegistrationOTP(ctx, email, "New Tech", "+15550100"); err != nil {
		t.Fatalf("request registration: %v", err)
	}
	// Resend.
	if err := te.RequestRegistrationOTP(ctx, email, "New Tech", "+15550100"); err != nil {
		t.Fatalf("resend registration: %v", err)
	}

	s, err := te.VerifyRegistrationOTP(ctx, email, erptest.DefaultOTP)
	if err != nil {
		t.Fatalf("verify registration: %v", err)
	}
	if s.User.FullName != "New Tech" {
		t.Fatalf("unexpected user %+v", s.User)
	}
	if te.HasPermission("ticket:read") {
		t.Fatal("fresh registration should hold no permissions")
	}

	if err := te.RequestRegistrationOTP(ctx, email, "New Tech", ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}
}

func TestRegistrationVerifyRequiresRequest(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.VerifyRegistrationOTP(context.Background(), "nobody@isp.example", erptest.DefaultOTP)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	ctx := context.Background()
	const fresh = "n3w-passphrase"

	if err := te.ResetPassword(ctx, opsEmail, erptest.DefaultOTP, fresh); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reset before request: expected ErrInvalidState, got %v", err)
	}
	if err := te.RequestPasswordReset(ctx, opsEmail); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if err := te.ResetPassword(ctx, opsEmail, erptest.DefaultOTP, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("short password: expected ErrPasswordPolicy, got %v", err)
	}
	if err := te.ResetPassword(ctx, opsEmail, "000000", fresh); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("wrong code: expected ErrInvalidOTP, got %v", err)
	}
	if err := te.ResetPassword(ctx, opsEmail, erptest.DefaultOTP, fresh); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if te.IsAuthenticated() {
		t.Fatal("reset must not sign in")
	}

	acc, _ := te.backend.Account(opsEmail)
	if acc.Password != fresh {
		t.Fatal("backend password not updated")
	}
	if _, err := te.Login(ctx, opsEmail, fresh); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestSetAndChangePassword(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	ctx := context.Background()

	if err := te.SetPassword(ctx, "first-pass1", "first-pass1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	te.signIn(t, false)

	if err := te.SetPassword(ctx, "first-pass1", "first-pass2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := te.SetPassword(ctx, "first-pass1", "first-pass1"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	if err := te.ChangePassword(ctx, "first-pass1", "first-pass1"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("same password: expected ErrPasswordPolicy, got %v", err)
	}
	if err := te.ChangePassword(ctx, "not-current", "second-pass"); !errors.Is(err, ErrValidation) {
		t.Fatalf("wrong current: expected ErrValidation, got %v", err)
	}
	if !te.IsAuthenticated() {
		t.Fatal("wrong current password must keep the session")
	}
	if err := te.ChangePassword(ctx, "first-pass1", "second-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
}
