package flows

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/internal/erptest"
)

func TestPasswordlessFlow(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	f := NewPasswordlessFlow(engine)
	if err := f.Request(ctx, testEmail); err != nil {
		t.Fatalf("request: %v", err)
	}
	if f.Step() != PasswordlessCode || f.Email() != testEmail {
		t.Fatalf("unexpected state step=%s email=%q", f.Step(), f.Email())
	}
	if err := f.Resend(ctx); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if err := f.Verify(ctx, "999999"); !errors.Is(err, erpauth.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if err := f.Verify(ctx, erptest.DefaultOTP); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !f.Done() || f.Session() == nil {
		t.Fatalf("expected session, step=%s", f.Step())
	}
}

func TestPasswordlessFlowBackKeepsNothingPending(t *testing.T) {
	engine, _ := newEngine(t)

	f := NewPasswordlessFlow(engine)
	if err := f.Request(context.Background(), testEmail); err != nil {
		t.Fatalf("request: %v", err)
	}
	if !f.Back() || f.Step() != PasswordlessEmail {
		t.Fatalf("expected back at email step, got %s", f.Step())
	}
	f.Reset()
	if f.Email() != "" {
		t.Fatalf("expected email cleared")
	}
}

func TestMagicLinkFlow(t *testing.T) {
	engine, backend := newEngine(t)
	ctx := context.Background()

	link := backend.MagicLink(testEmail)
	f := NewMagicLinkFlow(engine)
	if err := f.Verify(ctx, link); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !f.Done() || f.Session() == nil {
		t.Fatalf("expected done, got %s", f.Step())
	}

	reused := NewMagicLinkFlow(engine)
	if err := reused.Verify(ctx, link); !errors.Is(err, erpauth.ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink, got %v", err)
	}
	if !reused.Failed() {
		t.Fatalf("expected failed step, got %s", reused.Step())
	}
	if err := reused.Verify(ctx, link); !errors.Is(err, erpauth.ErrInvalidState) {
		t.Fatalf("failed link must not be retried, got %v", err)
	}
}

func TestMagicLinkFlowRetriesAfterServerError(t *testing.T) {
	engine, backend := newEngine(t)
	ctx := context.Background()

	backend.FailNext("/api/v1/auth/passwordless/verify", http.StatusBadGateway, "upstream down")
	link := backend.MagicLink(testEmail)

	f := NewMagicLinkFlow(engine)
	if err := f.Verify(ctx, link); !errors.Is(err, erpauth.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if f.Step() != MagicLinkVerifying {
		t.Fatalf("expected to stay verifying, got %s", f.Step())
	}
	if err := f.Verify(ctx, link); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !f.Done() {
		t.Fatalf("expected done")
	}
}
