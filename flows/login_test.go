package flows

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/internal/erptest"
	"github.com/ispops/erpauth/session"
)

func TestLoginFlowCompletes(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	f := NewLoginFlow(engine)
	completed := 0
	f.OnComplete(func() { completed++ })

	if err := f.SubmitPassword(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("submit password: %v", err)
	}
	if f.Step() != LoginOTP {
		t.Fatalf("expected otp step, got %s", f.Step())
	}
	if f.Message() == "" {
		t.Fatalf("expected backend message")
	}
	if err := f.ResendOTP(ctx); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if err := f.SubmitOTP(ctx, erptest.DefaultOTP, false); err != nil {
		t.Fatalf("submit otp: %v", err)
	}
	if !f.Done() || f.Session() == nil {
		t.Fatalf("expected done with session, step=%s", f.Step())
	}
	if !engine.HasPermission("tickets:read") {
		t.Fatalf("expected engine session after flow")
	}
	if completed != 1 {
		t.Fatalf("expected one completion callback, got %d", completed)
	}
}

func TestLoginFlowWrongPasswordStays(t *testing.T) {
	engine, _ := newEngine(t)

	f := NewLoginFlow(engine)
	err := f.SubmitPassword(context.Background(), testEmail, "nope")
	if !errors.Is(err, erpauth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if f.Step() != LoginPassword {
		t.Fatalf("expected password step, got %s", f.Step())
	}
	if !errors.Is(f.Err(), erpauth.ErrInvalidCredentials) {
		t.Fatalf("expected stored error, got %v", f.Err())
	}

	if err := f.SubmitPassword(context.Background(), testEmail, testPassword); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.Err() != nil {
		t.Fatalf("expected error cleared by next submission, got %v", f.Err())
	}
}

func TestLoginFlowWrongOTPThenBack(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	f := NewLoginFlow(engine)
	if err := f.SubmitPassword(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("submit password: %v", err)
	}
	if err := f.SubmitOTP(ctx, "000000", false); !errors.Is(err, erpauth.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if f.Step() != LoginOTP {
		t.Fatalf("expected otp step, got %s", f.Step())
	}
	if !f.Back() {
		t.Fatalf("expected back to succeed")
	}
	if f.Step() != LoginPassword || f.Err() != nil {
		t.Fatalf("expected clean password step, got %s err=%v", f.Step(), f.Err())
	}
	if f.Back() {
		t.Fatalf("password step has no way back")
	}
}

func TestLoginFlowSingleFactor(t *testing.T) {
	engine, backend := newEngine(t, func(c *erpauth.Config) { c.Login.AllowSingleFactor = true })
	backend.AddAccount(erptest.Account{
		Password:     testPassword,
		SingleFactor: true,
		User:         session.User{Email: "kiosk@isp.example", IsActive: true},
	})

	f := NewLoginFlow(engine)
	if err := f.SubmitPassword(context.Background(), "kiosk@isp.example", testPassword); err != nil {
		t.Fatalf("submit password: %v", err)
	}
	if !f.Done() {
		t.Fatalf("expected done, got %s", f.Step())
	}
}

func TestLoginFlowWrongStep(t *testing.T) {
	engine, _ := newEngine(t)

	f := NewLoginFlow(engine)
	err := f.SubmitOTP(context.Background(), erptest.DefaultOTP, false)
	if !errors.Is(err, erpauth.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if f.Step() != LoginPassword {
		t.Fatalf("step changed to %s", f.Step())
	}
}

func TestLoginFlowResetRearmsCompletion(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	f := NewLoginFlow(engine)
	completed := 0
	f.OnComplete(func() { completed++ })

	for range 2 {
		if err := f.SubmitPassword(ctx, testEmail, testPassword); err != nil {
			t.Fatalf("submit password: %v", err)
		}
		if err := f.SubmitOTP(ctx, erptest.DefaultOTP, false); err != nil {
			t.Fatalf("submit otp: %v", err)
		}
		f.Reset()
		if f.Step() != LoginPassword || f.Email() != "" || f.Session() != nil {
			t.Fatalf("reset left state behind: step=%s email=%q", f.Step(), f.Email())
		}
	}
	if completed != 2 {
		t.Fatalf("expected two completions, got %d", completed)
	}
}

type blockingLogin struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingLogin) Login(ctx context.Context, _, _ string) (*erpauth.LoginResult, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return &erpauth.LoginResult{Stage: erpauth.StageOTPRequired}, nil
}

func (b *blockingLogin) RequestOTP(context.Context, string) error {
	return nil
}

func (b *blockingLogin) VerifyOTP(context.Context, string, string, bool) (*session.Session, error) {
	return &session.Session{}, nil
}

func TestLoginFlowRejectsConcurrentSubmission(t *testing.T) {
	eng := &blockingLogin{entered: make(chan struct{}), release: make(chan struct{})}
	f := NewLoginFlow(eng)

	done := make(chan error, 1)
	go func() {
		done <- f.SubmitPassword(context.Background(), testEmail, testPassword)
	}()
	<-eng.entered

	if !f.Busy() {
		t.Fatalf("expected busy")
	}
	if err := f.SubmitPassword(context.Background(), testEmail, testPassword); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if f.Back() {
		t.Fatalf("back must be refused while busy")
	}

	close(eng.release)
	if err := <-done; err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if f.Busy() || f.Step() != LoginOTP {
		t.Fatalf("expected idle at otp, busy=%v step=%s", f.Busy(), f.Step())
	}
}
