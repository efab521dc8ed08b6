package flows

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ispops/erpauth"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"lockout", &erpauth.LockoutError{Stage: "password", Remaining: 14*time.Minute + time.Second}, "Too many failed attempts. Please try again in 15 minutes."},
		{"lockout under a minute", &erpauth.LockoutError{Stage: "otp"}, "Too many failed attempts. Please try again in 1 minutes."},
		{"attempts", &erpauth.AttemptError{Remaining: 3, Err: erpauth.ErrInvalidCredentials}, "Invalid email or password. 3 attempts remaining."},
		{"busy", ErrBusy, "Please wait for the current request to finish."},
		{"wrapped otp", fmt.Errorf("verify: %w", erpauth.ErrInvalidOTP), "Invalid or expired verification code"},
		{"inactive", erpauth.ErrAccountInactive, "Your account is not active yet. Please wait for an administrator to approve it."},
		{"not authenticated", erpauth.ErrNotAuthenticated, "Your session has expired. Please sign in again."},
		{"validation reason", fmt.Errorf("%w: email is required", erpauth.ErrValidation), "Email is required."},
		{"bare validation", erpauth.ErrValidation, "Please check the details you entered."},
		{"other", fmt.Errorf("boom"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Fatalf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageLockoutWinsOverCause(t *testing.T) {
	err := &erpauth.LockoutError{Stage: "password", Remaining: 15 * time.Minute, Cause: erpauth.ErrInvalidCredentials}
	if got := Message(err); !strings.HasPrefix(got, "Too many failed attempts") {
		t.Fatalf("unexpected message %q", got)
	}
}
