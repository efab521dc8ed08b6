package flows

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ispops/erpauth"
)

// Message turns an error from a flow into text fit to show the user.
// It returns "" for a nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var lock *erpauth.LockoutError
	if errors.As(err, &lock) {
		return fmt.Sprintf("Too many failed attempts. Please try again in %d minutes.", max(lock.RemainingMinutes(), 1))
	}
	var attempt *erpauth.AttemptError
	if errors.As(err, &attempt) {
		return fmt.Sprintf("%s. %d attempts remaining.", Message(attempt.Err), attempt.Remaining)
	}

	switch {
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, erpauth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, erpauth.ErrInvalidOTP):
		return "Invalid or expired verification code"
	case errors.Is(err, erpauth.ErrInvalidLink):
		return "This sign-in link is invalid or has expired."
	case errors.Is(err, erpauth.ErrAccountInactive):
		return "Your account is not active yet. Please wait for an administrator to approve it."
	case errors.Is(err, erpauth.ErrSessionExpired), errors.Is(err, erpauth.ErrNotAuthenticated):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, erpauth.ErrForbidden):
		return "You do not have permission to do this."
	case errors.Is(err, erpauth.ErrConflict):
		return "An account with this email already exists."
	case errors.Is(err, erpauth.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, erpauth.ErrPasswordPolicy):
		return "Password must be at least 8 characters and differ from the current one."
	case errors.Is(err, erpauth.ErrValidation):
		if detail := erpauth.DetailOf(err); detail != "" {
			return detail
		}
		return validationText(err)
	case errors.Is(err, erpauth.ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	case errors.Is(err, erpauth.ErrNetwork):
		return "Cannot reach the server. Check your connection and try again."
	case errors.Is(err, erpauth.ErrServer):
		return "The server is having trouble. Please try again later."
	case errors.Is(err, erpauth.ErrInvalidState):
		return "This step has expired. Please start again."
	default:
		return "Something went wrong. Please try again."
	}
}

// validationText keeps the reason a local check attached to ErrValidation.
func validationText(err error) string {
	msg := err.Error()
	prefix := erpauth.ErrValidation.Error() + ": "
	i := strings.LastIndex(msg, prefix)
	if i < 0 || i+len(prefix) == len(msg) {
		return "Please check the details you entered."
	}
	rest := msg[i+len(prefix):]
	return strings.ToUpper(rest[:1]) + rest[1:] + "."
}
