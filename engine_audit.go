package erpauth

import (
	"context"
	"errors"
	"strconv"

	"github.com/ispops/erpauth/transport"
)

const (
	auditEventPasswordVerified      = "password_verified"
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLockedOut             = "locked_out"
	auditEventOTPRequested          = "otp_requested"
	auditEventOTPFailure            = "otp_failure"
	auditEventPasswordlessRequested = "passwordless_requested"
	auditEventMagicLinkFailure      = "magic_link_failure"
	auditEventRegistrationRequested = "registration_requested"
	auditEventRegistrationSuccess   = "registration_success"
	auditEventRegistrationFailure   = "registration_failure"
	auditEventPasswordResetRequest  = "password_reset_request"
	auditEventPasswordResetConfirm  = "password_reset_confirm"
	auditEventPasswordSet           = "password_set"
	auditEventPasswordChange        = "password_change"
	auditEventProfileUpdated        = "profile_updated"
	auditEventSessionRefreshed      = "session_refreshed"
	auditEventSessionExpired        = "session_expired"
	auditEventTokenRefreshed        = "token_refreshed"
	auditEventLogout                = "logout"
)

// AuditErrorCode is the stable error label written to audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidOTP         AuditErrorCode = "invalid_otp"
	auditErrInvalidLink        AuditErrorCode = "invalid_link"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrLockedOut          AuditErrorCode = "locked_out"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrValidation         AuditErrorCode = "validation"
	auditErrConflict           AuditErrorCode = "duplicate"
	auditErrInvalidState       AuditErrorCode = "invalid_state"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	method string,
	success bool,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	reqID, _ := transport.RequestIDFromContext(ctx)
	event := AuditEvent{
		EventType: eventType,
		UserID:    e.currentUserID(),
		RequestID: reqID,
		Method:    method,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) currentUserID() string {
	s := e.Session()
	if s == nil || s.User.ID == 0 {
		return ""
	}
	return strconv.FormatInt(s.User.ID, 10)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrLockedOut):
		return auditErrLockedOut
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrInvalidLink):
		return auditErrInvalidLink
	case errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrNotAuthenticated):
		return auditErrSessionExpired
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case errors.Is(err, ErrInvalidState):
		return auditErrInvalidState
	case errors.Is(err, ErrNetwork),
		errors.Is(err, ErrServer),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
