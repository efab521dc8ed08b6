// Package transport is the stateless HTTP client for the ERP authentication
// and RBAC endpoints.
//
// Every call takes the bearer token explicitly; the client never stores one.
// Failures come back as *[APIError] values that unwrap to one of the package
// sentinels, so callers branch with errors.Is and can still show the
// backend's message.
//
// # Classification
//
// Error bodies follow the FastAPI shape: {"detail": "..."} or
// {"detail": [{"msg": "..."}]}. The HTTP status and the kind of credential the
// endpoint accepts decide the sentinel: a 401 on a password endpoint is
// [ErrInvalidCredentials], on an OTP endpoint [ErrInvalidOTP], and on any
// bearer call [ErrSessionExpired].
//
// # What this package must NOT do
//
//   - Hold tokens or session state.
//   - Retry. Callers own retry policy.
//   - Import erpauth.
package transport
