// Package jwt inspects access tokens issued by the ERP backend.
//
// Tokens are decoded without signature verification: the client never holds
// the signing key and uses the claims only to schedule refreshes and to
// report expiry. Nothing here makes an authorization decision.
package jwt
