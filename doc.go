// Package erpauth is the client-side authentication and permission engine
// for the ISP ERP backend.
//
// It drives the multi-phase login protocols (password then OTP, passwordless
// OTP or magic link, OTP registration, password reset), owns the bearer token
// and the authenticated session, and answers permission queries synchronously
// with scoped resource:action[:scope] matching.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// erpauth is the public surface. It exposes [Engine], [Builder], [Config] and
// value types (LoginResult, TokenInfo, MetricsSnapshot). HTTP calls live in
// transport, the token cell in token, the lockout state machine in
// internal/limiters, permission matching in permission. UI concerns live in
// flows.
//
// # What this package must NOT do
//
//   - Authenticate a user on password correctness alone.
//   - Log emails, passwords, OTPs or tokens.
//   - Import flows or middleware (they import erpauth).
package erpauth
