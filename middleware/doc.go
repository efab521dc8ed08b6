// Package middleware gates HTTP handlers on the signed-in ERP session.
//
// It is meant for Go-rendered surfaces and backend-for-frontend processes
// that hold one erpauth.Engine per operator. Every decision is a synchronous
// Engine query; no guard performs I/O.
//
//   - [RequireSession] rejects requests while nobody is signed in (401).
//   - [RequirePermission] needs every listed permission (403 otherwise).
//   - [RequireAnyPermission] needs at least one.
//   - [RequireRole] needs a role by name.
//
// A denied request is answered by the fallback handler when one is given
// with [WithFallback], mirroring a permission gate that renders alternative
// content instead of the protected view.
package middleware
