package middleware

import (
	"context"
	"net/http"

	"github.com/ispops/erpauth/session"
)

// Authorizer is the part of erpauth.Engine the guards query.
type Authorizer interface {
	Session() *session.Session
	HasAllPermissions(perms ...string) bool
	HasAnyPermission(perms ...string) bool
	HasRole(name string) bool
}

type sessionContextKey struct{}

// SessionFromContext returns the session a guard admitted the request with.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok && s != nil
}

// Option customises a guard.
type Option func(*options)

type options struct {
	fallback     http.Handler
	unauthorized http.Handler
}

// WithFallback serves h instead of a bare 403 when the check fails.
func WithFallback(h http.Handler) Option {
	return func(o *options) {
		o.fallback = h
	}
}

// WithUnauthorized serves h instead of a bare 401 when nobody is signed in.
func WithUnauthorized(h http.Handler) Option {
	return func(o *options) {
		o.unauthorized = h
	}
}

// RequireSession admits any signed-in user.
func RequireSession(auth Authorizer, opts ...Option) func(http.Handler) http.Handler {
	return guard(auth, func(Authorizer) bool { return true }, opts)
}

// RequirePermission admits the request when every perm is granted.
func RequirePermission(auth Authorizer, perms ...string) func(http.Handler) http.Handler {
	return RequirePermissionWith(auth, perms, nil)
}

// RequirePermissionWith is RequirePermission with options.
func RequirePermissionWith(auth Authorizer, perms []string, opts []Option) func(http.Handler) http.Handler {
	return guard(auth, func(a Authorizer) bool { return a.HasAllPermissions(perms...) }, opts)
}

// RequireAnyPermission admits the request when at least one perm is granted.
func RequireAnyPermission(auth Authorizer, perms ...string) func(http.Handler) http.Handler {
	return guard(auth, func(a Authorizer) bool { return a.HasAnyPermission(perms...) }, nil)
}

// RequireRole admits holders of the named role.
func RequireRole(auth Authorizer, role string, opts ...Option) func(http.Handler) http.Handler {
	return guard(auth, func(a Authorizer) bool { return a.HasRole(role) }, opts)
}

func guard(auth Authorizer, allowed func(Authorizer) bool, opts []Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s *session.Session
			if auth != nil {
				s = auth.Session()
			}
			if s == nil {
				deny(w, r, o.unauthorized, http.StatusUnauthorized)
				return
			}
			if !allowed(auth) {
				deny(w, r, o.fallback, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, h http.Handler, status int) {
	if h != nil {
		h.ServeHTTP(w, r)
		return
	}
	http.Error(w, http.StatusText(status), status)
}
