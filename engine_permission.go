package erpauth

import (
	"github.com/ispops/erpauth/permission"
	"github.com/ispops/erpauth/session"
)

// HasPermission reports whether the session grants perm. It never blocks
// and is false without a session.
func (e *Engine) HasPermission(perm string) bool {
	ok := e.evaluator().Allowed(perm)
	if ok {
		e.metricInc(MetricPermissionGranted)
	} else {
		e.metricInc(MetricPermissionDenied)
	}
	return ok
}

// HasAnyPermission reports whether at least one of perms is granted.
func (e *Engine) HasAnyPermission(perms ...string) bool {
	return e.evaluator().Any(perms...)
}

// HasAllPermissions reports whether every one of perms is granted. An empty
// list is trivially granted.
func (e *Engine) HasAllPermissions(perms ...string) bool {
	return e.evaluator().All(perms...)
}

// ResourceAccess reports the CRUD and manage rights on resource.
func (e *Engine) ResourceAccess(resource string) permission.ResourceAccess {
	return e.evaluator().Access(resource)
}

// Explain reports the rule and source that decided perm.
func (e *Engine) Explain(perm string) permission.Decision {
	return e.evaluator().Evaluate(perm)
}

// HasRole reports whether the user holds a role with this name.
func (e *Engine) HasRole(name string) bool {
	return e.Session().HasRole(name)
}

// UserRoles returns the distinct role names of the user.
func (e *Engine) UserRoles() []string {
	return e.Session().RoleNames()
}

// Menus returns the backend-provided navigation for the user.
func (e *Engine) Menus() []session.MenuItem {
	return e.Session().Menus()
}
