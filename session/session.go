package session

import (
	"time"

	"github.com/ispops/erpauth/permission"
)

// Session is the authenticated principal. It is immutable once built;
// refreshing replaces it wholesale.
type Session struct {
	User User
	// Legacy holds flat permissions from the legacy endpoint and the
	// profile bundle, in that order.
	Legacy []string
	// BundleRoles are roles reported alongside the profile.
	BundleRoles []Role
	FetchedAt   time.Time

	set *permission.Set
}

// New builds a Session and its merged permission set.
func New(user User, legacy []string, bundleRoles []Role, fetchedAt time.Time) *Session {
	s := &Session{
		User:        user,
		Legacy:      append([]string(nil), legacy...),
		BundleRoles: append([]Role(nil), bundleRoles...),
		FetchedAt:   fetchedAt,
	}
	s.set = s.merge()
	return s
}

// FromProfile builds a Session from the profile bundle plus the legacy list.
func FromProfile(p Profile, legacy []string, fetchedAt time.Time) *Session {
	all := make([]string, 0, len(legacy)+len(p.Permissions))
	all = append(all, legacy...)
	all = append(all, p.Permissions.Tokens()...)
	return New(p.User, all, p.Roles, fetchedAt)
}

func (s *Session) merge() *permission.Set {
	set := permission.NewSet()
	set.Add(permission.SourceLegacy, "", s.Legacy...)
	set.Add(permission.SourceDirect, "", s.User.PermissionsV2.Tokens()...)

	for _, r := range s.allRoles() {
		set.Add(permission.SourceRole, r.Name, r.Permissions.Tokens()...)
	}
	return set
}

func (s *Session) allRoles() []Role {
	u := s.User
	out := make([]Role, 0, len(u.RolesV2)+len(u.Roles)+len(s.BundleRoles)+1)
	out = append(out, u.RolesV2...)
	out = append(out, u.Roles...)
	if u.Role != nil {
		out = append(out, *u.Role)
	}
	out = append(out, s.BundleRoles...)
	return out
}

// Permissions returns the merged permission set.
func (s *Session) Permissions() *permission.Set {
	if s == nil {
		return nil
	}
	return s.set
}

// Subject adapts the session for permission evaluation. A nil Session
// yields a nil Subject.
func (s *Session) Subject() *permission.Subject {
	if s == nil {
		return nil
	}
	return &permission.Subject{Superuser: s.User.IsSuperuser, Set: s.set}
}

// RoleNames returns distinct role names: v2 roles, legacy roles, the single
// role, then bundle roles.
func (s *Session) RoleNames() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.allRoles() {
		if r.Name == "" {
			continue
		}
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r.Name)
	}
	return out
}

// HasRole reports whether the user holds a role named name.
func (s *Session) HasRole(name string) bool {
	if s == nil || name == "" {
		return false
	}
	for _, r := range s.allRoles() {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Menus returns the backend-provided navigation.
func (s *Session) Menus() []MenuItem {
	if s == nil {
		return nil
	}
	return s.User.Menus
}
