package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PermissionRef is one permission entry on the wire. The backend sends
// either a bare string or an object with name and/or codename.
type PermissionRef struct {
	Name     string `json:"name,omitempty"`
	Codename string `json:"codename,omitempty"`
}

// Token returns the evaluable permission string: name, else codename.
func (p PermissionRef) Token() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Codename
}

func (p *PermissionRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PermissionRef{Name: s}
		return nil
	}

	type plain PermissionRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("permission entry: %w", err)
	}
	*p = PermissionRef(v)
	return nil
}

// PermissionList is a list of permission entries.
type PermissionList []PermissionRef

// Tokens flattens the list, skipping empty entries.
func (l PermissionList) Tokens() []string {
	out := make([]string, 0, len(l))
	for _, p := range l {
		if t := p.Token(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Strings builds a PermissionList from plain permission strings.
func Strings(perms ...string) PermissionList {
	out := make(PermissionList, len(perms))
	for i, p := range perms {
		out[i] = PermissionRef{Name: p}
	}
	return out
}

// PermissionEnvelope decodes the legacy permission endpoint, which answers
// either with a bare array or with {"permissions": [...], "count": n}.
type PermissionEnvelope struct {
	Permissions PermissionList `json:"permissions"`
	Count       int            `json:"count"`
}

func (e *PermissionEnvelope) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list PermissionList
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*e = PermissionEnvelope{Permissions: list, Count: len(list)}
		return nil
	}

	type plain PermissionEnvelope
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("permission envelope: %w", err)
	}
	*e = PermissionEnvelope(v)
	return nil
}

// Role is a legacy or RBAC v2 role. Legacy roles carry Permissions;
// v2 roles carry Scopes and may carry Permissions.
type Role struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ParentID    *int64         `json:"parent_id,omitempty"`
	Scopes      []string       `json:"scopes,omitempty"`
	Permissions PermissionList `json:"permissions,omitempty"`
}

// MenuItem is a navigation entry the backend tailors to the user.
type MenuItem struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Path     string     `json:"path"`
	Icon     string     `json:"icon,omitempty"`
	Children []MenuItem `json:"children,omitempty"`
}

// User is the authenticated user's profile.
type User struct {
	ID            int64          `json:"id"`
	Email         string         `json:"email"`
	FullName      string         `json:"full_name"`
	Phone         string         `json:"phone,omitempty"`
	IsActive      bool           `json:"is_active"`
	IsSuperuser   bool           `json:"is_superuser"`
	DepartmentID  *int64         `json:"department_id,omitempty"`
	Roles         []Role         `json:"roles,omitempty"`
	RolesV2       []Role         `json:"roles_v2,omitempty"`
	Role          *Role          `json:"role,omitempty"`
	PermissionsV2 PermissionList `json:"permissions_v2,omitempty"`
	Menus         []MenuItem     `json:"menus,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

// Profile is the bundle returned by the profile endpoint.
type Profile struct {
	User        User           `json:"user"`
	Permissions PermissionList `json:"permissions"`
	Roles       []Role         `json:"roles,omitempty"`
}
