package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ispops/erpauth/session"
)

// ProfileUpdate is a partial update of the current user. Nil and empty
// fields are left unchanged.
type ProfileUpdate struct {
	FullName      *string `json:"full_name,omitempty"`
	PhoneNumber   *string `json:"phone_number,omitempty"`
	DepartmentID  *int64  `json:"department_id,omitempty"`
	Department    string  `json:"department,omitempty"`
	RequestedRole string  `json:"requested_role,omitempty"`
	AvatarURL     string  `json:"avatar_url,omitempty"`
}

// Profile fetches the user, flat permissions and roles in one bundle.
func (c *Client) Profile(ctx context.Context, bearer string) (*session.Profile, error) {
	var out session.Profile
	err := c.do(ctx, call{
		op:     "get profile",
		method: http.MethodGet,
		path:   c.endpoints.Profile,
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the current user.
func (c *Client) Me(ctx context.Context, bearer string) (*session.User, error) {
	var out session.User
	err := c.do(ctx, call{
		op:     "get current user",
		method: http.MethodGet,
		path:   c.endpoints.Me,
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LegacyPermissions fetches the flat permission list.
func (c *Client) LegacyPermissions(ctx context.Context, bearer string) ([]string, error) {
	var out session.PermissionEnvelope
	err := c.do(ctx, call{
		op:     "get legacy permissions",
		method: http.MethodGet,
		path:   c.endpoints.LegacyPermissions,
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return out.Permissions.Tokens(), nil
}

// UpdateProfile applies upd to the current user.
func (c *Client) UpdateProfile(ctx context.Context, bearer string, upd ProfileUpdate) (*session.User, error) {
	var out session.User
	err := c.do(ctx, call{
		op:     "update profile",
		method: http.MethodPut,
		path:   c.endpoints.UpdateProfile,
		body:   upd,
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Roles lists roles a user may request during onboarding.
func (c *Client) Roles(ctx context.Context, bearer string) ([]session.Role, error) {
	var out []session.Role
	err := c.do(ctx, call{
		op:     "list roles",
		method: http.MethodGet,
		path:   c.endpoints.Roles,
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckResult is the backend's answer for one permission.
type CheckResult struct {
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}

// Check asks the backend whether the bearer holds perm.
func (c *Client) Check(ctx context.Context, bearer, perm string) (bool, error) {
	var out CheckResult
	err := c.do(ctx, call{
		op:     "check permission",
		method: http.MethodGet,
		path:   c.endpoints.Check,
		query:  url.Values{"permission": {perm}},
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return false, err
	}
	return out.Granted, nil
}

// CheckBatch asks the backend about several permissions at once.
func (c *Client) CheckBatch(ctx context.Context, bearer string, perms []string) (map[string]bool, error) {
	if len(perms) == 0 {
		return map[string]bool{}, nil
	}
	out := make(map[string]bool, len(perms))
	err := c.do(ctx, call{
		op:     "check permission batch",
		method: http.MethodPost,
		path:   c.endpoints.CheckBatch,
		body:   map[string][]string{"permissions": perms},
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
