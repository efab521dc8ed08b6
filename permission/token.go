package permission

import "strings"

const (
	// Wildcard grants every permission.
	Wildcard = "*"
	// ActionManage implies every action on a resource.
	ActionManage = "manage"

	ScopeAll        = "all"
	ScopeOwn        = "own"
	ScopeDepartment = "department"
	ScopeAssigned   = "assigned"
)

// Token is a parsed permission string.
type Token struct {
	Resource string
	Action   string
	Scope    string
	// Explicit is false when the scope was defaulted.
	Explicit bool
}

// Parse splits s into its parts. Strings with fewer than two parts are
// rejected. Parts beyond the third are ignored.
func Parse(s string) (Token, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Token{}, false
	}

	t := Token{Resource: parts[0], Action: parts[1], Scope: ScopeAll}
	if len(parts) > 2 && parts[2] != "" {
		t.Scope = parts[2]
		t.Explicit = true
	}
	return t, true
}

// String renders the token with its scope.
func (t Token) String() string {
	return t.Resource + ":" + t.Action + ":" + t.Scope
}

// Format builds resource:action:scope.
func Format(resource, action, scope string) string {
	return resource + ":" + action + ":" + scope
}
