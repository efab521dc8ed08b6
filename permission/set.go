package permission

import "sort"

// Source identifies where a granted permission came from.
type Source uint8

const (
	SourceLegacy Source = iota + 1
	SourceDirect
	SourceRole
)

func (s Source) String() string {
	switch s {
	case SourceLegacy:
		return "legacy"
	case SourceDirect:
		return "direct"
	case SourceRole:
		return "role"
	default:
		return "unknown"
	}
}

// Grant records the first source that contributed a permission.
type Grant struct {
	Source Source
	// Origin names the role for SourceRole grants.
	Origin string
}

// Set is the union of permissions from every source. The zero value is
// empty and ready to use. A Set must not be modified once shared.
type Set struct {
	grants map[string]Grant
	order  []string
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{grants: make(map[string]Grant)}
}

// Add inserts perms under src. Empty strings are skipped. When a permission
// arrives from several sources the first one added is kept, so callers add
// legacy, then direct, then role grants.
func (s *Set) Add(src Source, origin string, perms ...string) {
	if s.grants == nil {
		s.grants = make(map[string]Grant)
	}
	for _, p := range perms {
		if p == "" {
			continue
		}
		if _, ok := s.grants[p]; ok {
			continue
		}
		s.grants[p] = Grant{Source: src, Origin: origin}
		s.order = append(s.order, p)
	}
}

// Has reports verbatim membership.
func (s *Set) Has(p string) bool {
	if s == nil {
		return false
	}
	_, ok := s.grants[p]
	return ok
}

// Grant returns the source of p.
func (s *Set) Grant(p string) (Grant, bool) {
	if s == nil {
		return Grant{}, false
	}
	g, ok := s.grants[p]
	return g, ok
}

// Len returns the number of distinct permissions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// List returns permissions in insertion order.
func (s *Set) List() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns permissions in lexical order.
func (s *Set) Sorted() []string {
	out := s.List()
	sort.Strings(out)
	return out
}

// BySource returns the permissions contributed by src.
func (s *Set) BySource(src Source) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, p := range s.order {
		if s.grants[p].Source == src {
			out = append(out, p)
		}
	}
	return out
}
