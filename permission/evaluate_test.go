package permission

import "testing"

func subject(perms ...string) *Subject {
	s := NewSet()
	s.Add(SourceLegacy, "", perms...)
	return &Subject{Set: s}
}

func TestEvaluateRules(t *testing.T) {
	tests := []struct {
		name      string
		held      []string
		requested string
		want      bool
		rule      Rule
	}{
		{name: "exact", held: []string{"project:read:own"}, requested: "project:read:own", want: true, rule: RuleExact},
		{name: "wildcard", held: []string{"*"}, requested: "anything:at:all", want: true, rule: RuleWildcard},
		{name: "wildcard malformed", held: []string{"*"}, requested: "nocolon", want: true, rule: RuleWildcard},
		{name: "manage all", held: []string{"finance:manage:all"}, requested: "finance:approve:department", want: true, rule: RuleManageAll},
		{name: "manage scope", held: []string{"finance:manage:department"}, requested: "finance:approve:department", want: true, rule: RuleManageScope},
		{name: "manage scope other", held: []string{"finance:manage:department"}, requested: "finance:approve:all", want: false, rule: RuleDenied},
		{name: "action all", held: []string{"project:read:all"}, requested: "project:read:own", want: true, rule: RuleActionAll},
		{name: "own from department", held: []string{"project:read:department"}, requested: "project:read:own", want: true, rule: RuleOwnWidened},
		{name: "own from assigned", held: []string{"ticket:update:assigned"}, requested: "ticket:update:own", want: true, rule: RuleOwnWidened},
		{name: "department not widened", held: []string{"project:read:assigned"}, requested: "project:read:department", want: false, rule: RuleDenied},
		{name: "bare action", held: []string{"audit:export"}, requested: "audit:export:own", want: true, rule: RuleBareAction},
		{name: "defaulted scope", held: []string{"project:read:all"}, requested: "project:read", want: true, rule: RuleActionAll},
		{name: "scope not upgraded", held: []string{"project:read:own"}, requested: "project:read:all", want: false, rule: RuleDenied},
		{name: "malformed", held: []string{"nocolon:x:all"}, requested: "nocolon", want: false, rule: RuleMalformed},
		{name: "other resource", held: []string{"crm:manage:all"}, requested: "hr:read", want: false, rule: RuleDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(subject(tt.held...), tt.requested)
			if d.Granted != tt.want || d.Rule != tt.rule {
				t.Fatalf("Evaluate(%q) = granted %v rule %s; want %v %s", tt.requested, d.Granted, d.Rule, tt.want, tt.rule)
			}
		})
	}
}

func TestEvaluateNoSessionAndSuperuser(t *testing.T) {
	if d := Evaluate(nil, "*"); d.Granted || d.Rule != RuleNoSession {
		t.Fatalf("expected no-session denial, got %+v", d)
	}

	su := &Subject{Superuser: true}
	for _, p := range []string{"x", "finance:approve:all", ""} {
		if !Allowed(su, p) {
			t.Fatalf("expected superuser to hold %q", p)
		}
	}
}

func TestEvaluateReportsSource(t *testing.T) {
	s := NewSet()
	s.Add(SourceLegacy, "", "crm:read")
	s.Add(SourceRole, "Field Technician", "ticket:update:assigned", "crm:read")

	d := Evaluate(&Subject{Set: s}, "ticket:update:own")
	if !d.Granted || d.Grant.Source != SourceRole || d.Grant.Origin != "Field Technician" {
		t.Fatalf("unexpected decision %+v", d)
	}

	// First source wins for duplicates.
	if g, _ := s.Grant("crm:read"); g.Source != SourceLegacy {
		t.Fatalf("expected legacy source, got %s", g.Source)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 distinct permissions, got %d", s.Len())
	}
}

func TestParse(t *testing.T) {
	tok, ok := Parse("inventory:update")
	if !ok || tok.Scope != ScopeAll || tok.Explicit {
		t.Fatalf("unexpected token %+v ok=%v", tok, ok)
	}
	tok, ok = Parse("inventory:update:department")
	if !ok || tok.Scope != ScopeDepartment || !tok.Explicit {
		t.Fatalf("unexpected token %+v ok=%v", tok, ok)
	}
	if _, ok := Parse("inventory"); ok {
		t.Fatal("expected single-part token to be rejected")
	}
	if tok.String() != "inventory:update:department" {
		t.Fatalf("unexpected String %q", tok.String())
	}
}

func TestEvaluatorMemoisesAndAggregates(t *testing.T) {
	e := NewEvaluator(subject("project:read:all", "crm:create"), 8)

	if !e.Allowed("project:read:own") || !e.Allowed("project:read:own") {
		t.Fatal("expected project:read:own")
	}
	if e.Cached() != 1 {
		t.Fatalf("expected 1 cached decision, got %d", e.Cached())
	}

	if !e.Any("hr:read", "crm:create") {
		t.Fatal("expected Any to hold")
	}
	if e.Any() {
		t.Fatal("expected empty Any to be false")
	}
	if e.All("hr:read", "crm:create") {
		t.Fatal("expected All to fail")
	}
	if !e.All() {
		t.Fatal("expected empty All to be true")
	}

	acc := e.Access("crm")
	if !acc.CanCreate || acc.CanRead || acc.CanManage {
		t.Fatalf("unexpected access %+v", acc)
	}

	var nilEval *Evaluator
	if nilEval.Allowed("crm:create") {
		t.Fatal("expected nil evaluator to deny")
	}
}
