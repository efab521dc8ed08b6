package permission

// Rule names the evaluation step that produced a decision.
type Rule uint8

const (
	RuleDenied Rule = iota
	RuleNoSession
	RuleSuperuser
	RuleWildcard
	RuleExact
	RuleMalformed
	RuleManageAll
	RuleManageScope
	RuleActionAll
	RuleOwnWidened
	RuleBareAction
)

var ruleNames = [...]string{
	RuleDenied:      "denied",
	RuleNoSession:   "no_session",
	RuleSuperuser:   "superuser",
	RuleWildcard:    "wildcard",
	RuleExact:       "exact",
	RuleMalformed:   "malformed",
	RuleManageAll:   "manage_all",
	RuleManageScope: "manage_scope",
	RuleActionAll:   "action_all",
	RuleOwnWidened:  "own_widened",
	RuleBareAction:  "bare_action",
}

func (r Rule) String() string {
	if int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return "unknown"
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Requested string
	Granted   bool
	Rule      Rule
	// Matched is the held permission that satisfied the request.
	Matched string
	Grant   Grant
}

// Subject is what gets evaluated: a merged set plus the superuser flag.
// A nil Subject means no session.
type Subject struct {
	Superuser bool
	Set       *Set
}

// Evaluate decides whether sub holds requested.
func Evaluate(sub *Subject, requested string) Decision {
	d := Decision{Requested: requested}
	if sub == nil {
		d.Rule = RuleNoSession
		return d
	}
	if sub.Superuser {
		d.Granted, d.Rule = true, RuleSuperuser
		return d
	}

	set := sub.Set
	if set.Has(Wildcard) {
		return grant(d, set, RuleWildcard, Wildcard)
	}
	if set.Has(requested) {
		return grant(d, set, RuleExact, requested)
	}

	tok, ok := Parse(requested)
	if !ok {
		d.Rule = RuleMalformed
		return d
	}

	r, a, scope := tok.Resource, tok.Action, tok.Scope
	if p := Format(r, ActionManage, ScopeAll); set.Has(p) {
		return grant(d, set, RuleManageAll, p)
	}
	if p := Format(r, ActionManage, scope); set.Has(p) {
		return grant(d, set, RuleManageScope, p)
	}
	if p := Format(r, a, ScopeAll); set.Has(p) {
		return grant(d, set, RuleActionAll, p)
	}
	if scope == ScopeOwn {
		for _, wider := range []string{ScopeDepartment, ScopeAssigned} {
			if p := Format(r, a, wider); set.Has(p) {
				return grant(d, set, RuleOwnWidened, p)
			}
		}
	}
	if p := r + ":" + a; set.Has(p) {
		return grant(d, set, RuleBareAction, p)
	}

	d.Rule = RuleDenied
	return d
}

// Allowed is Evaluate(...).Granted.
func Allowed(sub *Subject, requested string) bool {
	return Evaluate(sub, requested).Granted
}

func grant(d Decision, set *Set, rule Rule, matched string) Decision {
	d.Granted = true
	d.Rule = rule
	d.Matched = matched
	d.Grant, _ = set.Grant(matched)
	return d
}
