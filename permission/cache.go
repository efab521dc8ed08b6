package permission

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoised decisions per subject.
const DefaultCacheSize = 512

// Evaluator memoises decisions for one immutable Subject. Build a new
// Evaluator whenever the subject changes.
type Evaluator struct {
	subject *Subject
	cache   *lru.Cache[string, Decision]
}

// NewEvaluator wraps sub. A size <= 0 disables memoisation.
func NewEvaluator(sub *Subject, size int) *Evaluator {
	e := &Evaluator{subject: sub}
	if size > 0 {
		// lru.New only fails for non-positive sizes.
		e.cache, _ = lru.New[string, Decision](size)
	}
	return e
}

// Subject returns the wrapped subject.
func (e *Evaluator) Subject() *Subject {
	if e == nil {
		return nil
	}
	return e.subject
}

// Evaluate returns the memoised decision for requested.
func (e *Evaluator) Evaluate(requested string) Decision {
	if e == nil {
		return Evaluate(nil, requested)
	}
	if e.cache != nil {
		if d, ok := e.cache.Get(requested); ok {
			return d
		}
	}
	d := Evaluate(e.subject, requested)
	if e.cache != nil {
		e.cache.Add(requested, d)
	}
	return d
}

// Allowed reports whether requested is granted.
func (e *Evaluator) Allowed(requested string) bool {
	return e.Evaluate(requested).Granted
}

// Any reports whether at least one of perms is granted. Empty input is false.
func (e *Evaluator) Any(perms ...string) bool {
	for _, p := range perms {
		if e.Allowed(p) {
			return true
		}
	}
	return false
}

// All reports whether every one of perms is granted. Empty input is true.
func (e *Evaluator) All(perms ...string) bool {
	for _, p := range perms {
		if !e.Allowed(p) {
			return false
		}
	}
	return true
}

// Cached returns the number of memoised decisions.
func (e *Evaluator) Cached() int {
	if e == nil || e.cache == nil {
		return 0
	}
	return e.cache.Len()
}
