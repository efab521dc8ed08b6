package flows

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ispops/erpauth"
)

// ErrBusy is returned when a submission arrives while another one on the
// same flow is still running.
var ErrBusy = errors.New("a submission is already in progress")

// Step is implemented by every flow's step enum.
type Step interface {
	~uint8
	fmt.Stringer
}

// machine is the state shared by all flows.
type machine[S Step] struct {
	id       string
	initial  S
	terminal S
	forward  map[S][]S
	back     map[S]S

	busy atomic.Bool

	mu         sync.Mutex
	step       S
	err        error
	completed  bool
	onComplete func()
}

func (m *machine[S]) init(initial, terminal S, forward map[S][]S, back map[S]S) {
	m.id = uuid.NewString()
	m.initial = initial
	m.terminal = terminal
	m.forward = forward
	m.back = back
	m.step = initial
}

// ID identifies the flow instance in logs and audit trails.
func (m *machine[S]) ID() string {
	return m.id
}

// Step returns the current step.
func (m *machine[S]) Step() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Err returns the most recent error. It is cleared by the next submission.
func (m *machine[S]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Busy reports whether a submission is running.
func (m *machine[S]) Busy() bool {
	return m.busy.Load()
}

// Done reports whether the terminal step was reached.
func (m *machine[S]) Done() bool {
	return m.Step() == m.terminal
}

// OnComplete registers fn to run once when the flow reaches its terminal
// step. Reset re-arms it.
func (m *machine[S]) OnComplete(fn func()) {
	m.mu.Lock()
	m.onComplete = fn
	m.mu.Unlock()
}

// Back returns to the previous step and clears the error. It reports false
// when the current step has no way back or a submission is running.
func (m *machine[S]) Back() bool {
	if m.busy.Load() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.back[m.step]
	if !ok {
		return false
	}
	m.step = prev
	m.err = nil
	return true
}

// reset returns to the initial step. The caller clears its own form data.
func (m *machine[S]) reset() {
	m.mu.Lock()
	m.step = m.initial
	m.err = nil
	m.completed = false
	m.mu.Unlock()
}

// run executes one submission that is legal only at step at. fn returns the
// next step; on error the flow stays put unless fn names a legal target.
func (m *machine[S]) run(at S, fn func() (S, error)) error {
	if !m.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.busy.Store(false)

	m.mu.Lock()
	if m.step != at {
		err := fmt.Errorf("%w: expected step %s, flow is at %s", erpauth.ErrInvalidState, at, m.step)
		m.err = err
		m.mu.Unlock()
		return err
	}
	m.err = nil
	m.mu.Unlock()

	next, err := fn()

	m.mu.Lock()
	if next != at && m.legal(at, next) {
		m.step = next
	}
	if err != nil {
		m.err = err
		m.mu.Unlock()
		return err
	}
	if next != at && m.step != next {
		err = fmt.Errorf("%w: %s cannot follow %s", erpauth.ErrInvalidState, next, at)
		m.err = err
		m.mu.Unlock()
		return err
	}

	var complete func()
	if m.step == m.terminal && !m.completed {
		m.completed = true
		complete = m.onComplete
	}
	m.mu.Unlock()

	if complete != nil {
		complete()
	}
	return nil
}

func (m *machine[S]) legal(from, to S) bool {
	return slices.Contains(m.forward[from], to)
}
