package workflow

import (
	"context"
	"fmt"
)

// Engine is the state machine over a workflow definition. It determines
// enabled transitions, applies transitions after guard evaluation, and
// notifies registered listeners in registration order.
//
// Engine holds no subject state and is safe for concurrent reads; callers
// must serialize Apply per subject (the persistence layer's optimistic
// concurrency enforces this across processes).
type Engine struct {
	def   *Definition
	guard Guard

	guardListeners      []GuardListener
	transitionListeners []TransitionListener
	enteredListeners    []EnteredListener
}

// NewEngine creates an engine for the given definition and guard
func NewEngine(def *Definition, guard Guard) *Engine {
	return &Engine{def: def, guard: guard}
}

// Definition returns the workflow definition the engine runs
func (e *Engine) Definition() *Definition {
	return e.def
}

// AddGuardListener registers a listener for guard decisions
func (e *Engine) AddGuardListener(l GuardListener) {
	e.guardListeners = append(e.guardListeners, l)
}

// AddTransitionListener registers a listener for applied transitions
func (e *Engine) AddTransitionListener(l TransitionListener) {
	e.transitionListeners = append(e.transitionListeners, l)
}

// AddEnteredListener registers a listener for entered places
func (e *Engine) AddEnteredListener(l EnteredListener) {
	e.enteredListeners = append(e.enteredListeners, l)
}

// CanApply returns true if the transition is enabled from the subject's
// current place and the guard allows it for the principal. Read-only.
func (e *Engine) CanApply(ctx context.Context, principal Principal, subject Subject, name string) bool {
	transition, ok := e.def.Transition(name)
	if !ok {
		return false
	}
	if !transition.IsEnabledFrom(subject.Place()) {
		return false
	}
	return e.evaluateGuard(ctx, principal, subject, transition).Allowed
}

// EnabledTransitions returns the names of transitions the principal may
// apply to the subject, in definition order. The result is never nil so
// it serializes as an empty JSON array.
func (e *Engine) EnabledTransitions(ctx context.Context, principal Principal, subject Subject) []string {
	names := []string{}
	seen := make(map[string]bool)
	for _, t := range e.def.Transitions() {
		if seen[t.Name] {
			continue
		}
		if e.CanApply(ctx, principal, subject, t.Name) {
			names = append(names, t.Name)
			seen[t.Name] = true
		}
	}
	return names
}

// Apply executes the transition on the subject. It fails with
// ErrInvalidTransition when the current place is not in the transition's
// from set, and with *GuardRejectedError when the guard denies it. On
// success the place is updated and transition then entered listeners fire
// in order; a listener error fails the apply.
func (e *Engine) Apply(ctx context.Context, principal Principal, subject Subject, name string) error {
	transition, ok := e.def.Transition(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransition, name)
	}

	from := subject.Place()
	if !transition.IsEnabledFrom(from) {
		return fmt.Errorf("%w: cannot apply %s from place %s", ErrInvalidTransition, name, from)
	}

	decision := e.evaluateGuard(ctx, principal, subject, transition)
	if !decision.Allowed {
		return &GuardRejectedError{Transition: name, Reason: decision.Reason}
	}

	to := transition.Target()
	subject.SetPlace(to)

	for _, l := range e.transitionListeners {
		if err := l.OnTransitioned(ctx, principal, subject, transition, from, to); err != nil {
			return fmt.Errorf("transition listener for %s: %w", name, err)
		}
	}
	for _, l := range e.enteredListeners {
		if err := l.OnEntered(ctx, principal, subject, transition, to); err != nil {
			return fmt.Errorf("entered listener for %s: %w", name, err)
		}
	}

	return nil
}

func (e *Engine) evaluateGuard(ctx context.Context, principal Principal, subject Subject, transition *Transition) Decision {
	decision := e.guard.Evaluate(principal, subject, transition)
	for _, l := range e.guardListeners {
		l.OnGuard(ctx, principal, subject, transition, decision)
	}
	return decision
}
