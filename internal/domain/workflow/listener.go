package workflow

import "context"

// GuardListener observes guard decisions. Invocation is fire-and-forget:
// listeners cannot change or fail the evaluation.
type GuardListener interface {
	OnGuard(ctx context.Context, principal Principal, subject Subject, transition *Transition, decision Decision)
}

// TransitionListener reacts to a successfully applied transition. A non-nil
// error fails the whole apply.
type TransitionListener interface {
	OnTransitioned(ctx context.Context, principal Principal, subject Subject, transition *Transition, from, to Place) error
}

// EnteredListener reacts to the subject entering its new place, after all
// transition listeners have run
type EnteredListener interface {
	OnEntered(ctx context.Context, principal Principal, subject Subject, transition *Transition, place Place) error
}
