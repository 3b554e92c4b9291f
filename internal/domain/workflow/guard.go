package workflow

import "strings"

// Denial reason codes produced by the guard. Rendering to human-readable
// text is a UI concern; the codes double as translation keys.
const (
	ReasonNoPermission         = "no_permission"
	ReasonStartWorkNotAssigned = "start_work_assigned_only"
	ReasonSubmitNotAssigned    = "submit_review_assigned_only"
	ReasonCleanerCannotAssign  = "cleaner_cannot_assign"
	ReasonSelfAssignTaken      = "self_assign_unassigned_only"
)

// Reason is a structured denial reason with display parameters
type Reason struct {
	Code   string            `json:"code"`
	Params map[string]string `json:"params,omitempty"`
}

// Decision is the outcome of a guard evaluation
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Principal is the acting identity, characterized by a set of roles
type Principal interface {
	// PrincipalID returns the immutable identity of the principal
	PrincipalID() int64

	// PrincipalRoles returns the roles held by the principal
	PrincipalRoles() []string
}

// Subject is the entity a workflow manages
type Subject interface {
	// Place returns the subject's current place
	Place() Place

	// SetPlace moves the subject to a new place. Only the engine may call it.
	SetPlace(Place)

	// AssignedTo returns the id of the assigned cleaner, if any
	AssignedTo() (int64, bool)
}

// RoleChecker answers whether a principal holds a role, including any
// role-hierarchy rules configured outside this package
type RoleChecker interface {
	IsGranted(principal Principal, role string) bool
}

// Guard decides whether a transition may be applied for a principal and
// subject. Evaluation must be deterministic and side-effect free.
type Guard interface {
	Evaluate(principal Principal, subject Subject, transition *Transition) Decision
}

// TransitionGuard combines the role metadata check with the
// transition-specific business rules of the service request workflow
type TransitionGuard struct {
	roles RoleChecker
}

// NewTransitionGuard creates a guard backed by the given role checker
func NewTransitionGuard(roles RoleChecker) *TransitionGuard {
	return &TransitionGuard{roles: roles}
}

// Evaluate checks the transition's allowed roles (OR semantics), then the
// business rules for the specific transition
func (g *TransitionGuard) Evaluate(principal Principal, subject Subject, transition *Transition) Decision {
	if len(transition.AllowedRoles) > 0 {
		granted := false
		for _, role := range transition.AllowedRoles {
			if g.roles.IsGranted(principal, role) {
				granted = true
				break
			}
		}
		if !granted {
			return blocked(ReasonNoPermission, map[string]string{
				"roles": strings.Join(transition.AllowedRoles, ", "),
			})
		}
	}

	switch transition.Name {
	case TransitionSelfAssign:
		// Only unassigned work may be picked up. Schedule-conflict checking
		// remains a separate, inert hook until the product rule is confirmed.
		if id, ok := subject.AssignedTo(); ok && id != principal.PrincipalID() {
			return blocked(ReasonSelfAssignTaken, nil)
		}

	case TransitionStartWork:
		if g.roles.IsGranted(principal, RoleCleaner) && !isAssignedTo(subject, principal) {
			return blocked(ReasonStartWorkNotAssigned, nil)
		}

	case TransitionSubmitForReview:
		if g.roles.IsGranted(principal, RoleCleaner) && !isAssignedTo(subject, principal) {
			return blocked(ReasonSubmitNotAssigned, nil)
		}

	case TransitionAssign:
		// A principal holding both CLEANER and MANAGER is a manager who also
		// cleans and may still assign.
		if g.roles.IsGranted(principal, RoleCleaner) && !g.roles.IsGranted(principal, RoleManager) {
			return blocked(ReasonCleanerCannotAssign, nil)
		}
	}

	return Decision{Allowed: true}
}

func isAssignedTo(subject Subject, principal Principal) bool {
	id, ok := subject.AssignedTo()
	return ok && id == principal.PrincipalID()
}

func blocked(code string, params map[string]string) Decision {
	return Decision{Allowed: false, Reason: Reason{Code: code, Params: params}}
}
