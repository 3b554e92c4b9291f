package workflow

// Transition names for the service request workflow
const (
	TransitionSchedule        = "schedule"
	TransitionApprove         = "approve"
	TransitionAssign          = "assign"
	TransitionSelfAssign      = "self_assign"
	TransitionStartWork       = "start_work"
	TransitionSubmitForReview = "submit_for_review"
	TransitionComplete        = "complete"
	TransitionCancel          = "cancel"
	TransitionArchive         = "archive"
)

// Transition is a named directed edge between places. From is a set so that
// a single transition can be enabled out of several places; To holds a single
// target in practice but is kept as a slice for merge-style definitions.
type Transition struct {
	Name         string
	From         []Place
	To           []Place
	AllowedRoles []string
}

// IsEnabledFrom returns true if the transition can fire from the given place
func (t *Transition) IsEnabledFrom(place Place) bool {
	for _, p := range t.From {
		if p == place {
			return true
		}
	}
	return false
}

// Target returns the place the transition moves the subject to
func (t *Transition) Target() Place {
	return t.To[0]
}
