package workflow

// NewServiceRequestDefinition builds the service request workflow.
//
// draft -> scheduled -> approved -> assigned -> in_progress -> review -> completed -> archived
//
// Managers drive scheduling, approval, assignment and completion; cleaners
// pick up work through self_assign and move it through start_work and
// submit_for_review. cancelled and archived have no outgoing transitions.
func NewServiceRequestDefinition() *Definition {
	places := map[Place]PlaceMeta{
		PlaceDraft:      {AllowedRoles: []string{RoleAdmin, RoleManager}},
		PlaceScheduled:  {},
		PlaceApproved:   {},
		PlaceAssigned:   {},
		PlaceInProgress: {},
		PlaceReview:     {AllowedRoles: []string{RoleAdmin, RoleManager}},
		PlaceCompleted:  {},
		PlaceCancelled:  {AllowedRoles: []string{RoleAdmin, RoleManager}},
		PlaceArchived:   {AllowedRoles: []string{RoleAdmin}},
	}

	transitions := []*Transition{
		{
			Name:         TransitionSchedule,
			From:         []Place{PlaceDraft},
			To:           []Place{PlaceScheduled},
			AllowedRoles: []string{RoleAdmin, RoleManager},
		},
		{
			Name:         TransitionApprove,
			From:         []Place{PlaceScheduled},
			To:           []Place{PlaceApproved},
			AllowedRoles: []string{RoleAdmin, RoleManager},
		},
		{
			Name:         TransitionAssign,
			From:         []Place{PlaceDraft, PlaceScheduled, PlaceApproved},
			To:           []Place{PlaceAssigned},
			AllowedRoles: []string{RoleAdmin, RoleManager},
		},
		{
			Name:         TransitionSelfAssign,
			From:         []Place{PlaceScheduled, PlaceApproved},
			To:           []Place{PlaceAssigned},
			AllowedRoles: []string{RoleCleaner},
		},
		{
			Name:         TransitionStartWork,
			From:         []Place{PlaceAssigned},
			To:           []Place{PlaceInProgress},
			AllowedRoles: []string{RoleAdmin, RoleManager, RoleCleaner},
		},
		{
			Name:         TransitionSubmitForReview,
			From:         []Place{PlaceInProgress},
			To:           []Place{PlaceReview},
			AllowedRoles: []string{RoleAdmin, RoleManager, RoleCleaner},
		},
		{
			Name:         TransitionComplete,
			From:         []Place{PlaceReview},
			To:           []Place{PlaceCompleted},
			AllowedRoles: []string{RoleAdmin, RoleManager},
		},
		{
			Name:         TransitionCancel,
			From:         []Place{PlaceDraft, PlaceScheduled, PlaceApproved, PlaceAssigned},
			To:           []Place{PlaceCancelled},
			AllowedRoles: []string{RoleAdmin, RoleManager},
		},
		{
			Name:         TransitionArchive,
			From:         []Place{PlaceCompleted},
			To:           []Place{PlaceArchived},
			AllowedRoles: []string{RoleAdmin},
		},
	}

	def, err := NewDefinition(PlaceDraft, places, transitions)
	if err != nil {
		panic(err)
	}
	return def
}
