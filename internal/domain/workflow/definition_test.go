package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPrincipal is a minimal Principal for workflow tests
type testPrincipal struct {
	id    int64
	roles []string
}

func (p *testPrincipal) PrincipalID() int64       { return p.id }
func (p *testPrincipal) PrincipalRoles() []string { return p.roles }

// testSubject is a minimal Subject for workflow tests
type testSubject struct {
	place    Place
	assigned *int64
}

func (s *testSubject) Place() Place     { return s.place }
func (s *testSubject) SetPlace(p Place) { s.place = p }
func (s *testSubject) AssignedTo() (int64, bool) {
	if s.assigned == nil {
		return 0, false
	}
	return *s.assigned, true
}

// flatRoles grants exactly the roles a principal holds, no hierarchy
type flatRoles struct{}

func (flatRoles) IsGranted(principal Principal, role string) bool {
	for _, r := range principal.PrincipalRoles() {
		if r == role {
			return true
		}
	}
	return false
}

func TestNewDefinition_Validation(t *testing.T) {
	places := map[Place]PlaceMeta{
		PlaceDraft:     {},
		PlaceScheduled: {},
	}

	tests := []struct {
		name        string
		initial     Place
		transitions []*Transition
		wantErr     string
	}{
		{
			name:    "rejects unknown initial place",
			initial: Place("nowhere"),
			wantErr: "invalid place",
		},
		{
			name:    "rejects undeclared initial place",
			initial: PlaceCompleted,
			wantErr: "not declared",
		},
		{
			name:    "rejects empty transition name",
			initial: PlaceDraft,
			transitions: []*Transition{
				{Name: "", From: []Place{PlaceDraft}, To: []Place{PlaceScheduled}},
			},
			wantErr: "empty name",
		},
		{
			name:    "rejects duplicate transition names",
			initial: PlaceDraft,
			transitions: []*Transition{
				{Name: "go", From: []Place{PlaceDraft}, To: []Place{PlaceScheduled}},
				{Name: "go", From: []Place{PlaceScheduled}, To: []Place{PlaceDraft}},
			},
			wantErr: "duplicate transition",
		},
		{
			name:    "rejects transition without from places",
			initial: PlaceDraft,
			transitions: []*Transition{
				{Name: "go", To: []Place{PlaceScheduled}},
			},
			wantErr: "must declare from and to",
		},
		{
			name:    "rejects transition over undeclared place",
			initial: PlaceDraft,
			transitions: []*Transition{
				{Name: "go", From: []Place{PlaceDraft}, To: []Place{PlaceArchived}},
			},
			wantErr: "invalid place",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(tt.initial, places, tt.transitions)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServiceRequestDefinition(t *testing.T) {
	def := NewServiceRequestDefinition()

	assert.Equal(t, PlaceDraft, def.InitialPlace())
	assert.Len(t, def.Transitions(), 9)
	assert.Len(t, def.Places(), 9)

	t.Run("transition from sets", func(t *testing.T) {
		tests := []struct {
			transition string
			from       Place
			enabled    bool
		}{
			{TransitionSchedule, PlaceDraft, true},
			{TransitionSchedule, PlaceScheduled, false},
			{TransitionAssign, PlaceDraft, true},
			{TransitionAssign, PlaceScheduled, true},
			{TransitionAssign, PlaceApproved, true},
			{TransitionAssign, PlaceAssigned, false},
			{TransitionSelfAssign, PlaceScheduled, true},
			{TransitionSelfAssign, PlaceApproved, true},
			{TransitionSelfAssign, PlaceDraft, false},
			{TransitionStartWork, PlaceAssigned, true},
			{TransitionStartWork, PlaceInProgress, false},
			{TransitionSubmitForReview, PlaceInProgress, true},
			{TransitionComplete, PlaceReview, true},
			{TransitionCancel, PlaceAssigned, true},
			{TransitionCancel, PlaceInProgress, false},
			{TransitionArchive, PlaceCompleted, true},
		}
		for _, tt := range tests {
			tr, ok := def.Transition(tt.transition)
			require.True(t, ok, tt.transition)
			assert.Equal(t, tt.enabled, tr.IsEnabledFrom(tt.from),
				"%s from %s", tt.transition, tt.from)
		}
	})

	t.Run("terminal places", func(t *testing.T) {
		assert.True(t, def.IsTerminal(PlaceCancelled))
		assert.True(t, def.IsTerminal(PlaceArchived))
		assert.False(t, def.IsTerminal(PlaceCompleted))
		assert.False(t, def.IsTerminal(PlaceDraft))
	})

	t.Run("place metadata", func(t *testing.T) {
		meta, ok := def.PlaceMeta(PlaceArchived)
		require.True(t, ok)
		assert.Equal(t, []string{RoleAdmin}, meta.AllowedRoles)

		meta, ok = def.PlaceMeta(PlaceScheduled)
		require.True(t, ok)
		assert.Empty(t, meta.AllowedRoles)
	})

	t.Run("unknown transition lookup", func(t *testing.T) {
		_, ok := def.Transition("teleport")
		assert.False(t, ok)
	})
}
