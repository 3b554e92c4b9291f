package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brooklane/housecare/internal/domain/workflow"
)

type principal struct {
	id    int64
	roles []string
}

func (p *principal) PrincipalID() int64       { return p.id }
func (p *principal) PrincipalRoles() []string { return p.roles }

func TestChecker_IsGranted(t *testing.T) {
	checker := NewChecker()

	tests := []struct {
		name    string
		roles   []string
		role    string
		granted bool
	}{
		{
			name:    "direct role",
			roles:   []string{workflow.RoleCleaner},
			role:    workflow.RoleCleaner,
			granted: true,
		},
		{
			name:    "admin implies manager",
			roles:   []string{workflow.RoleAdmin},
			role:    workflow.RoleManager,
			granted: true,
		},
		{
			name:    "manager does not imply admin",
			roles:   []string{workflow.RoleManager},
			role:    workflow.RoleAdmin,
			granted: false,
		},
		{
			name:    "admin does not imply cleaner",
			roles:   []string{workflow.RoleAdmin},
			role:    workflow.RoleCleaner,
			granted: false,
		},
		{
			name:    "base role is always granted",
			roles:   nil,
			role:    workflow.RoleUser,
			granted: true,
		},
		{
			name:    "owner holds only owner",
			roles:   []string{workflow.RoleOwner},
			role:    workflow.RoleManager,
			granted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &principal{id: 1, roles: tt.roles}
			assert.Equal(t, tt.granted, checker.IsGranted(p, tt.role))
		})
	}
}

func TestChecker_NilPrincipal(t *testing.T) {
	checker := NewChecker()
	assert.False(t, checker.IsGranted(nil, workflow.RoleManager))
}
