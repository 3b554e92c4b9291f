package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brooklane/housecare/internal/domain/workflow"
)

func TestUser_PrincipalRoles(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []string
	}{
		{
			name:  "appends implicit user role",
			roles: []string{workflow.RoleCleaner},
			want:  []string{workflow.RoleCleaner, workflow.RoleUser},
		},
		{
			name:  "deduplicates explicit user role",
			roles: []string{workflow.RoleUser, workflow.RoleManager},
			want:  []string{workflow.RoleUser, workflow.RoleManager},
		},
		{
			name:  "empty roles still yield user",
			roles: nil,
			want:  []string{workflow.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{ID: 1, Roles: tt.roles}
			assert.Equal(t, tt.want, user.PrincipalRoles())
		})
	}
}

func TestUser_FullName(t *testing.T) {
	user := &User{FirstName: "Jane", LastName: "Smith"}
	assert.Equal(t, "Jane Smith", user.FullName())
}
