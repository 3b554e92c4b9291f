package entity

import (
	"time"

	"github.com/brooklane/housecare/internal/domain/workflow"
)

// User represents a principal: an account with an immutable identity and a
// set of roles that drive every permission decision
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PrincipalID returns the user's identity for workflow guard checks
func (u *User) PrincipalID() int64 {
	return u.ID
}

// PrincipalRoles returns the user's roles including the implicit base role
func (u *User) PrincipalRoles() []string {
	roles := make([]string, 0, len(u.Roles)+1)
	seen := make(map[string]bool, len(u.Roles)+1)
	for _, r := range append(append([]string{}, u.Roles...), workflow.RoleUser) {
		if !seen[r] {
			roles = append(roles, r)
			seen[r] = true
		}
	}
	return roles
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
