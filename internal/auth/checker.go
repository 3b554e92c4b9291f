// Package auth provides the role authorization oracle consulted by the
// workflow guard layer.
package auth

import "github.com/brooklane/housecare/internal/domain/workflow"

// roleHierarchy maps a role to the roles it implies. ADMIN is a superset of
// MANAGER throughout the application; every role implies the base role.
var roleHierarchy = map[string][]string{
	workflow.RoleAdmin: {workflow.RoleManager},
}

// Checker answers "does this principal hold role R", expanding the fixed
// role hierarchy. It is a pure function of the principal's role set.
type Checker struct{}

// NewChecker creates a role checker
func NewChecker() *Checker {
	return &Checker{}
}

// IsGranted returns true if the principal holds the role directly or
// through the hierarchy
func (c *Checker) IsGranted(principal workflow.Principal, role string) bool {
	if principal == nil {
		return false
	}
	if role == workflow.RoleUser {
		return true
	}
	seen := make(map[string]bool)
	queue := append([]string{}, principal.PrincipalRoles()...)
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if seen[r] {
			continue
		}
		seen[r] = true
		if r == role {
			return true
		}
		queue = append(queue, roleHierarchy[r]...)
	}
	return false
}
