package service

import (
	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
)

// AccessPolicy answers whether a principal may see a service request or a
// workflow place, independent of any transition guard.
type AccessPolicy struct {
	roles  workflow.RoleChecker
	houses HouseStore
}

// NewAccessPolicy creates an access policy
func NewAccessPolicy(roles workflow.RoleChecker, houses HouseStore) *AccessPolicy {
	return &AccessPolicy{roles: roles, houses: houses}
}

// CanAccessRequest returns true if the principal may view the request:
// admins and managers always; cleaners when assigned, or when the request
// is unassigned and open for self-assignment; owners when the request
// targets one of their houses.
func (p *AccessPolicy) CanAccessRequest(principal workflow.Principal, request *entity.ServiceRequest) (bool, error) {
	if p.roles.IsGranted(principal, workflow.RoleAdmin) || p.roles.IsGranted(principal, workflow.RoleManager) {
		return true, nil
	}

	if p.roles.IsGranted(principal, workflow.RoleCleaner) {
		if id, ok := request.AssignedTo(); ok && id == principal.PrincipalID() {
			return true, nil
		}
		_, assigned := request.AssignedTo()
		if !assigned && (request.CurrentPlace == workflow.PlaceScheduled || request.CurrentPlace == workflow.PlaceApproved) {
			return true, nil
		}
	}

	if p.roles.IsGranted(principal, workflow.RoleOwner) {
		house, err := p.houses.GetByID(request.HouseID)
		if err != nil {
			return false, err
		}
		if house != nil && house.OwnerID == principal.PrincipalID() {
			return true, nil
		}
	}

	return false, nil
}

// CanAccessPlace returns true if the principal may view subjects in the
// place, per the place's allowed_roles metadata (empty means unrestricted)
func (p *AccessPolicy) CanAccessPlace(def *workflow.Definition, principal workflow.Principal, place workflow.Place) bool {
	meta, ok := def.PlaceMeta(place)
	if !ok {
		return false
	}
	if len(meta.AllowedRoles) == 0 {
		return true
	}
	for _, role := range meta.AllowedRoles {
		if p.roles.IsGranted(principal, role) {
			return true
		}
	}
	return false
}
