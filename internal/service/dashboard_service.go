package service

import (
	"context"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
)

// DashboardSummary aggregates per-place request counts for the UI landing
// page
type DashboardSummary struct {
	RequestsByPlace map[string]int64 `json:"requests_by_place"`
	OpenRequests    int64            `json:"open_requests"`
	Completed       int64            `json:"completed"`
}

// DashboardService produces the role-filtered summary view
type DashboardService interface {
	Summary(ctx context.Context, principal workflow.Principal) (*DashboardSummary, error)
}

type dashboardService struct {
	requests RequestStore
	houses   HouseStore
	roles    workflow.RoleChecker
	def      *workflow.Definition
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(requests RequestStore, houses HouseStore, roles workflow.RoleChecker, def *workflow.Definition) DashboardService {
	return &dashboardService{requests: requests, houses: houses, roles: roles, def: def}
}

// Summary returns request counts grouped by workflow place, scoped to what
// the principal may see: everything for admins and managers, assigned work
// for cleaners, own-house requests for owners. Open counts exclude terminal
// places.
func (s *dashboardService) Summary(ctx context.Context, principal workflow.Principal) (*DashboardSummary, error) {
	counts, err := s.countsFor(principal)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{RequestsByPlace: make(map[string]int64, len(counts))}
	for place, count := range counts {
		summary.RequestsByPlace[place.String()] = count
		if place == workflow.PlaceCompleted {
			summary.Completed = count
		}
		if !s.def.IsTerminal(place) {
			summary.OpenRequests += count
		}
	}
	return summary, nil
}

func (s *dashboardService) countsFor(principal workflow.Principal) (map[workflow.Place]int64, error) {
	if s.roles.IsGranted(principal, workflow.RoleManager) {
		return s.requests.CountByPlace()
	}

	if s.roles.IsGranted(principal, workflow.RoleCleaner) {
		assigned, err := s.requests.ListByAssignedCleaner(principal.PrincipalID())
		if err != nil {
			return nil, err
		}
		return countByPlace(assigned), nil
	}

	houses, err := s.houses.ListByOwner(principal.PrincipalID())
	if err != nil {
		return nil, err
	}
	var requests []*entity.ServiceRequest
	for _, house := range houses {
		forHouse, err := s.requests.ListByHouse(house.ID)
		if err != nil {
			return nil, err
		}
		requests = append(requests, forHouse...)
	}
	return countByPlace(requests), nil
}

func countByPlace(requests []*entity.ServiceRequest) map[workflow.Place]int64 {
	counts := make(map[workflow.Place]int64, len(requests))
	for _, r := range requests {
		counts[r.CurrentPlace]++
	}
	return counts
}
