package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brooklane/housecare/internal/auth"
	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/internal/repository"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// fakeRequestStore keeps requests in memory and hands out copies, like a
// row scan would
type fakeRequestStore struct {
	requests  map[int64]*entity.ServiceRequest
	nextID    int64
	updateErr error
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[int64]*entity.ServiceRequest), nextID: 1}
}

func (s *fakeRequestStore) put(r *entity.ServiceRequest) *entity.ServiceRequest {
	if r.ID == 0 {
		r.ID = s.nextID
		s.nextID++
	}
	if r.Version == 0 {
		r.Version = 1
	}
	copied := *r
	s.requests[r.ID] = &copied
	return r
}

func (s *fakeRequestStore) Create(tx *sql.Tx, r *entity.ServiceRequest) error {
	s.put(r)
	return nil
}

func (s *fakeRequestStore) GetByID(id int64) (*entity.ServiceRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	copied.History = nil
	return &copied, nil
}

func (s *fakeRequestStore) List() ([]*entity.ServiceRequest, error) {
	var out []*entity.ServiceRequest
	for id := int64(1); id < s.nextID; id++ {
		if r, ok := s.requests[id]; ok {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeRequestStore) ListByAssignedCleaner(cleanerID int64) ([]*entity.ServiceRequest, error) {
	all, _ := s.List()
	var out []*entity.ServiceRequest
	for _, r := range all {
		if id, ok := r.AssignedTo(); ok && id == cleanerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeRequestStore) ListAvailableForSelfAssignment() ([]*entity.ServiceRequest, error) {
	all, _ := s.List()
	var out []*entity.ServiceRequest
	for _, r := range all {
		_, assigned := r.AssignedTo()
		if !assigned && (r.CurrentPlace == workflow.PlaceScheduled || r.CurrentPlace == workflow.PlaceApproved) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeRequestStore) ListByHouse(houseID int64) ([]*entity.ServiceRequest, error) {
	all, _ := s.List()
	var out []*entity.ServiceRequest
	for _, r := range all {
		if r.HouseID == houseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeRequestStore) ListOverlappingAssignments(cleanerID int64, date time.Time) ([]*entity.ServiceRequest, error) {
	return nil, nil
}

func (s *fakeRequestStore) Update(tx *sql.Tx, r *entity.ServiceRequest) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	stored, ok := s.requests[r.ID]
	if !ok || stored.Version != r.Version {
		return repository.ErrConcurrencyConflict
	}
	r.Version++
	copied := *r
	copied.History = nil
	s.requests[r.ID] = &copied
	return nil
}

func (s *fakeRequestStore) Delete(tx *sql.Tx, id int64) error {
	delete(s.requests, id)
	return nil
}

func (s *fakeRequestStore) CountByPlace() (map[workflow.Place]int64, error) {
	counts := make(map[workflow.Place]int64)
	for _, r := range s.requests {
		counts[r.CurrentPlace]++
	}
	return counts, nil
}

type fakeHistoryStore struct {
	entries   []entity.HistoryEntry
	createErr error
}

func (s *fakeHistoryStore) Create(tx *sql.Tx, entry *entity.HistoryEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeHistoryStore) ListByRequestID(requestID int64) ([]entity.HistoryEntry, error) {
	var out []entity.HistoryEntry
	for _, e := range s.entries {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeHistoryStore) CountByRequestID(requestID int64) (int64, error) {
	entries, _ := s.ListByRequestID(requestID)
	return int64(len(entries)), nil
}

type fakeHouseStore struct {
	houses map[int64]*entity.House
}

func (s *fakeHouseStore) Create(tx *sql.Tx, h *entity.House) error { s.houses[h.ID] = h; return nil }
func (s *fakeHouseStore) GetByID(id int64) (*entity.House, error)  { return s.houses[id], nil }
func (s *fakeHouseStore) List() ([]*entity.House, error) {
	var out []*entity.House
	for _, h := range s.houses {
		out = append(out, h)
	}
	return out, nil
}
func (s *fakeHouseStore) ListByOwner(ownerID int64) ([]*entity.House, error) {
	var out []*entity.House
	for _, h := range s.houses {
		if h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	return out, nil
}
func (s *fakeHouseStore) Update(tx *sql.Tx, h *entity.House) error { s.houses[h.ID] = h; return nil }
func (s *fakeHouseStore) Delete(tx *sql.Tx, id int64) error        { delete(s.houses, id); return nil }

type fakeTaskStore struct {
	tasks []*entity.ServiceTask
}

func (s *fakeTaskStore) Create(tx *sql.Tx, t *entity.ServiceTask) error {
	t.ID = int64(len(s.tasks) + 1)
	s.tasks = append(s.tasks, t)
	return nil
}
func (s *fakeTaskStore) GetByID(id int64) (*entity.ServiceTask, error) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}
func (s *fakeTaskStore) ListByRequestID(requestID int64) ([]*entity.ServiceTask, error) {
	var out []*entity.ServiceTask
	for _, t := range s.tasks {
		if t.RequestID == requestID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *fakeTaskStore) Update(tx *sql.Tx, t *entity.ServiceTask) error { return nil }
func (s *fakeTaskStore) Delete(tx *sql.Tx, id int64) error              { return nil }

// fakeTx snapshots the request store before fn and restores it when fn
// fails, mimicking transaction rollback
type fakeTx struct {
	requests *fakeRequestStore
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	snapshot := make(map[int64]*entity.ServiceRequest, len(f.requests.requests))
	for id, r := range f.requests.requests {
		copied := *r
		snapshot[id] = &copied
	}
	if err := fn(nil); err != nil {
		f.requests.requests = snapshot
		return err
	}
	return nil
}

type serviceFixture struct {
	requests *fakeRequestStore
	history  *fakeHistoryStore
	houses   *fakeHouseStore
	tasks    *fakeTaskStore
	service  RequestService

	admin   *entity.User
	manager *entity.User
	cleaner *entity.User
	other   *entity.User
	owner   *entity.User
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	requests := newFakeRequestStore()
	history := &fakeHistoryStore{}
	houses := &fakeHouseStore{houses: make(map[int64]*entity.House)}
	tasks := &fakeTaskStore{}

	roles := auth.NewChecker()
	engine := workflow.NewEngine(workflow.NewServiceRequestDefinition(), workflow.NewTransitionGuard(roles))
	RegisterSubscribers(engine, zap.NewNop(), func() time.Time { return fixedNow })

	access := NewAccessPolicy(roles, houses)
	svc := NewRequestService(&fakeTx{requests: requests}, requests, history, tasks, engine, roles, access, zap.NewNop())

	return &serviceFixture{
		requests: requests,
		history:  history,
		houses:   houses,
		tasks:    tasks,
		service:  svc,
		admin:    &entity.User{ID: 1, Roles: []string{workflow.RoleAdmin}, IsActive: true},
		manager:  &entity.User{ID: 2, Roles: []string{workflow.RoleManager}, IsActive: true},
		cleaner:  &entity.User{ID: 7, Roles: []string{workflow.RoleCleaner}, IsActive: true},
		other:    &entity.User{ID: 8, Roles: []string{workflow.RoleCleaner}, IsActive: true},
		owner:    &entity.User{ID: 5, Roles: []string{workflow.RoleOwner}, IsActive: true},
	}
}

func (f *serviceFixture) seedRequest(place workflow.Place, assigned *int64) *entity.ServiceRequest {
	r := entity.NewServiceRequest(10, f.manager.ID, entity.ServiceTypeCleaning, fixedNow.AddDate(0, 0, 3))
	r.CurrentPlace = place
	r.AssignedCleanerID = assigned
	return f.requests.put(r)
}

func TestRequestService_Create(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	t.Run("manager creates a draft request", func(t *testing.T) {
		request, err := f.service.Create(ctx, f.manager, CreateRequestInput{
			HouseID:       10,
			ServiceType:   entity.ServiceTypeCleaning,
			ScheduledDate: fixedNow.AddDate(0, 0, 5),
		})
		require.NoError(t, err)
		assert.Equal(t, workflow.PlaceDraft, request.CurrentPlace)
		assert.Equal(t, f.manager.ID, request.CreatedByID)
		assert.Equal(t, entity.PriorityNormal, request.Priority)
	})

	t.Run("cleaner may not create", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.cleaner, CreateRequestInput{HouseID: 10})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestRequestService_ApplyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("schedule records exactly one history entry", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceDraft, nil)

		detail, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionSchedule, TransitionOptions{})
		require.NoError(t, err)

		assert.Equal(t, workflow.PlaceScheduled, detail.Request.CurrentPlace)
		require.Len(t, f.history.entries, 1)

		entry := f.history.entries[0]
		assert.Equal(t, seeded.ID, entry.RequestID)
		assert.Equal(t, workflow.PlaceDraft, entry.FromPlace)
		assert.Equal(t, workflow.PlaceScheduled, entry.ToPlace)
		assert.Equal(t, workflow.TransitionSchedule, entry.Transition)
		assert.Equal(t, f.manager.ID, entry.ActorID)
		assert.Equal(t, fixedNow, entry.Timestamp)

		// The detail carries the reloaded trail, not pending entries.
		require.Len(t, detail.History, 1)
		assert.Nil(t, detail.Request.History)
	})

	t.Run("consecutive transitions append one entry each", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceDraft, nil)

		_, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionSchedule, TransitionOptions{})
		require.NoError(t, err)
		_, err = f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionApprove, TransitionOptions{})
		require.NoError(t, err)

		require.Len(t, f.history.entries, 2)
		assert.Equal(t, workflow.TransitionSchedule, f.history.entries[0].Transition)
		assert.Equal(t, workflow.TransitionApprove, f.history.entries[1].Transition)
	})

	t.Run("complete stamps the completion date once", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceReview, ptrID(7))

		detail, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionComplete, TransitionOptions{})
		require.NoError(t, err)
		require.NotNil(t, detail.Request.CompletedDate)
		assert.Equal(t, fixedNow, *detail.Request.CompletedDate)

		// Archiving later leaves the stamp untouched.
		detail, err = f.service.ApplyTransition(ctx, f.admin, seeded.ID, workflow.TransitionArchive, TransitionOptions{})
		require.NoError(t, err)
		assert.Equal(t, fixedNow, *detail.Request.CompletedDate)
	})

	t.Run("self assign sets the cleaner before the guard runs", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceScheduled, nil)

		detail, err := f.service.ApplyTransition(ctx, f.cleaner, seeded.ID, workflow.TransitionSelfAssign, TransitionOptions{})
		require.NoError(t, err)

		assert.Equal(t, workflow.PlaceAssigned, detail.Request.CurrentPlace)
		require.NotNil(t, detail.Request.AssignedCleanerID)
		assert.Equal(t, f.cleaner.ID, *detail.Request.AssignedCleanerID)
	})

	t.Run("cleaner cannot self assign work already taken", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceScheduled, ptrID(f.cleaner.ID))

		_, err := f.service.ApplyTransition(ctx, f.other, seeded.ID, workflow.TransitionSelfAssign, TransitionOptions{})

		var rejected *workflow.GuardRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, workflow.ReasonSelfAssignTaken, rejected.Reason.Code)

		// The original assignment survives and nothing is persisted.
		stored, _ := f.requests.GetByID(seeded.ID)
		assert.Equal(t, workflow.PlaceScheduled, stored.CurrentPlace)
		assert.Equal(t, f.cleaner.ID, *stored.AssignedCleanerID)
		assert.Empty(t, f.history.entries)
	})

	t.Run("manager assigns a named cleaner", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceScheduled, nil)

		detail, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionAssign, TransitionOptions{
			AssignCleanerID: ptrID(7),
		})
		require.NoError(t, err)
		assert.Equal(t, workflow.PlaceAssigned, detail.Request.CurrentPlace)
		assert.Equal(t, int64(7), *detail.Request.AssignedCleanerID)
	})

	t.Run("cleaner cannot submit someone else's work", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceInProgress, ptrID(7))

		_, err := f.service.ApplyTransition(ctx, f.other, seeded.ID, workflow.TransitionSubmitForReview, TransitionOptions{})

		var rejected *workflow.GuardRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, workflow.ReasonSubmitNotAssigned, rejected.Reason.Code)

		// Nothing persisted.
		stored, _ := f.requests.GetByID(seeded.ID)
		assert.Equal(t, workflow.PlaceInProgress, stored.CurrentPlace)
		assert.Empty(t, f.history.entries)
	})

	t.Run("transition not enabled from current place", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceDraft, nil)

		_, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionComplete, TransitionOptions{})
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})

	t.Run("audit persistence failure rolls back the place change", func(t *testing.T) {
		f := newServiceFixture(t)
		f.history.createErr = sql.ErrConnDone
		seeded := f.seedRequest(workflow.PlaceDraft, nil)

		_, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionSchedule, TransitionOptions{})
		require.ErrorIs(t, err, ErrAuditPersist)

		stored, _ := f.requests.GetByID(seeded.ID)
		assert.Equal(t, workflow.PlaceDraft, stored.CurrentPlace)
		assert.Empty(t, f.history.entries)
	})

	t.Run("stale version surfaces a concurrency conflict", func(t *testing.T) {
		f := newServiceFixture(t)
		seeded := f.seedRequest(workflow.PlaceDraft, nil)
		f.requests.updateErr = repository.ErrConcurrencyConflict

		_, err := f.service.ApplyTransition(ctx, f.manager, seeded.ID, workflow.TransitionSchedule, TransitionOptions{})
		assert.ErrorIs(t, err, repository.ErrConcurrencyConflict)

		stored, _ := f.requests.GetByID(seeded.ID)
		assert.Equal(t, workflow.PlaceDraft, stored.CurrentPlace)
	})

	t.Run("owner cannot drive the workflow", func(t *testing.T) {
		f := newServiceFixture(t)
		f.houses.houses[10] = &entity.House{ID: 10, OwnerID: 99}
		seeded := f.seedRequest(workflow.PlaceDraft, nil)

		_, err := f.service.ApplyTransition(ctx, f.owner, seeded.ID, workflow.TransitionSchedule, TransitionOptions{})

		var rejected *workflow.GuardRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, workflow.ReasonNoPermission, rejected.Reason.Code)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.ApplyTransition(ctx, f.manager, 404, workflow.TransitionSchedule, TransitionOptions{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRequestService_List(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	f.houses.houses[10] = &entity.House{ID: 10, OwnerID: f.owner.ID}
	f.houses.houses[20] = &entity.House{ID: 20, OwnerID: 99}

	mine := f.seedRequest(workflow.PlaceAssigned, ptrID(f.cleaner.ID))
	available := f.seedRequest(workflow.PlaceScheduled, nil)
	othersWork := f.seedRequest(workflow.PlaceAssigned, ptrID(f.other.ID))
	drafted := f.seedRequest(workflow.PlaceDraft, nil)
	foreign := entity.NewServiceRequest(20, f.manager.ID, entity.ServiceTypeCleaning, fixedNow)
	foreign.CurrentPlace = workflow.PlaceDraft
	f.requests.put(foreign)

	t.Run("manager sees everything", func(t *testing.T) {
		requests, err := f.service.List(ctx, f.manager)
		require.NoError(t, err)
		assert.Len(t, requests, 5)
	})

	t.Run("cleaner sees assigned and available work", func(t *testing.T) {
		requests, err := f.service.List(ctx, f.cleaner)
		require.NoError(t, err)

		ids := make([]int64, 0, len(requests))
		for _, r := range requests {
			ids = append(ids, r.ID)
		}
		assert.ElementsMatch(t, []int64{mine.ID, available.ID}, ids)
		assert.NotContains(t, ids, othersWork.ID)
	})

	t.Run("owner sees own houses only, drafts hidden", func(t *testing.T) {
		requests, err := f.service.List(ctx, f.owner)
		require.NoError(t, err)

		ids := make([]int64, 0, len(requests))
		for _, r := range requests {
			assert.Equal(t, int64(10), r.HouseID)
			ids = append(ids, r.ID)
		}
		assert.Len(t, requests, 3)
		assert.NotContains(t, ids, drafted.ID)
	})
}

func TestRequestService_Get(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	seeded := f.seedRequest(workflow.PlaceScheduled, nil)

	detail, err := f.service.Get(ctx, f.manager, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, detail.Request.ID)
	assert.ElementsMatch(t, []string{
		workflow.TransitionApprove,
		workflow.TransitionAssign,
		workflow.TransitionCancel,
	}, detail.EnabledTransitions)

	t.Run("restricted place hides a request from its owner", func(t *testing.T) {
		f := newServiceFixture(t)
		f.houses.houses[10] = &entity.House{ID: 10, OwnerID: f.owner.ID}
		draft := f.seedRequest(workflow.PlaceDraft, nil)

		_, err := f.service.Get(ctx, f.owner, draft.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestRequestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	seeded := f.seedRequest(workflow.PlaceDraft, nil)

	t.Run("manager may not delete", func(t *testing.T) {
		err := f.service.Delete(ctx, f.manager, seeded.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("admin deletes", func(t *testing.T) {
		err := f.service.Delete(ctx, f.admin, seeded.ID)
		require.NoError(t, err)

		stored, err := f.requests.GetByID(seeded.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func ptrID(id int64) *int64 { return &id }
