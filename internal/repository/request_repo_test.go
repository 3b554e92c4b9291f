package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/pkg/database"
)

type repoFixture struct {
	db       *database.DB
	users    *UserRepository
	houses   *HouseRepository
	requests *RequestRepository
	history  *HistoryRepository
	tasks    *TaskRepository

	managerID int64
	cleanerID int64
	houseID   int64
}

func newRepoFixture(t *testing.T) *repoFixture {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.Run(context.Background(), filepath.Join("..", "..", "migrations")))

	f := &repoFixture{
		db:       db,
		users:    NewUserRepository(db.DB, logger),
		houses:   NewHouseRepository(db.DB, logger),
		requests: NewRequestRepository(db.DB, logger),
		history:  NewHistoryRepository(db.DB, logger),
		tasks:    NewTaskRepository(db.DB, logger),
	}

	manager := &entity.User{
		Email: "manager@test.local", PasswordHash: "x",
		Roles: []string{workflow.RoleManager}, FirstName: "Test", LastName: "Manager",
		IsActive: true,
	}
	require.NoError(t, f.users.Create(nil, manager))
	f.managerID = manager.ID

	cleaner := &entity.User{
		Email: "cleaner@test.local", PasswordHash: "x",
		Roles: []string{workflow.RoleCleaner}, FirstName: "Test", LastName: "Cleaner",
		IsActive: true,
	}
	require.NoError(t, f.users.Create(nil, cleaner))
	f.cleanerID = cleaner.ID

	house := &entity.House{
		Name: "Test House", Address: "1 Test St", City: "Testville",
		OwnerID: manager.ID, IsActive: true,
	}
	require.NoError(t, f.houses.Create(nil, house))
	f.houseID = house.ID

	return f
}

func (f *repoFixture) newRequest(t *testing.T, place workflow.Place, assigned *int64) *entity.ServiceRequest {
	t.Helper()
	request := entity.NewServiceRequest(f.houseID, f.managerID, entity.ServiceTypeCleaning,
		time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	request.CurrentPlace = place
	request.AssignedCleanerID = assigned
	require.NoError(t, f.requests.Create(nil, request))
	return request
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	f := newRepoFixture(t)

	created := f.newRequest(t, workflow.PlaceDraft, nil)
	assert.Equal(t, int64(1), created.Version)

	loaded, err := f.requests.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, workflow.PlaceDraft, loaded.CurrentPlace)
	assert.Equal(t, f.houseID, loaded.HouseID)
	assert.Equal(t, f.managerID, loaded.CreatedByID)
	assert.Nil(t, loaded.AssignedCleanerID)
	assert.Nil(t, loaded.CompletedDate)
	assert.Equal(t, int64(1), loaded.Version)
}

func TestRequestRepository_GetMissing(t *testing.T) {
	f := newRepoFixture(t)

	loaded, err := f.requests.GetByID(404)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRequestRepository_OptimisticVersioning(t *testing.T) {
	f := newRepoFixture(t)
	created := f.newRequest(t, workflow.PlaceDraft, nil)

	first, err := f.requests.GetByID(created.ID)
	require.NoError(t, err)
	second, err := f.requests.GetByID(created.ID)
	require.NoError(t, err)

	first.CurrentPlace = workflow.PlaceScheduled
	require.NoError(t, f.requests.Update(nil, first))
	assert.Equal(t, int64(2), first.Version)

	// The second reader still holds version 1; its write must be rejected.
	second.CurrentPlace = workflow.PlaceCancelled
	err = f.requests.Update(nil, second)
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	loaded, err := f.requests.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.PlaceScheduled, loaded.CurrentPlace)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestRequestRepository_Queries(t *testing.T) {
	f := newRepoFixture(t)

	assignedToCleaner := f.newRequest(t, workflow.PlaceAssigned, &f.cleanerID)
	availableScheduled := f.newRequest(t, workflow.PlaceScheduled, nil)
	availableApproved := f.newRequest(t, workflow.PlaceApproved, nil)
	f.newRequest(t, workflow.PlaceDraft, nil)
	f.newRequest(t, workflow.PlaceAssigned, &f.managerID)

	t.Run("list by assigned cleaner", func(t *testing.T) {
		requests, err := f.requests.ListByAssignedCleaner(f.cleanerID)
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, assignedToCleaner.ID, requests[0].ID)
	})

	t.Run("list available for self assignment", func(t *testing.T) {
		requests, err := f.requests.ListAvailableForSelfAssignment()
		require.NoError(t, err)

		ids := make([]int64, 0, len(requests))
		for _, r := range requests {
			ids = append(ids, r.ID)
		}
		assert.ElementsMatch(t, []int64{availableScheduled.ID, availableApproved.ID}, ids)
	})

	t.Run("list by house", func(t *testing.T) {
		requests, err := f.requests.ListByHouse(f.houseID)
		require.NoError(t, err)
		assert.Len(t, requests, 5)
	})

	t.Run("count by place", func(t *testing.T) {
		counts, err := f.requests.CountByPlace()
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[workflow.PlaceAssigned])
		assert.Equal(t, int64(1), counts[workflow.PlaceScheduled])
		assert.Equal(t, int64(1), counts[workflow.PlaceApproved])
		assert.Equal(t, int64(1), counts[workflow.PlaceDraft])
	})

	t.Run("overlapping assignments", func(t *testing.T) {
		requests, err := f.requests.ListOverlappingAssignments(f.cleanerID,
			time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, assignedToCleaner.ID, requests[0].ID)

		requests, err = f.requests.ListOverlappingAssignments(f.cleanerID,
			time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, requests)
	})
}

func TestRequestRepository_CompletedDateRoundtrip(t *testing.T) {
	f := newRepoFixture(t)
	created := f.newRequest(t, workflow.PlaceReview, &f.cleanerID)

	completed := time.Date(2026, 4, 1, 17, 30, 0, 0, time.UTC)
	created.CurrentPlace = workflow.PlaceCompleted
	created.CompletedDate = &completed
	require.NoError(t, f.requests.Update(nil, created))

	loaded, err := f.requests.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.CompletedDate)
	assert.True(t, loaded.CompletedDate.Equal(completed))
	assert.Equal(t, f.cleanerID, *loaded.AssignedCleanerID)
}

func TestHistoryRepository_AppendOnlyTrail(t *testing.T) {
	f := newRepoFixture(t)
	request := f.newRequest(t, workflow.PlaceDraft, nil)

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	steps := []struct {
		from, to   workflow.Place
		transition string
	}{
		{workflow.PlaceDraft, workflow.PlaceScheduled, workflow.TransitionSchedule},
		{workflow.PlaceScheduled, workflow.PlaceAssigned, workflow.TransitionAssign},
		{workflow.PlaceAssigned, workflow.PlaceInProgress, workflow.TransitionStartWork},
	}

	for i, step := range steps {
		err := f.history.Create(nil, &entity.HistoryEntry{
			RequestID:  request.ID,
			FromPlace:  step.from,
			ToPlace:    step.to,
			Transition: step.transition,
			ActorID:    f.managerID,
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	trail, err := f.history.ListByRequestID(request.ID)
	require.NoError(t, err)
	require.Len(t, trail, 3)

	// Insertion order is preserved.
	assert.Equal(t, workflow.TransitionSchedule, trail[0].Transition)
	assert.Equal(t, workflow.TransitionAssign, trail[1].Transition)
	assert.Equal(t, workflow.TransitionStartWork, trail[2].Transition)
	assert.Equal(t, workflow.PlaceDraft, trail[0].FromPlace)
	assert.Equal(t, f.managerID, trail[0].ActorID)

	count, err := f.history.CountByRequestID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUserRepository_RolesRoundtrip(t *testing.T) {
	f := newRepoFixture(t)

	loaded, err := f.users.GetByEmail("manager@test.local")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{workflow.RoleManager}, loaded.Roles)
	assert.Equal(t, "Test Manager", loaded.FullName())

	missing, err := f.users.GetByEmail("ghost@test.local")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTaskRepository_OrderedChecklist(t *testing.T) {
	f := newRepoFixture(t)
	request := f.newRequest(t, workflow.PlaceAssigned, &f.cleanerID)

	for _, task := range []*entity.ServiceTask{
		{RequestID: request.ID, Title: "Vacuum floors", Status: entity.TaskStatusPending, SortOrder: 2},
		{RequestID: request.ID, Title: "Change linens", Status: entity.TaskStatusPending, SortOrder: 1, IsRequired: true},
	} {
		require.NoError(t, f.tasks.Create(nil, task))
	}

	tasks, err := f.tasks.ListByRequestID(request.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Change linens", tasks[0].Title)
	assert.Equal(t, "Vacuum floors", tasks[1].Title)
	assert.True(t, tasks[0].IsRequired)
}
