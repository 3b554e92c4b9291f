package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/internal/report"
)

// ReportService renders the schedule report for managers
type ReportService interface {
	WriteSchedule(ctx context.Context, principal workflow.Principal, w io.Writer) error
}

type reportService struct {
	requests RequestStore
	houses   HouseStore
	users    UserStore
	history  HistoryStore
	roles    workflow.RoleChecker
	writer   *report.ScheduleWriter
	now      func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	requests RequestStore,
	houses HouseStore,
	users UserStore,
	history HistoryStore,
	roles workflow.RoleChecker,
	writer *report.ScheduleWriter,
) ReportService {
	return &reportService{
		requests: requests,
		houses:   houses,
		users:    users,
		history:  history,
		roles:    roles,
		writer:   writer,
		now:      time.Now,
	}
}

// WriteSchedule writes the full schedule workbook. Manager only.
func (s *reportService) WriteSchedule(ctx context.Context, principal workflow.Principal, w io.Writer) error {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return fmt.Errorf("schedule report: %w", ErrAccessDenied)
	}

	requests, err := s.requests.List()
	if err != nil {
		return err
	}

	rows := make([]report.ScheduleRow, 0, len(requests))
	for _, request := range requests {
		row := report.ScheduleRow{Request: request}

		house, err := s.houses.GetByID(request.HouseID)
		if err != nil {
			return err
		}
		if house != nil {
			row.HouseName = house.Name
		}

		if cleanerID, ok := request.AssignedTo(); ok {
			cleaner, err := s.users.GetByID(cleanerID)
			if err != nil {
				return err
			}
			if cleaner != nil {
				row.CleanerName = cleaner.FullName()
			}
		}

		count, err := s.history.CountByRequestID(request.ID)
		if err != nil {
			return err
		}
		row.HistoryCount = int(count)

		rows = append(rows, row)
	}

	return s.writer.Write(w, rows, s.now())
}
