// Package report renders service request schedules as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ScheduleRow is one line of the schedule report
type ScheduleRow struct {
	Request      *entity.ServiceRequest
	HouseName    string
	CleanerName  string
	HistoryCount int
}

// ScheduleWriter renders the schedule report workbook
type ScheduleWriter struct {
	companyName string
	sheetName   string
	logger      *zap.Logger
}

// NewScheduleWriter creates a schedule report writer
func NewScheduleWriter(companyName, sheetName string, logger *zap.Logger) *ScheduleWriter {
	if sheetName == "" {
		sheetName = "Schedule"
	}
	return &ScheduleWriter{
		companyName: companyName,
		sheetName:   sheetName,
		logger:      logger,
	}
}

var scheduleColumns = []string{
	"ID", "House", "Service Type", "Place", "Priority",
	"Scheduled", "Completed", "Cleaner", "Transitions",
}

// Write renders the rows into an xlsx workbook on w
func (sw *ScheduleWriter) Write(w io.Writer, rows []ScheduleRow, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, sw.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sheet = sw.sheetName

	sw.setCell(f, sheet, "A1", sw.companyName)
	sw.setCell(f, sheet, "A2", "Service schedule generated "+generatedAt.Format("2006-01-02 15:04"))

	headerRow := 4
	for i, col := range scheduleColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		sw.setCell(f, sheet, cell, col)
	}

	for i, row := range rows {
		values := []interface{}{
			row.Request.ID,
			row.HouseName,
			row.Request.ServiceType,
			row.Request.CurrentPlace.String(),
			row.Request.Priority,
			row.Request.ScheduledDate.Format("2006-01-02"),
			formatCompleted(row.Request.CompletedDate),
			row.CleanerName,
			row.HistoryCount,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, headerRow+1+i)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			sw.setCell(f, sheet, cell, value)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	sw.logger.Info("Schedule report generated", zap.Int("rows", len(rows)))
	return nil
}

func (sw *ScheduleWriter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		sw.logger.Warn("Failed to set cell",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func formatCompleted(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
