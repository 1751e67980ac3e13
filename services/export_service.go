package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Team Progress"

var exportHeader = []interface{}{
	"Name", "Email", "Role", "Department", "Start date", "Completed", "Total", "Progress (%)", "Status",
}

type ExportService struct {
	progress *ProgressService
}

func NewExportService(progress *ProgressService) *ExportService {
	return &ExportService{progress: progress}
}

// ExportTeamProgress ghi workbook .xlsx, mỗi nhân viên một dòng.
func (s *ExportService) ExportTeamProgress(ctx context.Context, w io.Writer) error {
	members, err := s.progress.ListTeamMembers(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeader))
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, m := range members {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			m.Name, m.Email, m.Role, m.Department, m.StartDate.Format("2006-01-02"),
			m.CompletedTopics, m.TotalTopics, m.Progress, m.Status,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "B", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "C", lastCol, 14); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
