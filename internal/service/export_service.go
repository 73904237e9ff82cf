package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ErrExportGenerateFail = errors.New("failed to generate Excel file")

// ExportService renders a timetable as a spreadsheet.
//
// The export is returned as a bytes.Buffer; the handler sets the response
// headers and writes it out.
type ExportService interface {
	// ExportExcel renders every occurrence in [start, end].
	ExportExcel(ctx context.Context, username, start, end string) (*bytes.Buffer, string, error)
}

type exportService struct {
	timetable TimetableService
	logger    *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(timetable TimetableService, logger *zap.Logger) ExportService {
	return &exportService{timetable: timetable, logger: logger}
}

var exportHeaders = []string{"Date", "Day", "Time", "Subject", "Location", "Lecturer", "Type"}

// ═══════════════════════════════════════════════════════════
// ExportExcel
// ═══════════════════════════════════════════════════════════
//
// One sheet, one row per occurrence:
//   Date | Day | Time | Subject | Location | Lecturer | Type
// Row 1 is a title, row 2 the header.

func (s *exportService) ExportExcel(ctx context.Context, username, start, end string) (*bytes.Buffer, string, error) {
	rows, err := s.timetable.ActiveBetween(ctx, username, start, end)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Timetable"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("create sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "F", 24)
	f.SetColWidth(sheetName, "G", "G", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// title
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s timetable %s to %s", username, start, end))
	f.MergeCell(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// header
	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(exportHeaders)-1), 2), headerStyle)

	for i, r := range rows {
		row := i + 3
		date := r.DisplayDate
		kind := "Regular"
		if r.IsSpecialSchedule {
			date = r.SpecialDate
			kind = "Special"
		}
		values := []string{date, r.Day, r.FormattedTimeRange, r.Title, r.Location, r.Lecturer, kind}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write Excel failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timetable_%s_%s_%s.xlsx", username, start, end)
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
