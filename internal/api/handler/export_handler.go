package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/service"
	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

const (
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler serves timetable downloads.
type ExportHandler struct {
	calendarSvc service.CalendarService
	exportSvc   service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(calendarSvc service.CalendarService, exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{calendarSvc: calendarSvc, exportSvc: exportSvc}
}

// ExportICS downloads the caller's timetable as an iCalendar file.
// GET /api/v1/timetables/export.ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	data, filename, err := h.calendarSvc.ExportICS(c.Request.Context(), username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	attachment(c, filename, contentTypeICS, data)
}

// ExportExcel downloads the occurrences of a date range as a spreadsheet.
// GET /api/v1/timetables/export.xlsx?start=&end=
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var query dto.DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	buf, filename, err := h.exportSvc.ExportExcel(c.Request.Context(), username, query.Start, query.End)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}
