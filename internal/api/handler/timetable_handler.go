package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/service"
	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

const (
	defaultUpcomingMinutes = 30
	maxUpcomingMinutes     = 24 * 60
)

// TimetableHandler serves the schedule entry endpoints.
type TimetableHandler struct {
	svc      service.TimetableService
	calendar service.CalendarService
}

// NewTimetableHandler creates a TimetableHandler.
func NewTimetableHandler(svc service.TimetableService, calendar service.CalendarService) *TimetableHandler {
	return &TimetableHandler{svc: svc, calendar: calendar}
}

// ── CRUD ──

// Create adds a schedule entry.
// POST /api/v1/timetables
func (h *TimetableHandler) Create(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.CreateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), &req, username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// List returns the caller's entries.
// GET /api/v1/timetables?subject=&location=&lecturer=&type=
func (h *TimetableHandler) List(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var query dto.ScheduleEntryListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.List(c.Request.Context(), username, &query)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetByID returns one entry.
// GET /api/v1/timetables/:id
func (h *TimetableHandler) GetByID(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Update applies a partial update.
// PUT /api/v1/timetables/:id
func (h *TimetableHandler) Update(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.UpdateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req, username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete removes an entry.
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), username); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── Queries ──

// ListByDay returns regular entries on a weekday.
// GET /api/v1/timetables/day/:day
func (h *TimetableHandler) ListByDay(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.ListByDay(c.Request.Context(), username, c.Param("day"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListSpecial returns special entries, optionally only those not yet past.
// GET /api/v1/timetables/special?upcoming=true
func (h *TimetableHandler) ListSpecial(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	upcoming := false
	if v := c.Query("upcoming"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, 10001, "upcoming must be a boolean")
			return
		}
		upcoming = b
	}

	resp, err := h.svc.ListSpecial(c.Request.Context(), username, upcoming)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// ActiveOn returns the entries in effect on a date.
// GET /api/v1/timetables/date/:date
func (h *TimetableHandler) ActiveOn(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.ActiveOn(c.Request.Context(), username, c.Param("date"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// ActiveBetween returns the occurrences in an inclusive date range.
// GET /api/v1/timetables/range?start=&end=
func (h *TimetableHandler) ActiveBetween(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var query dto.DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.ActiveBetween(c.Request.Context(), username, query.Start, query.End)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Today returns today's entries.
// GET /api/v1/timetables/today
func (h *TimetableHandler) Today(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.Today(c.Request.Context(), username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Week returns today and the seven days after it.
// GET /api/v1/timetables/week
func (h *TimetableHandler) Week(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.Week(c.Request.Context(), username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// HasClassOn reports whether any entry is active on a date.
// GET /api/v1/timetables/has-class/:date
func (h *TimetableHandler) HasClassOn(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	date := c.Param("date")
	has, err := h.svc.HasClassOn(c.Request.Context(), username, date)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, dto.HasClassResponse{Date: date, HasClass: has})
}

// Upcoming returns today's entries starting within the next minutes.
// GET /api/v1/timetables/upcoming?minutes=30
func (h *TimetableHandler) Upcoming(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	minutes := defaultUpcomingMinutes
	if v := c.Query("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxUpcomingMinutes {
			response.BadRequest(c, 10001, "minutes must be between 1 and 1440")
			return
		}
		minutes = n
	}

	resp, err := h.svc.Upcoming(c.Request.Context(), username, time.Duration(minutes)*time.Minute)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// ── Import ──

// ImportICS imports an uploaded ICS calendar.
// POST /api/v1/timetables/import (multipart/form-data, field="file")
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "an ICS file must be uploaded in the file field")
		return
	}
	defer file.Close()

	resp, err := h.calendar.ImportICS(c.Request.Context(), file, username)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// handleTimetableError maps service errors to the response envelope.
func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingSubject):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, err.Error(), "MissingSubject")
	case errors.Is(err, service.ErrMissingUsername):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20002, err.Error(), "MissingUsername")
	case errors.Is(err, service.ErrMissingDay):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20003, err.Error(), "MissingDay")
	case errors.Is(err, service.ErrMissingTime):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20004, err.Error(), "MissingTime")
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrDateRangeTooLong):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20005, err.Error(), "InvalidDate")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20006, err.Error(), "InvalidTimeRange")
	case errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrInvalidTime),
		errors.Is(err, service.ErrInvalidNotificationPreference),
		errors.Is(err, service.ErrFieldTooLong):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20007, err.Error(), "InvalidField")
	case errors.Is(err, service.ErrDuplicateSchedule):
		response.ErrorWithDetails(c, http.StatusConflict, 20008, err.Error(), "DuplicateSchedule")
	case errors.Is(err, service.ErrScheduleEntryNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 20009, err.Error(), "NotFound")
	case errors.Is(err, service.ErrInvalidCalendar):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20010, err.Error(), "InvalidCalendar")
	case errors.Is(err, service.ErrForeignOwner):
		response.ErrorWithDetails(c, http.StatusForbidden, 20011, err.Error(), "ForeignOwner")
	default:
		response.InternalError(c)
	}
}
