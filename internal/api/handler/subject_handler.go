package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/service"
	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

// SubjectHandler serves the subject catalog endpoints.
type SubjectHandler struct {
	svc service.SubjectService
}

// NewSubjectHandler creates a SubjectHandler.
func NewSubjectHandler(svc service.SubjectService) *SubjectHandler {
	return &SubjectHandler{svc: svc}
}

// Create adds a subject.
// POST /api/v1/subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), &req, username)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.Created(c, resp)
}

// List returns the caller's catalog, or the subject with ?code=.
// GET /api/v1/subjects?code=
func (h *SubjectHandler) List(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	if code := c.Query("code"); code != "" {
		resp, err := h.svc.GetByCode(c.Request.Context(), code, username)
		if err != nil {
			handleAcademicError(c, err)
			return
		}
		response.OK(c, resp)
		return
	}

	resp, err := h.svc.List(c.Request.Context(), username)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetByID returns one subject.
// GET /api/v1/subjects/:id
func (h *SubjectHandler) GetByID(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}

// Update applies a partial update.
// PUT /api/v1/subjects/:id
func (h *SubjectHandler) Update(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req, username)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete removes a subject and its marks.
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) Delete(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), username); err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleAcademicError maps subject, attendance and mark errors; shared
// validation errors fall through to handleTimetableError.
func handleAcademicError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 21001, err.Error(), "SubjectNotFound")
	case errors.Is(err, service.ErrDuplicateSubject):
		response.ErrorWithDetails(c, http.StatusConflict, 21002, err.Error(), "DuplicateSubject")
	case errors.Is(err, service.ErrMissingSubjectName):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21003, err.Error(), "MissingSubjectName")
	case errors.Is(err, service.ErrInvalidMarks):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21004, err.Error(), "InvalidMarks")
	case errors.Is(err, service.ErrInvalidHours),
		errors.Is(err, service.ErrInvalidPercent):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21005, err.Error(), "InvalidAttendanceSetting")
	case errors.Is(err, service.ErrAttendanceNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 22001, err.Error(), "AttendanceNotFound")
	case errors.Is(err, service.ErrInvalidAttendedHours):
		response.ErrorWithDetails(c, http.StatusBadRequest, 22002, err.Error(), "InvalidAttendedHours")
	case errors.Is(err, service.ErrMarkNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 23001, err.Error(), "MarkNotFound")
	case errors.Is(err, service.ErrMissingAssessmentType):
		response.ErrorWithDetails(c, http.StatusBadRequest, 23002, err.Error(), "MissingAssessmentType")
	default:
		handleTimetableError(c, err)
	}
}
