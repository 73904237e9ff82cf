package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/service"
	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

// AttendanceHandler serves the attendance endpoints.
type AttendanceHandler struct {
	svc service.AttendanceService
}

// NewAttendanceHandler creates an AttendanceHandler.
func NewAttendanceHandler(svc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Create records an attended session.
// POST /api/v1/attendance
func (h *AttendanceHandler) Create(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.CreateAttendanceRequest
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

// List returns the caller's records.
// GET /api/v1/attendance?subject=&from=&to=
func (h *AttendanceHandler) List(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var query dto.AttendanceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	resp, err := h.svc.List(c.Request.Context(), username, &query)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetByID returns one record.
// GET /api/v1/attendance/:id
func (h *AttendanceHandler) GetByID(c *gin.Context) {
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
// PUT /api/v1/attendance/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.UpdateAttendanceRequest
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

// Delete removes a record.
// DELETE /api/v1/attendance/:id
func (h *AttendanceHandler) Delete(c *gin.Context) {
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

// Summary returns the standing of every subject.
// GET /api/v1/attendance/summary
func (h *AttendanceHandler) Summary(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.Summary(c.Request.Context(), username)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}

// Eligibility returns the standing of one subject.
// GET /api/v1/attendance/eligibility?subject=
func (h *AttendanceHandler) Eligibility(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	resp, err := h.svc.Eligibility(c.Request.Context(), username, c.Query("subject"))
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}
