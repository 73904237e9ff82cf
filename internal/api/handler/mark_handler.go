package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/service"
	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

const maxRecentMarks = 50

// MarkHandler serves the marks endpoints.
type MarkHandler struct {
	svc service.MarkService
}

// NewMarkHandler creates a MarkHandler.
func NewMarkHandler(svc service.MarkService) *MarkHandler {
	return &MarkHandler{svc: svc}
}

// Create records an assessment result.
// POST /api/v1/marks
func (h *MarkHandler) Create(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.CreateMarkRequest
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

// List returns the caller's marks, newest first.
// GET /api/v1/marks?subject_id=&type=
func (h *MarkHandler) List(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var query dto.MarkListQuery
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

// GetByID returns one mark.
// GET /api/v1/marks/:id
func (h *MarkHandler) GetByID(c *gin.Context) {
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
// PUT /api/v1/marks/:id
func (h *MarkHandler) Update(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.UpdateMarkRequest
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

// Delete removes a mark.
// DELETE /api/v1/marks/:id
func (h *MarkHandler) Delete(c *gin.Context) {
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

// Progress returns averages, grades and the pass/fail tally.
// GET /api/v1/marks/progress?recent=5
func (h *MarkHandler) Progress(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	recent := 0
	if v := c.Query("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRecentMarks {
			response.BadRequest(c, 10001, "recent must be between 1 and 50")
			return
		}
		recent = n
	}

	resp, err := h.svc.Progress(c.Request.Context(), username, recent)
	if err != nil {
		handleAcademicError(c, err)
		return
	}
	response.OK(c, resp)
}
