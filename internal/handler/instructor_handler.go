package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maestoso/conservatory-api/internal/middleware"
	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/internal/service"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/response"
)

// InstructorHandler exposes instructor endpoints, including the weekly
// time blocks owned by an instructor.
type InstructorHandler struct {
	instructors *service.InstructorService
	blocks      *service.TimeBlockService
	exports     *service.ExportService
}

// NewInstructorHandler constructs InstructorHandler.
func NewInstructorHandler(instructors *service.InstructorService, blocks *service.TimeBlockService, exports *service.ExportService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors, blocks: blocks, exports: exports}
}

// List godoc
// @Summary List instructors
// @Tags Instructors
// @Produce json
// @Param search query string false "Search by name or email"
// @Param specialty query string false "Filter by specialty"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *InstructorHandler) List(c *gin.Context) {
	var filter models.InstructorFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Specialty = c.Query("specialty")
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	instructors, pagination, err := h.instructors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, pagination)
}

// Get godoc
// @Summary Get instructor detail
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [get]
func (h *InstructorHandler) Get(c *gin.Context) {
	instructor, err := h.instructors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// Create godoc
// @Summary Create instructor
// @Tags Instructors
// @Accept json
// @Produce json
// @Param payload body service.CreateInstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Router /instructors [post]
func (h *InstructorHandler) Create(c *gin.Context) {
	var req service.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.instructors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// Update godoc
// @Summary Update instructor
// @Tags Instructors
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body service.UpdateInstructorRequest true "Instructor payload"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [put]
func (h *InstructorHandler) Update(c *gin.Context) {
	var req service.UpdateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.instructors.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// Deactivate godoc
// @Summary Deactivate instructor and cascade to blocks, lessons and assignments
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [delete]
func (h *InstructorHandler) Deactivate(c *gin.Context) {
	result, err := h.instructors.Deactivate(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Schedule godoc
// @Summary Get an instructor's weekly schedule
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/schedule [get]
func (h *InstructorHandler) Schedule(c *gin.Context) {
	schedule, err := h.instructors.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ExportSchedule godoc
// @Summary Download an instructor's weekly schedule as CSV or PDF
// @Tags Instructors
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Instructor ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /instructors/{id}/schedule/export [get]
func (h *InstructorHandler) ExportSchedule(c *gin.Context) {
	artifact, err := h.exports.InstructorSchedule(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Content)
}

// CreateBlock godoc
// @Summary Create a weekly time block for an instructor
// @Tags Blocks
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body service.CreateTimeBlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Router /instructors/{id}/blocks [post]
func (h *InstructorHandler) CreateBlock(c *gin.Context) {
	var req service.CreateTimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.blocks.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// ListBlocks godoc
// @Summary List an instructor's time blocks
// @Tags Blocks
// @Produce json
// @Param id path string true "Instructor ID"
// @Param active query bool false "Only active blocks (default true)"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/blocks [get]
func (h *InstructorHandler) ListBlocks(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"
	blocks, err := h.blocks.ListByInstructor(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}
