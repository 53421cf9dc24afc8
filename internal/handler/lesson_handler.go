package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maestoso/conservatory-api/internal/dto"
	"github.com/maestoso/conservatory-api/internal/middleware"
	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/internal/service"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/response"
)

// LessonHandler exposes dated-lesson scheduling and the check-only conflict
// endpoints. Creation renders 409 with the full collision report when the
// advisory check blocks the write.
type LessonHandler struct {
	lessons   *service.LessonService
	conflicts *service.ConflictService
}

// NewLessonHandler constructs LessonHandler.
func NewLessonHandler(lessons *service.LessonService, conflicts *service.ConflictService) *LessonHandler {
	return &LessonHandler{lessons: lessons, conflicts: conflicts}
}

// List godoc
// @Summary List dated lessons
// @Tags Lessons
// @Produce json
// @Param instructorId query string false "Filter by instructor"
// @Param studentId query string false "Filter by student"
// @Param location query string false "Filter by location"
// @Param category query string false "Filter by category"
// @Param from query string false "Earliest lesson date (YYYY-MM-DD)"
// @Param to query string false "Latest lesson date (YYYY-MM-DD)"
// @Param active query bool false "Only active lessons (default true)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	var filter models.LessonFilter
	filter.InstructorID = c.Query("instructorId")
	filter.StudentID = c.Query("studentId")
	filter.Location = c.Query("location")
	filter.Category = c.Query("category")
	filter.DateFrom = c.Query("from")
	filter.DateTo = c.Query("to")
	filter.ActiveOnly = c.DefaultQuery("active", "true") != "false"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	lessons, pagination, err := h.lessons.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Create godoc
// @Summary Schedule a dated lesson
// @Description Conflicting slots return 409 with the collision report; set override to force creation.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.lessons.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Created {
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}
	response.Created(c, result)
}

// CreateSeries godoc
// @Summary Schedule a weekly lesson series
// @Description Any conflicting occurrence blocks the whole series and returns 409 with the per-date report; set override to force creation.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonSeriesRequest true "Series payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/series [post]
func (h *LessonHandler) CreateSeries(c *gin.Context) {
	var req dto.CreateLessonSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.lessons.CreateSeries(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Created {
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}
	response.Created(c, result)
}

// Check godoc
// @Summary Check a candidate lesson for conflicts
// @Description Read-only inspection on the room and instructor axes. Conflicts are data, not errors.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CheckLessonRequest true "Candidate lesson"
// @Success 200 {object} response.Envelope
// @Router /lessons/conflicts [post]
func (h *LessonHandler) Check(c *gin.Context) {
	var req dto.CheckLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.conflicts.CheckLesson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// CheckSeries godoc
// @Summary Check a weekly series for conflicts
// @Description Expands the series and inspects every occurrence; the report covers all generated dates.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CheckSeriesRequest true "Candidate series"
// @Success 200 {object} response.Envelope
// @Router /lessons/series/conflicts [post]
func (h *LessonHandler) CheckSeries(c *gin.Context) {
	var req dto.CheckSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.conflicts.CheckSeries(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Cancel godoc
// @Summary Cancel a dated lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Cancel(c *gin.Context) {
	if err := h.lessons.Cancel(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
