package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maestoso/conservatory-api/internal/middleware"
	"github.com/maestoso/conservatory-api/internal/service"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/response"
)

// AssignmentHandler exposes the block placement engine: assigning a student
// into an instructor's time block and releasing the relationship again.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign godoc
// @Summary Place a student into an instructor's time block
// @Description Runs the placement ladder: existence, window fit, block overlap, student overlap. Collisions return 409 tagged with the failing axis and every colliding lesson.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignLessonRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.assignments.Assign(c.Request.Context(), req, middleware.ActorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Remove godoc
// @Summary Release an instructor/student relationship
// @Description Deactivates the pair's assigned lessons and the assignment mirror. Releasing an absent pair succeeds with zero counts.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.RemoveAssignmentRequest true "Removal payload"
// @Success 200 {object} response.Envelope
// @Router /assignments [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req service.RemoveAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.assignments.Remove(c.Request.Context(), req, middleware.ActorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
