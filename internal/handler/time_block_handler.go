package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maestoso/conservatory-api/internal/middleware"
	"github.com/maestoso/conservatory-api/internal/service"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/response"
)

// TimeBlockHandler exposes block-level endpoints. Block creation and listing
// live under the owning instructor; see InstructorHandler.
type TimeBlockHandler struct {
	blocks *service.TimeBlockService
}

// NewTimeBlockHandler constructs TimeBlockHandler.
func NewTimeBlockHandler(blocks *service.TimeBlockService) *TimeBlockHandler {
	return &TimeBlockHandler{blocks: blocks}
}

// Update godoc
// @Summary Update a time block's window, weekday or location
// @Tags Blocks
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body service.UpdateTimeBlockRequest true "Block payload"
// @Success 200 {object} response.Envelope
// @Router /blocks/{id} [put]
func (h *TimeBlockHandler) Update(c *gin.Context) {
	var req service.UpdateTimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.blocks.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// UpdateExclusions godoc
// @Summary Replace a block's excluded dates
// @Tags Blocks
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body service.UpdateExclusionsRequest true "Exclusion dates"
// @Success 200 {object} response.Envelope
// @Router /blocks/{id}/exclusions [put]
func (h *TimeBlockHandler) UpdateExclusions(c *gin.Context) {
	var req service.UpdateExclusionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.blocks.UpdateExclusions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Release godoc
// @Summary Deactivate a time block and release its placed lessons
// @Tags Blocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /blocks/{id} [delete]
func (h *TimeBlockHandler) Release(c *gin.Context) {
	result, err := h.blocks.Release(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
