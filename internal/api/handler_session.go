package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-session-backend/internal/coordinator"
)

type enterRequest struct {
	ID *int `json:"id" binding:"required"`
}

type exitRequest struct {
	ID                     *int `json:"id" binding:"required"`
	ConfirmUnknownDuration bool `json:"confirm_unknown_duration"`
}

// GetStatus returns identity, balance, session and phase.
func (h *Handler) GetStatus(c *gin.Context) {
	view, err := h.engine.Status(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Enter occupies a place.
func (h *Handler) Enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id is required")
		return
	}

	s, err := h.engine.RequestEnter(c.Request.Context(), *req.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// Exit releases the occupied place and charges the balance.
func (h *Handler) Exit(c *gin.Context) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id is required")
		return
	}

	receipt, err := h.engine.RequestExit(c.Request.Context(), *req.ID, coordinator.ExitOptions{
		ConfirmUnknownDuration: req.ConfirmUnknownDuration,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
