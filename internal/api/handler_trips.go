package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultTripLimit = 50

// GetTrips returns recent trips, newest first. ?limit=0 returns all of them.
func (h *Handler) GetTrips(c *gin.Context) {
	limit := defaultTripLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	trips, err := h.engine.History(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// DeleteTrips clears the trip history.
func (h *Handler) DeleteTrips(c *gin.Context) {
	if err := h.engine.ClearHistory(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
