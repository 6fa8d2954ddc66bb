package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-session-backend/internal/model"
)

type placesResponse struct {
	Places        []model.Place `json:"places"`
	LastRefreshed *time.Time    `json:"last_refreshed"`
}

func (h *Handler) placesBody() placesResponse {
	resp := placesResponse{Places: h.places.Places()}
	if at := h.places.LastRefreshed(); !at.IsZero() {
		resp.LastRefreshed = &at
	}
	return resp
}

// GetPlaces returns the last registry snapshot.
func (h *Handler) GetPlaces(c *gin.Context) {
	c.JSON(http.StatusOK, h.placesBody())
}

// GetStats returns free/busy counts of the last snapshot.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.places.Stats())
}

// RefreshPlaces pulls a fresh snapshot from the gateway.
func (h *Handler) RefreshPlaces(c *gin.Context) {
	if err := h.places.Refresh(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.placesBody())
}
