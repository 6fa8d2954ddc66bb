package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Name string `json:"name" binding:"required"`
}

// maxTopUp caps a single top-up so balances stay far from overflow.
const maxTopUp = 1_000_000

type topUpRequest struct {
	Amount int `json:"amount" binding:"required,max=1000000"`
}

// Login authorizes a display name and credits the starting balance.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	identity, err := h.engine.Login(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// TopUp adds to the balance.
func (h *Handler) TopUp(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("amount is required and must not exceed %d", maxTopUp))
		return
	}

	balance, err := h.engine.TopUp(c.Request.Context(), req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Logout restores guest defaults.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.engine.Logout(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
