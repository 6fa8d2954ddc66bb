package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-session-backend/internal/account"
	"parking-session-backend/internal/coordinator"
	"parking-session-backend/internal/notification"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{coordinator.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{coordinator.ErrPlaceNotFound, http.StatusNotFound, "place_not_found"},
	{notification.ErrSubscriptionNotFound, http.StatusNotFound, "subscription_not_found"},
	{coordinator.ErrAlreadyOccupying, http.StatusConflict, "already_occupying"},
	{coordinator.ErrNoActiveSession, http.StatusConflict, "no_active_session"},
	{coordinator.ErrWrongPlace, http.StatusConflict, "wrong_place"},
	{coordinator.ErrPlaceNotFree, http.StatusConflict, "place_not_free"},
	{coordinator.ErrUnknownDuration, http.StatusUnprocessableEntity, "unknown_duration"},
	{account.ErrEmptyName, http.StatusBadRequest, "invalid_request"},
	{account.ErrInvalidAmount, http.StatusBadRequest, "invalid_request"},
	{coordinator.ErrGateway, http.StatusBadGateway, "gateway_error"},
	{notification.ErrPushDisabled, http.StatusServiceUnavailable, "push_disabled"},
}

// writeError maps err onto a status and a stable error code.
func (h *Handler) writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": err.Error(), "code": m.code})
			return
		}
	}
	h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_request"})
}
