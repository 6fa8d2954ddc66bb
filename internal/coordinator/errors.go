package coordinator

import (
	"errors"

	"parking-session-backend/internal/billing"
	"parking-session-backend/internal/gateway"
	"parking-session-backend/internal/session"
)

// Precondition failures are detected before any remote call and leave all
// state untouched.
var (
	ErrNotAuthorized    = errors.New("not authorized")
	ErrAlreadyOccupying = session.ErrAlreadyOccupying
	ErrNoActiveSession  = session.ErrNoActiveSession
	ErrWrongPlace       = errors.New("active session is on another place")
	ErrPlaceNotFree     = errors.New("place is not free")
	ErrPlaceNotBusy     = errors.New("place is not busy")
	ErrPlaceNotFound    = errors.New("place not found")
)

// Re-exported so callers only need this package to classify failures.
var (
	ErrGateway         = gateway.ErrGateway
	ErrUnknownDuration = billing.ErrUnknownDuration
)
