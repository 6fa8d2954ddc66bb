package gateway

import "errors"

var (
	// ErrGateway covers transport failures, non-200 responses and malformed
	// bodies from the place-status service. It is always recoverable.
	ErrGateway = errors.New("gateway error")

	// ErrInvalidStatus is returned before any request when asked to send a
	// status other than free or busy.
	ErrInvalidStatus = errors.New("invalid place status")
)
