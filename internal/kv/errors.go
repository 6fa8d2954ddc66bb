package kv

import "errors"

// ErrMalformedValue is returned when a stored value cannot be read as the requested type.
var ErrMalformedValue = errors.New("kv: malformed value")
