package model

const (
	// NoPlace marks the absence of an occupied place.
	NoPlace = -1
	// UnsetStart marks a missing session start time.
	UnsetStart int64 = 0
)

// Session is the local user's current occupancy. StartedAt is in milliseconds
// since the Unix epoch.
type Session struct {
	PlaceID   int   `json:"place_id"`
	StartedAt int64 `json:"started_at"`
}

// None is the empty session.
var None = Session{PlaceID: NoPlace, StartedAt: UnsetStart}

// Active reports whether the session references a place.
func (s Session) Active() bool {
	return s.PlaceID != NoPlace
}
