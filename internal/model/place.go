package model

// PlaceStatus is the occupancy state of a parking place as reported by the gateway.
type PlaceStatus string

const (
	StatusFree PlaceStatus = "free"
	StatusBusy PlaceStatus = "busy"
	// StatusUnknown is never sent over the wire. The registry returns it for ids
	// missing from its snapshot.
	StatusUnknown PlaceStatus = "unknown"
)

// Valid reports whether s is one of the two wire statuses.
func (s PlaceStatus) Valid() bool {
	return s == StatusFree || s == StatusBusy
}

// Place is a single parking slot owned by the remote service.
type Place struct {
	ID     int         `json:"id"`
	Status PlaceStatus `json:"status"`
}
