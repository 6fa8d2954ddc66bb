package coordinator

import "sync/atomic"

// Phase is the local user's position in the enter/exit cycle.
type Phase int32

const (
	PhaseUnengaged Phase = iota
	PhaseEntering
	PhaseOccupying
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseUnengaged:
		return "unengaged"
	case PhaseEntering:
		return "entering"
	case PhaseOccupying:
		return "occupying"
	case PhaseExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// inFlight tracks a remote call in progress. It is never persisted: a restart
// during Entering or Exiting comes back as whatever the session store says.
type inFlight struct {
	v atomic.Int32
}

func (f *inFlight) set(p Phase) { f.v.Store(int32(p)) }
func (f *inFlight) clear()      { f.v.Store(int32(PhaseUnengaged)) }
func (f *inFlight) get() (Phase, bool) {
	p := Phase(f.v.Load())
	return p, p == PhaseEntering || p == PhaseExiting
}
