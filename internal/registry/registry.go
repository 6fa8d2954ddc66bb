package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"parking-session-backend/internal/model"
)

// Lister is the part of the gateway the registry needs.
type Lister interface {
	List(ctx context.Context) ([]model.Place, error)
}

// Stats summarizes a snapshot the same way the service's /stats endpoint does.
type Stats struct {
	Free        int `json:"free"`
	Busy        int `json:"busy"`
	Total       int `json:"total"`
	LoadPercent int `json:"load_percent"`
}

type snapshot struct {
	statuses    map[int]model.PlaceStatus
	places      []model.Place
	refreshedAt time.Time
}

var emptySnapshot = &snapshot{statuses: map[int]model.PlaceStatus{}}

// Registry caches the last known status of every place. Readers always see a
// complete snapshot; a failed refresh keeps the previous one.
type Registry struct {
	source Lister
	log    logrus.FieldLogger
	now    func() time.Time

	snap atomic.Pointer[snapshot]

	// refreshMu orders refreshes so freed-place diffs are computed against the
	// snapshot they replace.
	refreshMu sync.Mutex
	observers []func(freed []int)
}

// New creates an empty registry.
func New(source Lister, log logrus.FieldLogger) *Registry {
	r := &Registry{source: source, log: log, now: time.Now}
	r.snap.Store(emptySnapshot)
	return r
}

// OnFreed registers fn to receive the ids that went from busy to free in a
// refresh. Observers run synchronously after the snapshot swap and must not block.
func (r *Registry) OnFreed(fn func(freed []int)) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	r.observers = append(r.observers, fn)
}

// Refresh replaces the snapshot with the gateway's current list.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	places, err := r.source.List(ctx)
	if err != nil {
		r.refreshMu.Unlock()
		return fmt.Errorf("refresh places: %w", err)
	}

	next := &snapshot{
		statuses:    make(map[int]model.PlaceStatus, len(places)),
		places:      make([]model.Place, 0, len(places)),
		refreshedAt: r.now().UTC(),
	}
	for _, p := range places {
		if _, dup := next.statuses[p.ID]; dup {
			continue
		}
		next.statuses[p.ID] = p.Status
		next.places = append(next.places, p)
	}
	sort.Slice(next.places, func(i, j int) bool { return next.places[i].ID < next.places[j].ID })

	prev := r.snap.Swap(next)
	freed := freedBetween(prev, next)
	observers := r.observers
	r.refreshMu.Unlock()

	r.log.WithFields(logrus.Fields{"places": len(next.places), "freed": len(freed)}).Debug("registry refreshed")
	if len(freed) > 0 {
		for _, fn := range observers {
			fn(freed)
		}
	}
	return nil
}

func freedBetween(prev, next *snapshot) []int {
	var freed []int
	for _, p := range next.places {
		if p.Status == model.StatusFree && prev.statuses[p.ID] == model.StatusBusy {
			freed = append(freed, p.ID)
		}
	}
	return freed
}

// StatusOf returns the last known status, or StatusUnknown if id is absent.
func (r *Registry) StatusOf(id int) model.PlaceStatus {
	if st, ok := r.snap.Load().statuses[id]; ok {
		return st
	}
	return model.StatusUnknown
}

// Places returns a copy of the snapshot ordered by id.
func (r *Registry) Places() []model.Place {
	return append([]model.Place(nil), r.snap.Load().places...)
}

// LastRefreshed is the zero time until the first successful refresh.
func (r *Registry) LastRefreshed() time.Time {
	return r.snap.Load().refreshedAt
}

// Stats counts free and busy places in the snapshot.
func (r *Registry) Stats() Stats {
	var s Stats
	for _, p := range r.snap.Load().places {
		switch p.Status {
		case model.StatusFree:
			s.Free++
		case model.StatusBusy:
			s.Busy++
		}
	}
	s.Total = s.Free + s.Busy
	if s.Total > 0 {
		s.LoadPercent = s.Busy * 100 / s.Total
	}
	return s
}
