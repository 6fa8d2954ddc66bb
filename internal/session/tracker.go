package session

import (
	"context"
	"errors"
	"fmt"

	"parking-session-backend/internal/kv"
	"parking-session-backend/internal/model"
)

// Persistence keys.
const (
	KeyPlaceID   = "current_place_id"
	KeyStartedAt = "current_place_start"
)

var (
	ErrAlreadyOccupying = errors.New("a place is already occupied")
	ErrNoActiveSession  = errors.New("no active session")
)

// Tracker owns the single active occupancy of the local user. Every mutation
// is written through to the store before returning.
type Tracker struct {
	store *kv.Store
}

// NewTracker creates a tracker over store.
func NewTracker(store *kv.Store) *Tracker {
	return &Tracker{store: store}
}

// Active returns the current session. A session whose start time was lost is
// still active and comes back with StartedAt == model.UnsetStart.
func (t *Tracker) Active(ctx context.Context) (model.Session, bool, error) {
	placeID, err := t.store.GetInt(ctx, KeyPlaceID, model.NoPlace)
	if err != nil {
		return model.None, false, fmt.Errorf("read session place: %w", err)
	}
	if placeID == model.NoPlace {
		return model.None, false, nil
	}

	startedAt, err := t.store.GetInt64(ctx, KeyStartedAt, model.UnsetStart)
	if err != nil {
		// The place is known; only the start time is unreadable.
		startedAt = model.UnsetStart
	}
	return model.Session{PlaceID: placeID, StartedAt: startedAt}, true, nil
}

// Begin records an occupancy of placeID starting at now (ms since epoch).
func (t *Tracker) Begin(ctx context.Context, placeID int, now int64) error {
	if _, active, err := t.Active(ctx); err != nil {
		return err
	} else if active {
		return ErrAlreadyOccupying
	}

	err := t.store.SetAll(ctx, map[string]any{KeyPlaceID: placeID, KeyStartedAt: now})
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// End clears the active session and returns it.
func (t *Tracker) End(ctx context.Context) (model.Session, error) {
	s, active, err := t.Active(ctx)
	if err != nil {
		return model.None, err
	}
	if !active {
		return model.None, ErrNoActiveSession
	}
	if err := t.Reset(ctx); err != nil {
		return model.None, err
	}
	return s, nil
}

// Reset clears any session without checking whether one exists.
func (t *Tracker) Reset(ctx context.Context) error {
	err := t.store.SetAll(ctx, map[string]any{KeyPlaceID: model.NoPlace, KeyStartedAt: model.UnsetStart})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
