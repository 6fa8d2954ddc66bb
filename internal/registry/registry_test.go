package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-session-backend/internal/logging"
	"parking-session-backend/internal/model"
)

// mockLister is a mock implementation of the Lister interface.
type mockLister struct {
	mu       sync.Mutex
	ListFunc func(ctx context.Context) ([]model.Place, error)
}

func (m *mockLister) List(ctx context.Context) ([]model.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListFunc(ctx)
}

func (m *mockLister) set(places []model.Place, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListFunc = func(context.Context) ([]model.Place, error) { return places, err }
}

func TestRegistry_EmptyBeforeRefresh(t *testing.T) {
	r := New(&mockLister{}, logging.Discard())

	assert.Equal(t, model.StatusUnknown, r.StatusOf(1))
	assert.Empty(t, r.Places())
	assert.True(t, r.LastRefreshed().IsZero())
	assert.Equal(t, Stats{}, r.Stats())
}

func TestRegistry_RefreshReplacesSnapshot(t *testing.T) {
	lister := &mockLister{}
	lister.set([]model.Place{
		{ID: 3, Status: model.StatusBusy},
		{ID: 1, Status: model.StatusFree},
		{ID: 2, Status: model.StatusBusy},
		{ID: 4, Status: model.StatusBusy},
	}, nil)
	r := New(lister, logging.Discard())

	require.NoError(t, r.Refresh(context.Background()))

	assert.Equal(t, model.StatusFree, r.StatusOf(1))
	assert.Equal(t, model.StatusBusy, r.StatusOf(3))
	assert.Equal(t, model.StatusUnknown, r.StatusOf(9))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(r.Places()))
	assert.Equal(t, Stats{Free: 1, Busy: 3, Total: 4, LoadPercent: 75}, r.Stats())
	assert.WithinDuration(t, time.Now(), r.LastRefreshed(), 5*time.Second)

	lister.set([]model.Place{{ID: 1, Status: model.StatusBusy}}, nil)
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, model.StatusUnknown, r.StatusOf(3), "places missing from the new list are dropped")
	assert.Equal(t, model.StatusBusy, r.StatusOf(1))
}

func TestRegistry_FailedRefreshKeepsSnapshot(t *testing.T) {
	lister := &mockLister{}
	lister.set([]model.Place{{ID: 7, Status: model.StatusFree}}, nil)
	r := New(lister, logging.Discard())
	require.NoError(t, r.Refresh(context.Background()))
	refreshedAt := r.LastRefreshed()

	gatewayErr := errors.New("gateway error: connection refused")
	lister.set(nil, gatewayErr)

	err := r.Refresh(context.Background())
	assert.ErrorIs(t, err, gatewayErr)
	assert.Equal(t, model.StatusFree, r.StatusOf(7))
	assert.Equal(t, refreshedAt, r.LastRefreshed())
}

func TestRegistry_OnFreedReportsBusyToFree(t *testing.T) {
	lister := &mockLister{}
	lister.set([]model.Place{
		{ID: 1, Status: model.StatusBusy},
		{ID: 2, Status: model.StatusBusy},
		{ID: 3, Status: model.StatusFree},
	}, nil)
	r := New(lister, logging.Discard())

	var got [][]int
	r.OnFreed(func(freed []int) { got = append(got, freed) })

	// The first refresh compares against an empty snapshot: nothing was busy.
	require.NoError(t, r.Refresh(context.Background()))
	assert.Empty(t, got)

	lister.set([]model.Place{
		{ID: 1, Status: model.StatusFree},
		{ID: 2, Status: model.StatusBusy},
		{ID: 3, Status: model.StatusFree},
		{ID: 4, Status: model.StatusFree},
	}, nil)
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, [][]int{{1}}, got)
}

func TestPoller_RefreshesUntilCancelled(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	lister := &mockLister{ListFunc: func(context.Context) ([]model.Place, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return []model.Place{{ID: 1, Status: model.StatusFree}}, nil
	}}
	r := New(lister, logging.Discard())
	p := NewPoller(r, 10*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.Equal(t, model.StatusFree, r.StatusOf(1))
}

func TestPoller_DisabledReturnsImmediately(t *testing.T) {
	r := New(&mockLister{}, logging.Discard())
	NewPoller(r, 0, logging.Discard()).Run(context.Background())
	assert.True(t, r.LastRefreshed().IsZero())
}

func ids(places []model.Place) []int {
	out := make([]int, len(places))
	for i, p := range places {
		out[i] = p.ID
	}
	return out
}
