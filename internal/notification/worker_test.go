package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-session-backend/config"
	"parking-session-backend/internal/logging"
	"parking-session-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func response(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewBufferString(""))}
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "push.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.PushSubscription{}, &model.SubscriptionPlace{}))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return gormDB
}

const forPlaceQuery = `SELECT .* FROM "push_subscriptions" JOIN subscription_places sp ON sp.endpoint = push_subscriptions.endpoint WHERE sp.place_id = \$1`

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, NewSubscriptions(db), &webpush.Options{}, logging.Discard())

	assert.True(t, wp.Dispatch(123))

	select {
	case job := <-wp.jobs:
		assert.Equal(t, 123, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, NewSubscriptions(db), nil, logging.Discard())

	for i := range queueSize {
		require.True(t, wp.Dispatch(i))
	}
	assert.False(t, wp.Dispatch(queueSize))
}

func TestWorkerPool_SendsNotification(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, NewSubscriptions(gormDB), &webpush.Options{}, logging.Discard())

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
			assert.Equal(t, "Parking place 7 is now free", string(payload))
			wg.Done()
			return response(http.StatusCreated), nil
		},
	}

	mock.ExpectQuery(forPlaceQuery).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/push", "test_p256dh", "test_auth", time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.PlacesFreed([]int{7})
	wg.Wait()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, NewSubscriptions(gormDB), &webpush.Options{}, logging.Discard())
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return response(http.StatusGone), nil
		},
	}

	mock.ExpectQuery(forPlaceQuery).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/expired", "k", "a", time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "subscription_places" WHERE endpoint = \$1`).
		WithArgs("https://example.com/expired").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
		WithArgs("https://example.com/expired").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(8)
	assert.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_NoSubscribersSendsNothing(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, NewSubscriptions(gormDB), &webpush.Options{}, logging.Discard())
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Errorf("unexpected send to %s", sub.Endpoint)
			return response(http.StatusCreated), nil
		},
	}
	mock.ExpectQuery(forPlaceQuery).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

	wp.notifyPlaceFree(context.Background(), 9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWorkerPool_LogSenderWithoutVAPID(t *testing.T) {
	wp := NewWorkerPool(0, NewSubscriptions(newSQLiteDB(t)), nil, logging.Discard())
	assert.IsType(t, &LogSender{}, wp.sender)
	assert.Equal(t, 1, wp.size)

	resp, err := wp.sender.Send([]byte("x"), &webpush.Subscription{Endpoint: "e"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestOptionsFromConfig_AllFields(t *testing.T) {
	assert.Nil(t, OptionsFromConfig(config.PushConfig{PublicKey: "pub"}))

	opts := OptionsFromConfig(config.PushConfig{PublicKey: "pub", PrivateKey: "priv", Subject: "mailto:ops@example.com", TTL: 60})
	require.NotNil(t, opts)
	assert.Equal(t, "pub", opts.VAPIDPublicKey)
	assert.Equal(t, "priv", opts.VAPIDPrivateKey)
	assert.Equal(t, "mailto:ops@example.com", opts.Subscriber)
	assert.Equal(t, 60, opts.TTL)
}
