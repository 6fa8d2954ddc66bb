package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"parking-session-backend/internal/model"
)

const queueSize = 64

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// LogSender only logs notifications. It is used when no VAPID keys are configured.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s *LogSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	s.Log.WithField("endpoint", sub.Endpoint).Infof("push disabled, would send %q", payload)
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

// WorkerPool sends "place is free" notifications from a pool of workers.
type WorkerPool struct {
	size    int
	jobs    chan int
	subs    *Subscriptions
	webpush *webpush.Options
	sender  NotificationSender
	log     logrus.FieldLogger
}

// NewWorkerPool creates a new worker pool. A nil webpushOptions selects the LogSender.
func NewWorkerPool(size int, subs *Subscriptions, webpushOptions *webpush.Options, log logrus.FieldLogger) *WorkerPool {
	var sender NotificationSender = &WebPushSender{}
	if webpushOptions == nil {
		sender = &LogSender{Log: log}
	}
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int, queueSize),
		subs:    subs,
		webpush: webpushOptions,
		sender:  sender,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.WithField("worker", id)
	log.Debug("notification worker started")
	for {
		select {
		case placeID := <-wp.jobs:
			wp.notifyPlaceFree(ctx, placeID)
		case <-ctx.Done():
			log.Debug("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a place for notification. It never blocks: when the queue
// is full the job is dropped and false is returned.
func (wp *WorkerPool) Dispatch(placeID int) bool {
	select {
	case wp.jobs <- placeID:
		return true
	default:
		wp.log.WithField("place_id", placeID).Warn("notification queue full, dropping job")
		return false
	}
}

// PlacesFreed queues every freed place. It matches the registry observer signature.
func (wp *WorkerPool) PlacesFreed(placeIDs []int) {
	for _, id := range placeIDs {
		wp.Dispatch(id)
	}
}

func (wp *WorkerPool) notifyPlaceFree(ctx context.Context, placeID int) {
	log := wp.log.WithField("place_id", placeID)
	subscriptions, err := wp.subs.ForPlace(ctx, placeID)
	if err != nil {
		log.WithError(err).Error("failed to load subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.WithField("count", len(subscriptions)).Info("sending place free notifications")
	message := fmt.Sprintf("Parking place %d is now free", placeID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	log := wp.log.WithField("endpoint", sub.Endpoint)
	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.WithError(err).Warn("failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Info("subscription expired, deleting")
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			log.WithError(err).Error("failed to delete expired subscription")
		}
	}
}
