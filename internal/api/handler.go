package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"parking-session-backend/internal/coordinator"
	"parking-session-backend/internal/model"
	"parking-session-backend/internal/notification"
	"parking-session-backend/internal/registry"
)

// Engine is the session engine the handlers drive.
type Engine interface {
	RequestEnter(ctx context.Context, id int) (model.Session, error)
	RequestExit(ctx context.Context, id int, opts coordinator.ExitOptions) (coordinator.Receipt, error)
	Login(ctx context.Context, name string) (model.Identity, error)
	TopUp(ctx context.Context, amount int) (int, error)
	Logout(ctx context.Context) error
	History(ctx context.Context, limit int) ([]model.TripRecord, error)
	ClearHistory(ctx context.Context) error
	Status(ctx context.Context) (coordinator.View, error)
}

// Places is the read side of the place registry.
type Places interface {
	Places() []model.Place
	Stats() registry.Stats
	LastRefreshed() time.Time
	Refresh(ctx context.Context) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  Engine
	places  Places
	subs    *notification.Subscriptions
	webpush *webpush.Options
	log     logrus.FieldLogger
}

// NewHandler creates a new API handler.
func NewHandler(engine Engine, places Places, subs *notification.Subscriptions, webpushOptions *webpush.Options, log logrus.FieldLogger) *Handler {
	return &Handler{
		engine:  engine,
		places:  places,
		subs:    subs,
		webpush: webpushOptions,
		log:     log,
	}
}
