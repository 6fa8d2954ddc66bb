package notification

import (
	"errors"

	"github.com/SherClockHolmes/webpush-go"

	"parking-session-backend/config"
)

var ErrPushDisabled = errors.New("push notifications are not configured")

// OptionsFromConfig builds web push options, or returns nil when the VAPID
// keys are not configured.
func OptionsFromConfig(cfg config.PushConfig) *webpush.Options {
	if !cfg.Enabled() {
		return nil
	}
	return &webpush.Options{
		Subscriber:      cfg.Subject,
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		TTL:             cfg.TTL,
	}
}

// PublicKey returns the VAPID key browsers subscribe with.
func PublicKey(opts *webpush.Options) (string, error) {
	if opts == nil || opts.VAPIDPublicKey == "" {
		return "", ErrPushDisabled
	}
	return opts.VAPIDPublicKey, nil
}
