package notification

import (
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-session-backend/config"
)

func TestOptionsFromConfig(t *testing.T) {
	assert.Nil(t, OptionsFromConfig(config.PushConfig{}))

	opts := OptionsFromConfig(config.PushConfig{
		Subject:    "mailto:ops@example.com",
		PublicKey:  "pub",
		PrivateKey: "priv",
		TTL:        60,
	})
	require.NotNil(t, opts)
	assert.Equal(t, "pub", opts.VAPIDPublicKey)
	assert.Equal(t, 60, opts.TTL)
}

func TestPublicKey(t *testing.T) {
	_, err := PublicKey(nil)
	assert.ErrorIs(t, err, ErrPushDisabled)

	_, err = PublicKey(&webpush.Options{VAPIDPrivateKey: "priv"})
	assert.ErrorIs(t, err, ErrPushDisabled)

	key, err := PublicKey(&webpush.Options{VAPIDPublicKey: "pub"})
	require.NoError(t, err)
	assert.Equal(t, "pub", key)
}
