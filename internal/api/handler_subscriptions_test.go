package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSubscription_InvalidBody(t *testing.T) {
	router := newTestRouter(t, &mockEngine{}, &fakePlaces{})

	w := do(router, http.MethodPut, "/api/subscriptions", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request","code":"invalid_request"}`, w.Body.String())
}

func TestSubscriptions_RoundTrip(t *testing.T) {
	router := newTestRouter(t, &mockEngine{}, &fakePlaces{})
	endpoint := "https://push.example.com/send/abc%3D%3D"

	w := do(router, http.MethodPut, "/api/subscriptions",
		`{"endpoint":"`+endpoint+`","p256dh":"key","auth":"secret","subscribed_places":[4,2]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// The endpoint is looked up without URL decoding.
	w = do(router, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_places":[2,4]}`, w.Body.String())

	w = do(router, http.MethodDelete, "/api/subscriptions", `{"endpoint":"`+endpoint+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"subscription_not_found"`)
}

func TestGetSubscription_MissingEndpoint(t *testing.T) {
	router := newTestRouter(t, &mockEngine{}, &fakePlaces{})

	w := do(router, http.MethodGet, "/api/subscriptions?other="+url.QueryEscape("x"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRawQueryParam(t *testing.T) {
	v, ok := rawQueryParam("a=1&endpoint=https%3A%2F%2Fx&b=2", "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https%3A%2F%2Fx", v)

	_, ok = rawQueryParam("a=1", "endpoint")
	assert.False(t, ok)
}
