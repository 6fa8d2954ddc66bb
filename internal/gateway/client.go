package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/sirupsen/logrus"

	"parking-session-backend/config"
	"parking-session-backend/internal/model"
)

// Client talks to the remote place-status service. It never retries: every
// failure is reported to the caller as ErrGateway.
type Client struct {
	baseURL  string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	log      logrus.FieldLogger
}

// NewClient creates a gateway client from config.
func NewClient(cfg config.GatewayConfig, log logrus.FieldLogger) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.WithError(err).Warnf("invalid proxy URL %q, gateway will not use a proxy", cfg.HTTPProxy)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		log: log,
	}
	if cfg.CircuitBreaker.Enabled {
		c.executor = newBreakerExecutor(cfg.CircuitBreaker, log)
	}
	return c
}

func newBreakerExecutor(cfg config.CircuitBreakerConfig, log logrus.FieldLogger) failsafe.Executor[*http.Response] {
	cb := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(uint(cfg.FailureThreshold), uint(cfg.Window)).
		WithDelay(time.Duration(cfg.OpenSeconds) * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= http.StatusInternalServerError
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.WithFields(logrus.Fields{
				"from_state": event.OldState,
				"to_state":   event.NewState,
			}).Warn("gateway circuit breaker state change")
		}).
		Build()
	return failsafe.With(cb)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.executor == nil {
		return c.client.Do(req)
	}
	return c.executor.WithContext(req.Context()).Get(func() (*http.Response, error) {
		return c.client.Do(req)
	})
}

// List fetches every place with its current status.
func (c *Client) List(ctx context.Context) ([]model.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrGateway, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request failed: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: received non-200 status code: %d", ErrGateway, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrGateway, err)
	}

	var parsed placesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal places: %v", ErrGateway, err)
	}
	if parsed.Places == nil {
		return nil, fmt.Errorf("%w: response has no places field", ErrGateway)
	}
	for _, p := range parsed.Places {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("%w: place %d has unknown status %q", ErrGateway, p.ID, p.Status)
		}
	}

	c.log.WithField("places", len(parsed.Places)).Debug("fetched places")
	return parsed.Places, nil
}

// SetStatus asks the service to set a place's status. The call carries only
// the target status; the service applies it last-write-wins.
func (c *Client) SetStatus(ctx context.Context, id int, status model.PlaceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	jsonBody, err := json.Marshal(updateRequest{ID: id, Status: status})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request payload: %v", ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%w: http request failed: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: received non-200 status code: %d", ErrGateway, resp.StatusCode)
	}

	c.log.WithFields(logrus.Fields{"place_id": id, "status": status}).Debug("updated place status")
	return nil
}
