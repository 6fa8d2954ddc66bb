// Package billing turns occupancy time into a fee. Everything here is pure.
package billing

import (
	"errors"
	"fmt"

	"parking-session-backend/config"
)

const msPerMinute = 60_000

// ErrUnknownDuration means the session start time is unavailable.
var ErrUnknownDuration = errors.New("session duration is unknown")

// Policy prices a billed duration.
type Policy interface {
	Name() string
	Price(durationMinutes int64) (billedUnits int64, cost int)
}

// HourlyRounded bills every started hour.
type HourlyRounded struct {
	PricePerHour int
}

func (HourlyRounded) Name() string { return config.PolicyHourly }

func (p HourlyRounded) Price(minutes int64) (int64, int) {
	hours := (minutes + 59) / 60
	if hours < 1 {
		hours = 1
	}
	return hours, int(hours) * p.PricePerHour
}

// PerMinute bills a flat rate per whole minute.
type PerMinute struct {
	PricePerMinute int
}

func (PerMinute) Name() string { return config.PolicyPerMinute }

func (p PerMinute) Price(minutes int64) (int64, int) {
	return minutes, int(minutes) * p.PricePerMinute
}

// PolicyFromConfig returns the configured policy. There is no default.
func PolicyFromConfig(cfg config.BillingConfig) (Policy, error) {
	switch cfg.Policy {
	case config.PolicyHourly:
		return HourlyRounded{PricePerHour: cfg.PricePerHour}, nil
	case config.PolicyPerMinute:
		return PerMinute{PricePerMinute: cfg.PricePerMinute}, nil
	default:
		return nil, fmt.Errorf("unsupported pricing policy %q", cfg.Policy)
	}
}

// Quote is the result of pricing one session.
type Quote struct {
	DurationMinutes int64  `json:"duration_minutes"`
	BilledUnits     int64  `json:"billed_units"`
	Cost            int    `json:"cost"`
	Policy          string `json:"policy"`
}

// Calculate prices a session that started at startedAt and ends at now, both
// in milliseconds since the epoch. Sessions shorter than a minute, and clocks
// that went backwards, bill one minute.
func Calculate(startedAt, now int64, p Policy) (Quote, error) {
	if startedAt <= 0 {
		return Quote{}, ErrUnknownDuration
	}
	minutes := int64(1)
	if now > startedAt {
		minutes = max(1, (now-startedAt)/msPerMinute)
	}
	return QuoteMinutes(minutes, p), nil
}

// QuoteMinutes prices an explicit duration.
func QuoteMinutes(minutes int64, p Policy) Quote {
	units, cost := p.Price(minutes)
	return Quote{DurationMinutes: minutes, BilledUnits: units, Cost: cost, Policy: p.Name()}
}

// ApplyCost deducts cost from balance. A shortfall is absorbed: the result is
// never negative.
func ApplyCost(balance, cost int) int {
	return max(0, balance-cost)
}
