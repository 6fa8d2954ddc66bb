package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-session-backend/config"
)

const start int64 = 1_700_000_000_000

func TestCalculate(t *testing.T) {
	testCases := []struct {
		name      string
		elapsedMs int64
		policy    Policy
		expected  Quote
	}{
		{
			name:      "per-minute, 90 seconds floors to one minute",
			elapsedMs: 90_000,
			policy:    PerMinute{PricePerMinute: 2},
			expected:  Quote{DurationMinutes: 1, BilledUnits: 1, Cost: 2, Policy: "per_minute"},
		},
		{
			name:      "per-minute, under a minute still bills one",
			elapsedMs: 5_000,
			policy:    PerMinute{PricePerMinute: 2},
			expected:  Quote{DurationMinutes: 1, BilledUnits: 1, Cost: 2, Policy: "per_minute"},
		},
		{
			name:      "per-minute, 125 seconds",
			elapsedMs: 125_000,
			policy:    PerMinute{PricePerMinute: 2},
			expected:  Quote{DurationMinutes: 2, BilledUnits: 2, Cost: 4, Policy: "per_minute"},
		},
		{
			name:      "hourly, 90 minutes rounds up to two hours",
			elapsedMs: 90 * 60_000,
			policy:    HourlyRounded{PricePerHour: 50},
			expected:  Quote{DurationMinutes: 90, BilledUnits: 2, Cost: 100, Policy: "hourly"},
		},
		{
			name:      "hourly, exactly one hour",
			elapsedMs: 60 * 60_000,
			policy:    HourlyRounded{PricePerHour: 50},
			expected:  Quote{DurationMinutes: 60, BilledUnits: 1, Cost: 50, Policy: "hourly"},
		},
		{
			name:      "hourly, one minute bills a full hour",
			elapsedMs: 61_000,
			policy:    HourlyRounded{PricePerHour: 50},
			expected:  Quote{DurationMinutes: 1, BilledUnits: 1, Cost: 50, Policy: "hourly"},
		},
		{
			name:      "clock went backwards",
			elapsedMs: -30_000,
			policy:    PerMinute{PricePerMinute: 3},
			expected:  Quote{DurationMinutes: 1, BilledUnits: 1, Cost: 3, Policy: "per_minute"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Calculate(start, start+tc.elapsedMs, tc.policy)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, q)
		})
	}
}

func TestCalculate_UnknownDuration(t *testing.T) {
	_, err := Calculate(0, start, PerMinute{PricePerMinute: 2})
	assert.ErrorIs(t, err, ErrUnknownDuration)

	_, err = Calculate(-5, start, HourlyRounded{PricePerHour: 50})
	assert.ErrorIs(t, err, ErrUnknownDuration)
}

func TestApplyCost(t *testing.T) {
	assert.Equal(t, 0, ApplyCost(30, 100))
	assert.Equal(t, 146, ApplyCost(150, 4))
	assert.Equal(t, 0, ApplyCost(0, 0))
	assert.Equal(t, 10, ApplyCost(10, 0))
}

func TestPolicyFromConfig(t *testing.T) {
	p, err := PolicyFromConfig(config.BillingConfig{Policy: config.PolicyHourly, PricePerHour: 50})
	require.NoError(t, err)
	assert.Equal(t, HourlyRounded{PricePerHour: 50}, p)

	p, err = PolicyFromConfig(config.BillingConfig{Policy: config.PolicyPerMinute, PricePerMinute: 2})
	require.NoError(t, err)
	assert.Equal(t, PerMinute{PricePerMinute: 2}, p)

	_, err = PolicyFromConfig(config.BillingConfig{})
	assert.Error(t, err)
}
