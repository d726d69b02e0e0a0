package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeSpec_Interval(t *testing.T) {
	spec, err := ParseTimeSpec(map[string]any{"interval_seconds": 3600})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, spec.Interval)
	assert.Nil(t, spec.Cron)

	// JSON decoding delivers numbers as float64.
	spec, err = ParseTimeSpec(map[string]any{"interval_seconds": 90.0})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, spec.Interval)
}

func TestParseTimeSpec_Cron(t *testing.T) {
	spec, err := ParseTimeSpec(map[string]any{"cron": "0 9 * * *"})
	require.NoError(t, err)
	require.NotNil(t, spec.Cron)

	from := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	next := spec.Cron.Next(from)
	assert.Equal(t, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestParseTimeSpec_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		config map[string]any
	}{
		{"empty", map[string]any{}},
		{"zero interval", map[string]any{"interval_seconds": 0}},
		{"negative interval", map[string]any{"interval_seconds": -5}},
		{"non numeric interval", map[string]any{"interval_seconds": "soon"}},
		{"empty cron", map[string]any{"cron": ""}},
		{"malformed cron", map[string]any{"cron": "not a schedule"}},
		{"six field cron", map[string]any{"cron": "0 0 9 * * *"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTimeSpec(tc.config)
			require.ErrorIs(t, err, ErrInvalidTimeSpec)
		})
	}
}

func TestTimeSpec_Due(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	interval := &TimeSpec{Interval: time.Hour}

	assert.True(t, interval.Due(nil, now))

	recent := now.Add(-10 * time.Minute)
	assert.False(t, interval.Due(&recent, now))

	exact := now.Add(-time.Hour)
	assert.True(t, interval.Due(&exact, now))
}
