package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"1h", time.Hour},
		{"1HRS", time.Hour},
		{"4HRS", 4 * time.Hour},
		{"1d", 24 * time.Hour},
		{"3DAY", 72 * time.Hour},
		{"1WKS", 7 * 24 * time.Hour},
		{"1MNT", 28 * 24 * time.Hour},
		{"1YRS", 52 * 7 * 24 * time.Hour},
	}

	for _, tc := range tests {
		period, err := ParsePeriod(tc.value)
		require.NoError(t, err, tc.value)
		require.Equal(t, tc.expected, period.Duration(), tc.value)
	}

	_, err := ParsePeriod("soon")
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriodRange(t *testing.T) {
	hourly := MustParsePeriod("1h")
	start := time.Date(2023, 1, 1, 0, 30, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 3, 10, 0, 0, time.UTC)

	steps := hourly.Range(start, end)
	require.Equal(t, []time.Time{
		time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 2, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 3, 0, 0, 0, time.UTC),
	}, steps)

	aligned := hourly.Range(steps[0], steps[2])
	require.Len(t, aligned, 3)

	require.Empty(t, hourly.Range(end, start))
}

func TestPeriodPreviousEnd(t *testing.T) {
	at := time.Date(2023, 3, 5, 7, 15, 0, 0, time.UTC)

	require.Equal(t, time.Date(2023, 3, 5, 4, 0, 0, 0, time.UTC), MustParsePeriod("4h").PreviousEnd(at))
	require.Equal(t, time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), MustParsePeriod("1d").PreviousEnd(at))
	require.True(t, MustParsePeriod("1h").IsBoundary(time.Date(2023, 3, 5, 7, 0, 0, 0, time.UTC)))
	require.False(t, MustParsePeriod("1h").IsBoundary(at))
}
