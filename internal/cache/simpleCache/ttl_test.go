package simpleCache

import (
	"testing"
	"time"

	"simplecache/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * 60 * 60

func date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeTTL_Absent(t *testing.T) {
	assert.Equal(t, 0, NormalizeTTL(nil, time.Now()))
}

func TestNormalizeTTL_Seconds(t *testing.T) {
	for _, n := range []int{0, 1, 60, 86400, -1, -3600} {
		assert.Equal(t, n, NormalizeTTL(Seconds(n), time.Now()))
	}
}

func TestNormalizeTTL_FixedIntervals(t *testing.T) {
	tests := []struct {
		name     string
		ttl      Interval
		expected int
	}{
		{"seconds", After(45 * time.Second), 45},
		{"minutes", After(15 * time.Minute), 900},
		{"hours", After(2 * time.Hour), 7200},
		{"days", Interval{Days: 3}, 3 * day},
		{"mixed", Interval{Days: 1, Duration: 90 * time.Minute}, day + 5400},
		{"sub-second truncates", After(1500 * time.Millisecond), 1},
	}

	now := date(2024, time.March, 10).Add(3 * time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTTL(tt.ttl, now))
		})
	}
}

func TestNormalizeTTL_FixedIntervalAgainstWallClock(t *testing.T) {
	got := NormalizeTTL(After(time.Hour), time.Now())
	assert.InDelta(t, 3600, got, 1)
}

func TestNormalizeTTL_CalendarIntervals(t *testing.T) {
	tests := []struct {
		name     string
		ttl      Interval
		now      time.Time
		expected int
	}{
		{"month from a 31-day month", Interval{Months: 1}, date(2024, time.January, 1), 31 * day},
		{"month from a 30-day month", Interval{Months: 1}, date(2024, time.April, 1), 30 * day},
		{"month from february", Interval{Months: 1}, date(2023, time.February, 1), 28 * day},
		{"month from leap february", Interval{Months: 1}, date(2024, time.February, 1), 29 * day},
		{"leap year", Interval{Years: 1}, date(2024, time.January, 1), 366 * day},
		{"common year", Interval{Years: 1}, date(2023, time.January, 1), 365 * day},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTTL(tt.ttl, tt.now))
		})
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		input    string
		expected TTL
	}{
		{"", nil},
		{"  ", nil},
		{"3600", Seconds(3600)},
		{"-1", Seconds(-1)},
		{"0", Seconds(0)},
		{"P1M", Interval{Months: 1}},
		{"P1Y2M3D", Interval{Years: 1, Months: 2, Days: 3}},
		{"P2W", Interval{Days: 14}},
		{"PT2H30M", Interval{Duration: 2*time.Hour + 30*time.Minute}},
		{"P1DT12S", Interval{Days: 1, Duration: 12 * time.Second}},
		{"90s", After(90 * time.Second)},
		{"1h30m", After(90 * time.Minute)},
		{"P400Y", Interval{Years: 400}},
		{"PT2562047H", Interval{Duration: 2562047 * time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ttl, err := ParseTTL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ttl)
		})
	}
}

func TestParseTTL_Invalid(t *testing.T) {
	for _, input := range []string{
		"P", "PT", "P1H", "PT1D", "soon", "1.5", "P-1D",
		"PT3000000000H",
		"PT2562047H60M",
		"PT9223372037S",
		"P1000000001Y",
		"P99999999999999999999D",
	} {
		t.Run(input, func(t *testing.T) {
			ttl, err := ParseTTL(input)
			assert.Nil(t, ttl)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}
}

func TestNormalizeTTL_CenturiesAhead(t *testing.T) {
	got := NormalizeTTL(Interval{Years: 400}, date(2024, time.January, 1))

	// 400 Gregorian years hold exactly 146097 days
	assert.Equal(t, 146097*day, got)
}
