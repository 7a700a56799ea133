package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-05-01", true},
		{"2024-13-40", true}, // shape only, not calendar validity
		{"2024-1-05", false},
		{"abc", false},
		{"2024-05-01T00:00:00Z", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellFormed(tt.input))
		})
	}
}

func TestDate_AddDays(t *testing.T) {
	d, err := Date("2024-02-20").AddDays(14)
	require.NoError(t, err)
	assert.Equal(t, Date("2024-03-05"), d) // leap year

	_, err = Date("nope").AddDays(1)
	assert.Error(t, err)
}

func TestDate_DaysSince(t *testing.T) {
	days, err := Date("2024-05-01").DaysSince("2024-05-04")
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	days, err = Date("2024-05-04").DaysSince("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, -3, days)
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, Date("2024-12-31"), DateOf(ts))
}

func TestMonthPrefix(t *testing.T) {
	assert.Equal(t, "2024-03-", MonthPrefix(2024, 3))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan("2024-05-01"))
	assert.Equal(t, Date("2024-05-01"), d)

	require.NoError(t, d.Scan([]byte("2024-06-02")))
	assert.Equal(t, Date("2024-06-02"), d)

	require.NoError(t, d.Scan(time.Date(2024, time.July, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Date("2024-07-03"), d)

	assert.Error(t, d.Scan(42))
}
