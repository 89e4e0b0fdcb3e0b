package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30:15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30, Second: 15}, tod)

	tod, err = ParseTimeOfDay("22:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 22}, tod)

	_, err = ParseTimeOfDay("25:00:00")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("not a time")
	assert.Error(t, err)
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan([]byte("14:05:30")))
	assert.Equal(t, "14:05:30", tod.String())

	// drivers sometimes hand TIME columns back as time.Time
	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 8, 15, 0, 0, time.UTC)))
	assert.Equal(t, "08:15:00", tod.String())

	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayOn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	day := time.Date(2025, 6, 10, 23, 59, 0, 0, loc)
	tod := TimeOfDay{Hour: 9, Minute: 30}

	assert.Equal(t, time.Date(2025, 6, 10, 9, 30, 0, 0, loc), tod.On(day))
}

func TestNullTimeOfDayScan(t *testing.T) {
	var n NullTimeOfDay
	require.NoError(t, n.Scan(nil))
	assert.False(t, n.Valid)

	require.NoError(t, n.Scan([]byte("10:00:00")))
	assert.True(t, n.Valid)
	assert.Equal(t, "10:00:00", n.TimeOfDay.String())

	val, err := n.Value()
	require.NoError(t, err)
	assert.Equal(t, "10:00:00", val)
}
