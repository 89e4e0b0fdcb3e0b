package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaQueueScanRoundTrip(t *testing.T) {
	raw := `[{"media_id":"abc","media_name":"clip.mp4","schedule_mode":"range","status":"pending"},` +
		`{"media_id":"def","media_name":"pic.jpg","schedule_mode":"fixed_time","fixed_time":"2025-06-10 14:00:00","status":"completed","caption":"hello"}]`

	var q MediaQueue
	require.NoError(t, q.Scan([]byte(raw)))
	require.Len(t, q, 2)

	assert.Equal(t, "abc", q[0].MediaID)
	assert.Equal(t, ModeRange, q[0].Mode)
	assert.Equal(t, StatusPending, q[0].Status)

	assert.Equal(t, ModeFixedTime, q[1].Mode)
	assert.Equal(t, "2025-06-10 14:00:00", q[1].FixedTime)
	assert.Equal(t, StatusCompleted, q[1].Status)

	val, err := q.Value()
	require.NoError(t, err)

	var again MediaQueue
	require.NoError(t, again.Scan(val))
	assert.Equal(t, q, again)
}

func TestMediaQueueScanPreservesMalformedFixedTime(t *testing.T) {
	raw := `[{"media_id":"abc","schedule_mode":"fixed_time","fixed_time":"garbage","status":"pending"}]`

	var q MediaQueue
	require.NoError(t, q.Scan([]byte(raw)))
	require.Len(t, q, 1)
	assert.Equal(t, "garbage", q[0].FixedTime)

	_, err := q[0].FixedAt(time.UTC)
	assert.Error(t, err)
}

func TestMediaQueueScanNil(t *testing.T) {
	var q MediaQueue
	require.NoError(t, q.Scan(nil))
	assert.Empty(t, q)
}

func TestMediaQueueNilValue(t *testing.T) {
	var q MediaQueue
	val, err := q.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), val)
}

func TestCountPending(t *testing.T) {
	q := MediaQueue{
		{MediaID: "a", Mode: ModeRange, Status: StatusPending},
		{MediaID: "b", Mode: ModeRange, Status: StatusCompleted},
		{MediaID: "c", Mode: ModeFixedTime, Status: StatusPending},
		{MediaID: "d", Mode: ModeRange, Status: StatusMissed},
	}

	pending, pendingRange := q.CountPending()
	assert.Equal(t, 2, pending)
	assert.Equal(t, 1, pendingRange)
}

func TestFixedAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	e := QueueEntry{Mode: ModeFixedTime, FixedTime: "2025-06-10 14:30:00"}
	at, err := e.FixedAt(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 14, 30, 0, 0, loc), at)

	rangeEntry := QueueEntry{Mode: ModeRange}
	_, err = rangeEntry.FixedAt(loc)
	assert.Error(t, err)
}
