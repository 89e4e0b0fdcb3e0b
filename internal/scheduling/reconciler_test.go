package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/internal/models"
)

func fixedEntry(id, fixedTime string, status models.EntryStatus) models.QueueEntry {
	return models.QueueEntry{
		MediaID:   id,
		MediaName: id + ".mp4",
		Mode:      models.ModeFixedTime,
		FixedTime: fixedTime,
		Status:    status,
	}
}

func rangeEntry(id string, status models.EntryStatus) models.QueueEntry {
	return models.QueueEntry{
		MediaID:   id,
		MediaName: id + ".mp4",
		Mode:      models.ModeRange,
		Status:    status,
	}
}

func TestReconcile_FixedTimePassedBecomesMissed(t *testing.T) {
	now := at(12, 0, 0)
	queue := models.MediaQueue{fixedEntry("a", "2025-06-10 10:00:00", models.StatusPending)}

	out, changed := Reconcile(now, queue, testLoc)
	require.True(t, changed)
	assert.Equal(t, models.StatusMissed, out[0].Status)
	// input untouched
	assert.Equal(t, models.StatusPending, queue[0].Status)
}

func TestReconcile_MissedRoundTrip(t *testing.T) {
	queue := models.MediaQueue{fixedEntry("a", "2025-06-10 10:00:00", models.StatusPending)}

	out, changed := Reconcile(at(12, 0, 0), queue, testLoc)
	require.True(t, changed)
	require.Equal(t, models.StatusMissed, out[0].Status)

	// Clock correction: the timestamp is future again, entry reverts.
	out2, changed := Reconcile(at(9, 0, 0), out, testLoc)
	require.True(t, changed)
	assert.Equal(t, models.StatusPending, out2[0].Status)
}

func TestReconcile_MissedRangeAlwaysReverts(t *testing.T) {
	queue := models.MediaQueue{rangeEntry("a", models.StatusMissed)}

	out, changed := Reconcile(at(12, 0, 0), queue, testLoc)
	require.True(t, changed)
	assert.Equal(t, models.StatusPending, out[0].Status)
}

func TestReconcile_CompletedUntouched(t *testing.T) {
	queue := models.MediaQueue{
		fixedEntry("a", "2025-06-10 10:00:00", models.StatusCompleted),
		rangeEntry("b", models.StatusCompleted),
	}

	out, changed := Reconcile(at(12, 0, 0), queue, testLoc)
	assert.False(t, changed)
	assert.Equal(t, models.StatusCompleted, out[0].Status)
	assert.Equal(t, models.StatusCompleted, out[1].Status)
}

func TestReconcile_FutureFixedStaysPending(t *testing.T) {
	queue := models.MediaQueue{fixedEntry("a", "2025-06-10 15:00:00", models.StatusPending)}

	_, changed := Reconcile(at(12, 0, 0), queue, testLoc)
	assert.False(t, changed)
}

func TestReconcile_MalformedFixedTimeLeftAlone(t *testing.T) {
	queue := models.MediaQueue{
		fixedEntry("bad", "not-a-timestamp", models.StatusPending),
		fixedEntry("ok", "2025-06-10 10:00:00", models.StatusPending),
	}

	out, changed := Reconcile(at(12, 0, 0), queue, testLoc)
	require.True(t, changed)
	assert.Equal(t, models.StatusPending, out[0].Status)
	assert.Equal(t, "not-a-timestamp", out[0].FixedTime)
	assert.Equal(t, models.StatusMissed, out[1].Status)
}

func TestReconcile_EmptyQueue(t *testing.T) {
	out, changed := Reconcile(at(12, 0, 0), nil, testLoc)
	assert.False(t, changed)
	assert.Empty(t, out)
}
