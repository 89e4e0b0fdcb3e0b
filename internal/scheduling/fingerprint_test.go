package scheduling

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/internal/models"
)

func testAccount() *models.Account {
	return &models.Account{
		ID:           1,
		StartTime:    models.NullTimeOfDay{TimeOfDay: tod(9, 0), Valid: true},
		EndTime:      models.NullTimeOfDay{TimeOfDay: tod(17, 0), Valid: true},
		PendingCount: 2,
		Queue: models.MediaQueue{
			rangeEntry("a", models.StatusPending),
			rangeEntry("b", models.StatusPending),
		},
	}
}

func TestFingerprint_StableForIdenticalInputs(t *testing.T) {
	today := at(10, 0, 0)
	assert.Equal(t, Fingerprint(testAccount(), today), Fingerprint(testAccount(), today))
}

func TestFingerprint_ChangesWithInputs(t *testing.T) {
	today := at(10, 0, 0)
	base := Fingerprint(testAccount(), today)

	moved := testAccount()
	moved.EndTime = models.NullTimeOfDay{TimeOfDay: tod(18, 0), Valid: true}
	assert.NotEqual(t, base, Fingerprint(moved, today))

	fewer := testAccount()
	fewer.PendingCount = 1
	assert.NotEqual(t, base, Fingerprint(fewer, today))

	capped := testAccount()
	capped.DailyCap = sql.NullInt64{Int64: 3, Valid: true}
	assert.NotEqual(t, base, Fingerprint(capped, today))

	edited := testAccount()
	edited.Queue[0].Caption = "different"
	assert.NotEqual(t, base, Fingerprint(edited, today))

	assert.NotEqual(t, base, Fingerprint(testAccount(), today.AddDate(0, 0, 1)),
		"date is a planning input")
}

func TestNeedsReplan_KeepsValidDecision(t *testing.T) {
	now := at(10, 0, 0)
	next := at(13, 0, 0)
	fp := Fingerprint(testAccount(), now)

	replan, _ := NeedsReplan(now, &next, fp, fp)
	assert.False(t, replan, "unchanged inputs must keep the stored decision")
}

func TestNeedsReplan_MissingOrStale(t *testing.T) {
	now := at(10, 0, 0)

	replan, reason := NeedsReplan(now, nil, "x", "x")
	assert.True(t, replan)
	assert.Equal(t, "no valid next_post_time", reason)

	past := at(9, 0, 0)
	replan, _ = NeedsReplan(now, &past, "x", "x")
	assert.True(t, replan)

	exact := at(10, 0, 0)
	replan, _ = NeedsReplan(now, &exact, "x", "x")
	assert.True(t, replan, "a slot equal to now is already due")
}

func TestNeedsReplan_FingerprintMismatch(t *testing.T) {
	now := at(10, 0, 0)
	next := at(13, 0, 0)

	replan, reason := NeedsReplan(now, &next, "old", "new")
	assert.True(t, replan)
	assert.Equal(t, "schedule configuration changed", reason)
}

func TestNeedsReplan_DayBoundary(t *testing.T) {
	// Stored slot is numerically in the future but carries yesterday's
	// date relative to now (clock moved back across midnight).
	now := time.Date(2025, 6, 10, 23, 58, 0, 0, testLoc)
	stored := time.Date(2025, 6, 11, 0, 30, 0, 0, testLoc)
	fp := "same"

	replan, reason := NeedsReplan(now, &stored, fp, fp)
	require.True(t, replan)
	assert.Equal(t, "crossing day boundary", reason)
}

func TestPlannerIdempotence(t *testing.T) {
	// Running guard + planner twice with no queue or clock change yields
	// the identical instant: first pass replans, second keeps.
	now := at(9, 30, 0)
	acc := testAccount()

	fp := Fingerprint(acc, now)
	replan, _ := NeedsReplan(now, acc.NextPostTime, acc.ScheduleFingerprint, fp)
	require.True(t, replan)

	w := ResolveWindow(now, acc.StartTime.TimeOfDay, acc.EndTime.TimeOfDay)
	next, ok := PlanNext(now, w, 2, nil)
	require.True(t, ok)
	acc.NextPostTime = &next
	acc.ScheduleFingerprint = fp

	fp2 := Fingerprint(acc, now)
	replan, _ = NeedsReplan(now, acc.NextPostTime, acc.ScheduleFingerprint, fp2)
	assert.False(t, replan, "second pass must not jitter the decision")
	assert.Equal(t, next, *acc.NextPostTime)
}
