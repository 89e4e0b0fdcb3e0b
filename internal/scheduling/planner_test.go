package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

func at(hour, min, sec int) time.Time {
	return time.Date(2025, 6, 10, hour, min, sec, 0, testLoc)
}

func window(startHour, endHour int) Window {
	return Window{Start: at(startHour, 0, 0), End: at(endHour, 0, 0)}
}

func TestPlanNext_SingleRangePostLandsOnMidpoint(t *testing.T) {
	now := at(9, 0, 0)

	next, ok := PlanNext(now, window(9, 17), 1, nil)
	require.True(t, ok)
	assert.Equal(t, at(13, 0, 0), next, "lone range post should land mid-window")
}

func TestPlanNext_SingleRangePostMidpointAlreadyPast(t *testing.T) {
	now := at(14, 0, 0)

	_, ok := PlanNext(now, window(9, 17), 1, nil)
	assert.False(t, ok, "midpoint behind now yields no range slot this cycle")
}

func TestPlanNext_EvenSpacing(t *testing.T) {
	// Fix now just past the window start so the first slot (09:00) is not
	// strictly future and the second one is the candidate.
	now := at(9, 0, 1)

	next, ok := PlanNext(now, window(9, 17), 3, nil)
	require.True(t, ok)
	assert.Equal(t, at(11, 40, 0), next, "8h window / 3 posts = 2h40m interval")
}

func TestPlanNext_EvenSpacingFirstSlotStillFuture(t *testing.T) {
	now := at(8, 59, 59)

	next, ok := PlanNext(now, window(9, 17), 3, nil)
	require.True(t, ok)
	assert.Equal(t, at(9, 0, 0), next)
}

func TestPlanNext_EvenSpacingAdvancesThroughSlots(t *testing.T) {
	now := at(11, 41, 0)

	next, ok := PlanNext(now, window(9, 17), 3, nil)
	require.True(t, ok)
	assert.Equal(t, at(14, 20, 0), next)
}

func TestPlanNext_FixedTimeWinsExactTie(t *testing.T) {
	now := at(9, 0, 1)
	// 10h window / 2 posts puts the second range slot at 14:00 sharp.
	w := window(9, 19)

	fixed := []time.Time{at(14, 0, 0)}
	next, ok := PlanNext(now, w, 2, fixed)
	require.True(t, ok)
	assert.Equal(t, at(14, 0, 0), next)

	// Same instant without the fixed entry comes from the range schedule.
	rangeOnly, ok := PlanNext(now, w, 2, nil)
	require.True(t, ok)
	assert.Equal(t, at(14, 0, 0), rangeOnly)
}

func TestPlanNext_EarlierFixedBeatsMidpoint(t *testing.T) {
	now := at(9, 0, 0)

	next, ok := PlanNext(now, window(9, 17), 1, []time.Time{at(10, 30, 0)})
	require.True(t, ok)
	assert.Equal(t, at(10, 30, 0), next)
}

func TestPlanNext_RangeBeatsLaterFixed(t *testing.T) {
	now := at(9, 0, 0)

	next, ok := PlanNext(now, window(9, 17), 1, []time.Time{at(16, 0, 0)})
	require.True(t, ok)
	assert.Equal(t, at(13, 0, 0), next)
}

func TestPlanNext_PastFixedTimesIgnored(t *testing.T) {
	now := at(12, 0, 0)

	next, ok := PlanNext(now, window(9, 17), 0, []time.Time{at(10, 0, 0), at(15, 0, 0)})
	require.True(t, ok)
	assert.Equal(t, at(15, 0, 0), next)
}

func TestPlanNext_NothingSchedulable(t *testing.T) {
	now := at(12, 0, 0)

	_, ok := PlanNext(now, window(9, 17), 0, nil)
	assert.False(t, ok)
}

func TestPlanNext_ZeroRangeCountBlocksRangeOnly(t *testing.T) {
	now := at(9, 0, 0)

	// Daily cap exhausted: fixed entries are unaffected.
	next, ok := PlanNext(now, window(9, 17), 0, []time.Time{at(11, 0, 0)})
	require.True(t, ok)
	assert.Equal(t, at(11, 0, 0), next)
}

func TestNextRangeSlot_MinimumInterval(t *testing.T) {
	// A 3 minute window with 10 posts would produce 18s slots; the 60s
	// floor keeps them apart.
	w := Window{Start: at(9, 0, 0), End: at(9, 3, 0)}
	now := at(9, 0, 30)

	slot, ok := nextRangeSlot(now, w, 10)
	require.True(t, ok)
	assert.Equal(t, at(9, 1, 0), slot)
}
