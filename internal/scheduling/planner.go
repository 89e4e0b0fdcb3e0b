package scheduling

import (
	"time"
)

// minSlotInterval guards against degenerate zero-length slots when the
// window is short relative to the number of pending range posts.
const minSlotInterval = 60 * time.Second

// PlanNext computes the single next posting instant for an account.
//
// rangeCount is the number of range-mode posts schedulable today (already
// capped); fixedTimes are the parsed timestamps of future pending fixed_time
// entries, sorted ascending. The result is the earlier of the range
// candidate and the fixed candidate; on an exact tie the fixed entry wins,
// since exact commitments take priority over best-effort range slots. ok is
// false when nothing is schedulable this cycle.
func PlanNext(now time.Time, w Window, rangeCount int, fixedTimes []time.Time) (next time.Time, ok bool) {
	rangeCandidate, haveRange := nextRangeSlot(now, w, rangeCount)

	var fixedCandidate time.Time
	haveFixed := false
	for _, ft := range fixedTimes {
		if ft.After(now) {
			fixedCandidate = ft
			haveFixed = true
			break
		}
	}

	switch {
	case haveFixed && haveRange:
		if !rangeCandidate.Before(fixedCandidate) {
			return fixedCandidate, true
		}
		return rangeCandidate, true
	case haveFixed:
		return fixedCandidate, true
	case haveRange:
		return rangeCandidate, true
	}
	return time.Time{}, false
}

// nextRangeSlot returns the earliest still-future slot of the range
// sub-schedule. A lone post lands on the window midpoint rather than firing
// immediately; several posts divide the window into equal intervals with a
// slot at the start of each.
func nextRangeSlot(now time.Time, w Window, count int) (time.Time, bool) {
	if count <= 0 || w.Duration() <= 0 {
		return time.Time{}, false
	}

	if count == 1 {
		mid := w.Start.Add(w.Duration() / 2)
		if mid.After(now) {
			return mid, true
		}
		return time.Time{}, false
	}

	interval := w.Duration() / time.Duration(count)
	if interval < minSlotInterval {
		interval = minSlotInterval
	}
	for i := 0; i < count; i++ {
		slot := w.Start.Add(time.Duration(i) * interval)
		if slot.After(now) {
			return slot, true
		}
	}
	return time.Time{}, false
}
