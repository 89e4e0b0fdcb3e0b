package scheduling

import (
	"time"

	"autopost/internal/models"
)

// Window is a posting window resolved to concrete instants. Slot positions
// stay anchored to the nominal Start even when now is already inside the
// window; the planner's strictly-future filter is what keeps slots from being
// backdated. Anchoring prevents the computed slots from creeping forward on
// every cycle.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// ResolveWindow turns a start/end time-of-day pair into concrete datetimes
// for the applicable day. An end at or before start means the window crosses
// midnight; a window already fully past rolls to the next day.
func ResolveWindow(now time.Time, start, end models.TimeOfDay) Window {
	ws := start.On(now)
	we := end.On(now)

	if !we.After(ws) {
		we = we.AddDate(0, 0, 1)
	}
	if now.After(we) {
		ws = ws.AddDate(0, 0, 1)
		we = we.AddDate(0, 0, 1)
	}
	return Window{Start: ws, End: we}
}

// InWindow reports whether now's time of day falls inside [start, end].
// Membership is evaluated against the wall clock only, independent of date
// rollover. A window whose end precedes its start wraps past midnight and is
// satisfied on either side of it.
func InWindow(now time.Time, start, end models.TimeOfDay) bool {
	tod := now.Hour()*3600 + now.Minute()*60 + now.Second()
	s := start.SecondsOfDay()
	e := end.SecondsOfDay()
	if e < s {
		return tod >= s || tod <= e
	}
	return tod >= s && tod <= e
}
