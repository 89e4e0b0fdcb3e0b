package scheduling

import (
	"log/slog"
	"time"

	"autopost/internal/models"
)

// Reconcile normalizes an account's queue against the clock:
//   - pending fixed_time entries whose timestamp has passed become missed,
//   - missed fixed_time entries whose timestamp is in the future again revert
//     to pending,
//   - missed range entries always revert to pending; range posts reflow into
//     the next window instead of expiring.
//
// Entries with an unparseable fixed_time are logged and left untouched. The
// input slice is not mutated; the returned flag reports whether anything
// changed.
func Reconcile(now time.Time, queue models.MediaQueue, loc *time.Location) (models.MediaQueue, bool) {
	if len(queue) == 0 {
		return queue, false
	}

	out := make(models.MediaQueue, len(queue))
	copy(out, queue)

	changed := false
	for i := range out {
		e := &out[i]
		switch e.Mode {
		case models.ModeFixedTime:
			if e.Status != models.StatusPending && e.Status != models.StatusMissed {
				continue
			}
			at, err := e.FixedAt(loc)
			if err != nil {
				slog.Warn("skipping malformed queue entry",
					"media_id", e.MediaID, "fixed_time", e.FixedTime, "error", err.Error())
				continue
			}
			if e.Status == models.StatusPending && at.Before(now) {
				e.Status = models.StatusMissed
				changed = true
			} else if e.Status == models.StatusMissed && at.After(now) {
				e.Status = models.StatusPending
				changed = true
			}
		case models.ModeRange:
			if e.Status == models.StatusMissed {
				e.Status = models.StatusPending
				changed = true
			}
		}
	}

	if !changed {
		return queue, false
	}
	return out, true
}
