package scheduling

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"autopost/internal/models"
)

// Fingerprint hashes every input that influences planning for an account:
// window bounds, pending count, the raw queue serialization, the daily cap
// and today's calendar date. A stored decision stays valid only while this
// hash is unchanged.
func Fingerprint(acc *models.Account, today time.Time) string {
	cap := "none"
	if acc.DailyCap.Valid {
		cap = fmt.Sprintf("%d", acc.DailyCap.Int64)
	}
	start, end := "", ""
	if acc.StartTime.Valid {
		start = acc.StartTime.TimeOfDay.String()
	}
	if acc.EndTime.Valid {
		end = acc.EndTime.TimeOfDay.String()
	}

	input := fmt.Sprintf("%s_%s_%d_%s_%s_%s",
		start, end, acc.PendingCount, acc.Queue.Raw(), cap, today.Format("2006-01-02"))

	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// NeedsReplan decides whether the stored next_post_time can be kept. The
// keep path is what makes repeated cycles idempotent: without it every poll
// would jitter a previously computed instant forward.
func NeedsReplan(now time.Time, stored *time.Time, storedFingerprint, currentFingerprint string) (bool, string) {
	if stored == nil || !stored.After(now) {
		return true, "no valid next_post_time"
	}
	if storedFingerprint != currentFingerprint {
		return true, "schedule configuration changed"
	}
	sy, sm, sd := stored.Date()
	ny, nm, nd := now.Date()
	if sy != ny || sm != nm || sd != nd {
		return true, "crossing day boundary"
	}
	return false, ""
}
