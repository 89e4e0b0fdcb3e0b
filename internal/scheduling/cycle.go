package scheduling

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"autopost/internal/models"
)

// AccountStore is the slice of the persistence layer the cycle needs.
type AccountStore interface {
	ListActive(ctx context.Context, platform string) ([]*models.Account, error)
	UpdateSchedule(ctx context.Context, platform string, acc *models.Account) error
	EarliestPostTime(ctx context.Context, platform string) (*time.Time, error)
}

// Dispatcher hands a platform off to its posting worker. Dispatch carries no
// account: the worker independently re-queries for its own earliest-due
// account at execution time.
type Dispatcher interface {
	Dispatch(ctx context.Context, platform string, at time.Time) error
}

type Runner struct {
	store     AccountStore
	disp      Dispatcher
	platforms []string
	loc       *time.Location
	nowFn     func() time.Time
}

func NewRunner(store AccountStore, disp Dispatcher, platforms []string, loc *time.Location) *Runner {
	return &Runner{
		store:     store,
		disp:      disp,
		platforms: platforms,
		loc:       loc,
		nowFn:     time.Now,
	}
}

// RunCycle performs one scheduling pass over every account on every
// platform, then dispatches the posting worker for the platform holding the
// globally earliest commitment. Per-account and per-platform failures are
// logged and skipped; the cycle only fails when no platform store is
// reachable at all.
func (r *Runner) RunCycle(ctx context.Context) error {
	now := r.nowFn().In(r.loc)

	reachable := 0
	for _, platform := range r.platforms {
		accounts, err := r.store.ListActive(ctx, platform)
		if err != nil {
			slog.Error("listing accounts failed", "platform", platform, "error", err.Error())
			continue
		}
		reachable++

		for _, acc := range accounts {
			if err := r.runAccount(ctx, now, platform, acc); err != nil {
				slog.Error("account cycle failed",
					"platform", platform, "account_id", acc.ID, "error", err.Error())
			}
		}
	}
	if reachable == 0 {
		return fmt.Errorf("no platform store reachable, aborting cycle")
	}

	return r.dispatchNext(ctx, now)
}

// runAccount applies the full per-account pipeline: reconcile, recount,
// daily-cap reset, eligibility, invalidation guard, planning, persist.
func (r *Runner) runAccount(ctx context.Context, now time.Time, platform string, acc *models.Account) error {
	queue, queueChanged := Reconcile(now, acc.Queue, r.loc)
	acc.Queue = queue

	pending, pendingRange := queue.CountPending()
	countersChanged := acc.TotalMedia != len(queue) || acc.PendingCount != pending
	acc.TotalMedia = len(queue)
	acc.PendingCount = pending

	// Exhausted accounts carry no commitment and skip planning entirely.
	if pending == 0 {
		acc.Done = true
		acc.Selected = false
		acc.NextPostTime = nil
		acc.ScheduleFingerprint = Fingerprint(acc, now)
		return r.store.UpdateSchedule(ctx, platform, acc)
	}
	acc.Done = false

	capReset := resetDailyCap(acc, now)

	if !acc.StartTime.Valid || !acc.EndTime.Valid {
		slog.Warn("account has no posting window configured",
			"platform", platform, "account_id", acc.ID)
		if queueChanged || countersChanged || capReset {
			return r.store.UpdateSchedule(ctx, platform, acc)
		}
		return nil
	}

	acc.Selected = InWindow(now, acc.StartTime.TimeOfDay, acc.EndTime.TimeOfDay)

	fp := Fingerprint(acc, now)
	replan, reason := NeedsReplan(now, acc.NextPostTime, acc.ScheduleFingerprint, fp)
	if replan {
		window := ResolveWindow(now, acc.StartTime.TimeOfDay, acc.EndTime.TimeOfDay)
		rangeCount := effectiveRangeCount(acc, pendingRange)
		fixed := futureFixedTimes(queue, r.loc)

		if next, ok := PlanNext(now, window, rangeCount, fixed); ok {
			acc.NextPostTime = &next
		} else {
			acc.NextPostTime = nil
			acc.Selected = false
		}
		acc.ScheduleFingerprint = fp

		slog.Info("replanned account",
			"platform", platform, "account_id", acc.ID,
			"reason", reason, "next_post_time", acc.NextPostTime)
	}

	return r.store.UpdateSchedule(ctx, platform, acc)
}

// dispatchNext performs the cross-platform selection: the platform holding
// the globally earliest next_post_time gets its worker dispatched at that
// instant. When no account anywhere has a commitment, every worker is swept
// once so first-run accounts get a chance to post immediately.
func (r *Runner) dispatchNext(ctx context.Context, now time.Time) error {
	var bestPlatform string
	var bestTime time.Time

	for _, platform := range r.platforms {
		earliest, err := r.store.EarliestPostTime(ctx, platform)
		if err != nil {
			slog.Error("querying earliest post time failed",
				"platform", platform, "error", err.Error())
			continue
		}
		if earliest == nil {
			continue
		}
		if bestPlatform == "" || earliest.Before(bestTime) {
			bestPlatform = platform
			bestTime = *earliest
		}
	}

	if bestPlatform == "" {
		for _, platform := range r.platforms {
			if err := r.disp.Dispatch(ctx, platform, now); err != nil {
				slog.Error("idle sweep dispatch failed", "platform", platform, "error", err.Error())
			}
		}
		return nil
	}

	// A slot already in the past is treated as due now rather than an error.
	at := bestTime
	if at.Before(now) {
		at = now
	}
	if err := r.disp.Dispatch(ctx, bestPlatform, at); err != nil {
		slog.Error("worker dispatch failed", "platform", bestPlatform, "error", err.Error())
	}
	return nil
}

// resetDailyCap restores daily_cap_remaining once per calendar day. Reports
// whether a reset was applied.
func resetDailyCap(acc *models.Account, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if acc.LastResetDate.Valid {
		last := acc.LastResetDate.Time.In(now.Location())
		if last.Year() == today.Year() && last.YearDay() == today.YearDay() {
			return false
		}
	}
	if acc.DailyCap.Valid {
		acc.DailyCapRemaining = int(acc.DailyCap.Int64)
	} else {
		acc.DailyCapRemaining = 0
	}
	acc.LastResetDate = sql.NullTime{Time: today, Valid: true}
	return true
}

// effectiveRangeCount applies the daily cap to the pending range count. A
// NULL cap means unlimited; the cap never affects fixed_time entries.
func effectiveRangeCount(acc *models.Account, pendingRange int) int {
	if !acc.DailyCap.Valid {
		return pendingRange
	}
	if acc.DailyCapRemaining < pendingRange {
		return acc.DailyCapRemaining
	}
	return pendingRange
}

// futureFixedTimes collects the parsed timestamps of pending fixed_time
// entries, sorted ascending. Malformed entries are treated as absent; the
// reconciler already logged them.
func futureFixedTimes(queue models.MediaQueue, loc *time.Location) []time.Time {
	var out []time.Time
	for i := range queue {
		e := &queue[i]
		if e.Mode != models.ModeFixedTime || e.Status != models.StatusPending {
			continue
		}
		at, err := e.FixedAt(loc)
		if err != nil {
			continue
		}
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
