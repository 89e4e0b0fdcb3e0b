package scheduling

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/internal/models"
)

type fakeStore struct {
	accounts map[string][]*models.Account
	updated  map[string]int
	listErr  map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string][]*models.Account{},
		updated:  map[string]int{},
		listErr:  map[string]error{},
	}
}

func (f *fakeStore) ListActive(_ context.Context, platform string) ([]*models.Account, error) {
	if err := f.listErr[platform]; err != nil {
		return nil, err
	}
	return f.accounts[platform], nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, platform string, _ *models.Account) error {
	f.updated[platform]++
	return nil
}

func (f *fakeStore) EarliestPostTime(_ context.Context, platform string) (*time.Time, error) {
	if err := f.listErr[platform]; err != nil {
		return nil, err
	}
	var earliest *time.Time
	for _, acc := range f.accounts[platform] {
		if !acc.Selected || acc.Done || acc.PendingCount == 0 || acc.NextPostTime == nil {
			continue
		}
		if earliest == nil || acc.NextPostTime.Before(*earliest) {
			earliest = acc.NextPostTime
		}
	}
	return earliest, nil
}

type fakeDispatcher struct {
	calls []struct {
		platform string
		at       time.Time
	}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, platform string, at time.Time) error {
	f.calls = append(f.calls, struct {
		platform string
		at       time.Time
	}{platform, at})
	return nil
}

func newTestRunner(store *fakeStore, disp *fakeDispatcher, now time.Time) *Runner {
	r := NewRunner(store, disp, []string{models.PlatformInstagram, models.PlatformTelegram}, testLoc)
	r.nowFn = func() time.Time { return now }
	return r
}

func cycleAccount(entries ...models.QueueEntry) *models.Account {
	acc := testAccount()
	acc.Queue = entries
	pending, _ := acc.Queue.CountPending()
	acc.PendingCount = pending
	acc.TotalMedia = len(entries)
	return acc
}

func TestRunCycle_PlansAndDispatchesEarliestPlatform(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	ig := cycleAccount(rangeEntry("a", models.StatusPending))
	tg := cycleAccount(rangeEntry("b", models.StatusPending), rangeEntry("c", models.StatusPending))
	store.accounts[models.PlatformInstagram] = []*models.Account{ig}
	store.accounts[models.PlatformTelegram] = []*models.Account{tg}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))

	require.NotNil(t, ig.NextPostTime)
	assert.Equal(t, at(13, 0, 0), *ig.NextPostTime)
	assert.True(t, ig.Selected)

	require.Len(t, disp.calls, 1)
}

func TestRunCycle_ExhaustedAccountClearsCommitment(t *testing.T) {
	now := at(9, 30, 0)
	old := at(11, 0, 0)
	store := newFakeStore()
	acc := cycleAccount(rangeEntry("a", models.StatusCompleted))
	acc.NextPostTime = &old
	acc.Selected = true
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))

	assert.True(t, acc.Done)
	assert.False(t, acc.Selected)
	assert.Nil(t, acc.NextPostTime)
	assert.Equal(t, 0, acc.PendingCount)
	assert.Equal(t, 1, acc.TotalMedia)
}

func TestRunCycle_IdleSweepDispatchesAllPlatforms(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))

	require.Len(t, disp.calls, 2)
	assert.Equal(t, models.PlatformInstagram, disp.calls[0].platform)
	assert.Equal(t, models.PlatformTelegram, disp.calls[1].platform)
}

func TestRunCycle_AllPlatformsUnreachableAborts(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	store.listErr[models.PlatformInstagram] = errors.New("connection refused")
	store.listErr[models.PlatformTelegram] = errors.New("connection refused")
	disp := &fakeDispatcher{}

	err := newTestRunner(store, disp, now).RunCycle(context.Background())
	assert.Error(t, err)
	assert.Empty(t, disp.calls)
}

func TestRunCycle_OnePlatformFailingIsSkipped(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	store.listErr[models.PlatformTelegram] = errors.New("connection refused")
	acc := cycleAccount(rangeEntry("a", models.StatusPending))
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))
	require.NotNil(t, acc.NextPostTime)
}

func TestRunCycle_KeepsDecisionAcrossRepeatedRuns(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	acc := cycleAccount(rangeEntry("a", models.StatusPending))
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}
	runner := newTestRunner(store, disp, now)

	require.NoError(t, runner.RunCycle(context.Background()))
	first := *acc.NextPostTime
	fp := acc.ScheduleFingerprint

	// Second run one tick later: nothing changed, decision must hold.
	runner.nowFn = func() time.Time { return now.Add(30 * time.Second) }
	require.NoError(t, runner.RunCycle(context.Background()))

	assert.Equal(t, first, *acc.NextPostTime)
	assert.Equal(t, fp, acc.ScheduleFingerprint)
}

func TestRunCycle_DailyCapGatesRangePosts(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	acc := cycleAccount(
		rangeEntry("a", models.StatusPending),
		rangeEntry("b", models.StatusPending),
		rangeEntry("c", models.StatusPending),
		rangeEntry("d", models.StatusPending),
		rangeEntry("e", models.StatusPending),
	)
	acc.DailyCap = sql.NullInt64{Int64: 2, Valid: true}
	// Two completions already consumed today's allowance.
	acc.DailyCapRemaining = 0
	acc.LastResetDate = sql.NullTime{Time: at(0, 0, 0), Valid: true}
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))
	assert.Nil(t, acc.NextPostTime, "cap exhausted: no range slot until tomorrow's reset")

	// Next day the cap resets and planning resumes.
	nextDay := now.AddDate(0, 0, 1)
	require.NoError(t, newTestRunner(store, disp, nextDay).RunCycle(context.Background()))
	assert.Equal(t, 2, acc.DailyCapRemaining)
	require.NotNil(t, acc.NextPostTime)
}

func TestRunCycle_CapDoesNotBlockFixedTime(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	acc := cycleAccount(
		rangeEntry("a", models.StatusPending),
		fixedEntry("f", "2025-06-10 11:00:00", models.StatusPending),
	)
	acc.DailyCap = sql.NullInt64{Int64: 1, Valid: true}
	acc.DailyCapRemaining = 0
	acc.LastResetDate = sql.NullTime{Time: at(0, 0, 0), Valid: true}
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))
	require.NotNil(t, acc.NextPostTime)
	assert.Equal(t, at(11, 0, 0), *acc.NextPostTime)
}

func TestRunCycle_MissedFixedEntryExcludedFromPlanning(t *testing.T) {
	now := at(12, 0, 0)
	store := newFakeStore()
	acc := cycleAccount(fixedEntry("f", "2025-06-10 10:00:00", models.StatusPending))
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))

	assert.Equal(t, models.StatusMissed, acc.Queue[0].Status)
	assert.True(t, acc.Done, "a fully missed queue has no pending work")
	assert.Nil(t, acc.NextPostTime)
}

func TestRunCycle_OutsideWindowNotSelected(t *testing.T) {
	now := at(20, 0, 0)
	store := newFakeStore()
	acc := cycleAccount(rangeEntry("a", models.StatusPending))
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))

	assert.False(t, acc.Selected)
	// The plan still exists (tomorrow's window) but the worker query filters
	// on selected, so nothing fires until the window reopens.
	require.NotNil(t, acc.NextPostTime)
	assert.Equal(t, at(13, 0, 0).AddDate(0, 0, 1), *acc.NextPostTime)
}

func TestRunCycle_NoWindowConfiguredSkipsPlanning(t *testing.T) {
	now := at(9, 30, 0)
	store := newFakeStore()
	acc := cycleAccount(rangeEntry("a", models.StatusPending))
	acc.StartTime = models.NullTimeOfDay{}
	acc.EndTime = models.NullTimeOfDay{}
	store.accounts[models.PlatformInstagram] = []*models.Account{acc}
	disp := &fakeDispatcher{}

	require.NoError(t, newTestRunner(store, disp, now).RunCycle(context.Background()))
	assert.Nil(t, acc.NextPostTime)
}
