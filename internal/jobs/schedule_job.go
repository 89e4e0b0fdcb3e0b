package job

import (
	"context"
	"log/slog"

	"autopost/internal/scheduling"
)

// ScheduleJob drives one scheduling pass from the cron loop.
type ScheduleJob struct {
	runner *scheduling.Runner
}

func NewScheduleJob(runner *scheduling.Runner) *ScheduleJob {
	return &ScheduleJob{runner: runner}
}

func (j *ScheduleJob) Run() {
	ctx := context.Background()

	if err := j.runner.RunCycle(ctx); err != nil {
		slog.Error("scheduling cycle failed", "error", err.Error())
	}
}
