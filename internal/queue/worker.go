package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"autopost/internal/models"
)

// clockSkew is how early a task may fire and still be treated as on time.
const clockSkew = 5 * time.Second

// fixedMatchWindow is how far a fixed entry's wall-clock time may drift from
// the planned slot and still claim it.
const fixedMatchWindow = 2 * time.Minute

func (w *Worker) HandleDispatchTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.publishNext(ctx, payload.Platform)
}

// publishNext posts the due entry for the platform's next-due account. The
// account is re-read at fire time: if the schedule moved since the task was
// enqueued, the task re-books itself instead of posting early.
func (w *Worker) publishNext(ctx context.Context, platform string) error {
	acc, err := w.a.GetNextDue(ctx, platform)
	if err != nil {
		return err
	}
	if acc == nil || acc.NextPostTime == nil {
		return nil
	}

	now := time.Now().In(w.loc)
	if acc.NextPostTime.After(now.Add(clockSkew)) {
		return EnqueueDispatch(w.client, platform, *acc.NextPostTime)
	}

	entry := SelectEntry(acc.Queue, *acc.NextPostTime, w.loc)
	if entry == nil {
		slog.Info("no pending entry to publish", "platform", platform, "account_id", acc.ID)
		return nil
	}

	mediaURL, err := w.r2.PresignGet(ctx, entry.MediaID, time.Hour)
	if err != nil {
		return err
	}

	publishErr := w.publish(ctx, platform, acc, entry, mediaURL)

	history := models.PostingHistory{
		UserID:    acc.UserID,
		Platform:  platform,
		AccountID: acc.ID,
		MediaID:   entry.MediaID,
	}
	if publishErr != nil {
		history.ErrorMessage = publishErr.Error()
	}
	if _, err := w.ph.Create(ctx, &history); err != nil {
		slog.Info(err.Error())
	}

	if publishErr != nil {
		slog.Error("publish failed", "platform", platform, "account_id", acc.ID, "media_id", entry.MediaID, "err", publishErr)
		return publishErr
	}

	if err := w.a.CompletePost(ctx, platform, acc.ID, entry.MediaID); err != nil {
		return err
	}

	if err := w.r2.Delete(ctx, entry.MediaID); err != nil {
		slog.Info(err.Error())
	}

	slog.Info("media published", "platform", platform, "account_id", acc.ID, "media_id", entry.MediaID)
	return nil
}

func (w *Worker) publish(ctx context.Context, platform string, acc *models.Account, entry *models.QueueEntry, mediaURL string) error {
	switch platform {
	case models.PlatformInstagram:
		return w.ig.PublishMedia(ctx, acc, entry, mediaURL)
	case models.PlatformTelegram:
		return w.tg.PublishMedia(ctx, acc, entry, mediaURL)
	case models.PlatformYoutube:
		return w.yt.PublishMedia(ctx, acc, entry, mediaURL)
	}
	slog.Info("unknown platform", "platform", platform)
	return nil
}

// SelectEntry picks the queue entry a slot belongs to. A pending fixed entry
// whose wall-clock time matches the slot takes it; otherwise the first pending
// range entry does.
func SelectEntry(queue models.MediaQueue, slot time.Time, loc *time.Location) *models.QueueEntry {
	for i := range queue {
		e := &queue[i]
		if e.Status != models.StatusPending || e.Mode != models.ModeFixedTime {
			continue
		}
		at, err := e.FixedAt(loc)
		if err != nil {
			continue
		}
		diff := at.Sub(slot)
		if diff < 0 {
			diff = -diff
		}
		if diff <= fixedMatchWindow {
			return e
		}
	}

	for i := range queue {
		e := &queue[i]
		if e.Status == models.StatusPending && e.Mode == models.ModeRange {
			return e
		}
	}

	return nil
}
