package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"autopost/internal/models"
	"autopost/internal/repository"
	"autopost/internal/transfer"
)

type ScheduleService interface {
	UpdateConfig(ctx context.Context, userID int64, platform string, accountID int64, sc *transfer.ScheduleConfigRequest) error
	AddMedia(ctx context.Context, userID int64, platform string, accountID int64, qe *transfer.QueueEntryRequest, file *multipart.FileHeader) error
	Status(ctx context.Context, userID int64) ([]*transfer.ScheduleStatus, error)
	History(ctx context.Context, userID int64) ([]*models.PostingHistory, error)
	Reset(ctx context.Context, platform string) (int64, error)
}

type scheduleService struct {
	a   repository.AccountRepository
	ph  repository.PostingHistoryRepository
	r2  *R2Service
	loc *time.Location
}

func NewScheduleService(a repository.AccountRepository, ph repository.PostingHistoryRepository, r2 *R2Service, loc *time.Location) ScheduleService {
	return &scheduleService{
		a:   a,
		ph:  ph,
		r2:  r2,
		loc: loc,
	}
}

// UpdateConfig replaces an account's posting window and daily cap. Clearing a
// bound is done by sending it empty.
func (s *scheduleService) UpdateConfig(ctx context.Context, userID int64, platform string, accountID int64, sc *transfer.ScheduleConfigRequest) error {
	if sc == nil {
		err := errors.New("schedule config is nil")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.a.CheckByUserID(ctx, platform, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	var start, end models.NullTimeOfDay
	if sc.StartTime != "" {
		tod, err := models.ParseTimeOfDay(sc.StartTime)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("invalid start_time: %v", err)
		}
		start = models.NullTimeOfDay{TimeOfDay: tod, Valid: true}
	}
	if sc.EndTime != "" {
		tod, err := models.ParseTimeOfDay(sc.EndTime)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("invalid end_time: %v", err)
		}
		end = models.NullTimeOfDay{TimeOfDay: tod, Valid: true}
	}

	var cap sql.NullInt64
	if sc.DailyCap != nil {
		if *sc.DailyCap < 0 {
			return errors.New("daily_cap cannot be negative")
		}
		cap = sql.NullInt64{Int64: *sc.DailyCap, Valid: true}
	}

	return s.a.UpdateScheduleConfig(ctx, platform, accountID, start, end, cap)
}

// AddMedia uploads one file to object storage and appends it to the account's
// posting queue as a pending entry.
func (s *scheduleService) AddMedia(ctx context.Context, userID int64, platform string, accountID int64, qe *transfer.QueueEntryRequest, file *multipart.FileHeader) error {
	if file == nil {
		err := errors.New("no file provided")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.a.CheckByUserID(ctx, platform, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	mode := models.ScheduleMode(qe.Mode)
	switch mode {
	case models.ModeRange:
	case models.ModeFixedTime:
		if _, err := time.ParseInLocation(models.FixedTimeLayout, qe.FixedTime, s.loc); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("invalid fixed_time, expected %q", models.FixedTimeLayout)
		}
	default:
		return fmt.Errorf("invalid schedule mode %q", qe.Mode)
	}

	fileContent, err := file.Open()
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return fmt.Errorf("error reading file content: %w", err)
	}

	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	mediaID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := s.r2.Upload(ctx, mediaID, fileBytes, fileType.MIME.Value); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("error uploading file: %w", err)
	}

	entry := models.QueueEntry{
		MediaID:   mediaID,
		MediaName: file.Filename,
		Mode:      mode,
		FixedTime: qe.FixedTime,
		Status:    models.StatusPending,
		Caption:   qe.Caption,
	}

	return s.a.AppendQueueEntry(ctx, platform, accountID, entry)
}

func (s *scheduleService) Status(ctx context.Context, userID int64) ([]*transfer.ScheduleStatus, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	statuses := make([]*transfer.ScheduleStatus, 0)
	for _, platform := range models.Platforms {
		accounts, err := s.a.ListByUserID(ctx, platform, userID)
		if err != nil {
			return nil, fmt.Errorf("Error getting %s accounts", platform)
		}

		for _, acc := range accounts {
			st := &transfer.ScheduleStatus{
				AccountID:    acc.AccountID,
				Platform:     platform,
				Username:     acc.AccountUsername,
				CapRemaining: acc.DailyCapRemaining,
				TotalMedia:   acc.TotalMedia,
				PendingCount: acc.PendingCount,
				NextPostTime: acc.NextPostTime,
				Selected:     acc.Selected,
				Done:         acc.Done,
			}
			if acc.StartTime.Valid {
				st.StartTime = acc.StartTime.TimeOfDay.String()
			}
			if acc.EndTime.Valid {
				st.EndTime = acc.EndTime.TimeOfDay.String()
			}
			if acc.DailyCap.Valid {
				cap := acc.DailyCap.Int64
				st.DailyCap = &cap
			}
			statuses = append(statuses, st)
		}
	}

	return statuses, nil
}

func (s *scheduleService) History(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	history, err := s.ph.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting posting history")
	}
	return history, nil
}

// Reset clears the scheduling decision for every account on a platform (or
// "all") so the next cycle replans from scratch.
func (s *scheduleService) Reset(ctx context.Context, platform string) (int64, error) {
	if platform != "all" {
		return s.a.ResetSchedule(ctx, platform)
	}

	var total int64
	for _, p := range models.Platforms {
		n, err := s.a.ResetSchedule(ctx, p)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
