package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"autopost/internal/models"
)

// accountTables whitelists the per-platform table names; platform strings
// come from request paths and task payloads and are never interpolated
// without passing through here.
var accountTables = map[string]string{
	models.PlatformInstagram: "instagram",
	models.PlatformTelegram:  "telegram",
	models.PlatformYoutube:   "youtube",
}

func accountTable(platform string) (string, error) {
	table, ok := accountTables[platform]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	return table, nil
}

const accountColumns = `id, user_id, account_id, account_name, account_username,
	access_token, refresh_token, token_expires_at,
	start_time, end_time, daily_cap, daily_cap_remaining, last_reset_date,
	total_media, pending_count, next_post_time, schedule_fingerprint,
	selected, done, queue_data, created_at, updated_at`

type AccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, platform string, acc *models.Account) (int64, error)
	GetByID(ctx context.Context, platform string, id int64) (*models.Account, error)
	ListByUserID(ctx context.Context, platform string, userID int64) ([]*models.Account, error)
	ListActive(ctx context.Context, platform string) ([]*models.Account, error)
	GetNextDue(ctx context.Context, platform string) (*models.Account, error)
	EarliestPostTime(ctx context.Context, platform string) (*time.Time, error)
	UpdateSchedule(ctx context.Context, platform string, acc *models.Account) error
	UpdateScheduleConfig(ctx context.Context, platform string, id int64, start, end models.NullTimeOfDay, dailyCap sql.NullInt64) error
	AppendQueueEntry(ctx context.Context, platform string, id int64, entry models.QueueEntry) error
	CompletePost(ctx context.Context, platform string, id int64, mediaID string) error
	ResetSchedule(ctx context.Context, platform string) (int64, error)
	CheckByUserID(ctx context.Context, platform string, accountID, userID int64) (bool, error)
	SetToken(ctx context.Context, platform string, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	Remove(ctx context.Context, platform string, id int64) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	var acc models.Account
	err := row.Scan(&acc.ID, &acc.UserID, &acc.AccountID, &acc.AccountName, &acc.AccountUsername,
		&acc.AccessToken, &acc.RefreshToken, &acc.TokenExpiresAt,
		&acc.StartTime, &acc.EndTime, &acc.DailyCap, &acc.DailyCapRemaining, &acc.LastResetDate,
		&acc.TotalMedia, &acc.PendingCount, &acc.NextPostTime, &acc.ScheduleFingerprint,
		&acc.Selected, &acc.Done, &acc.Queue, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepository) Create(ctx context.Context, tx *sql.Tx, platform string, acc *models.Account) (int64, error) {
	table, err := accountTable(platform)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			user_id,
			account_id,
			account_name,
			account_username,
			access_token,
			refresh_token,
			token_expires_at,
			start_time,
			end_time,
			daily_cap,
			queue_data
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, table)

	args := []interface{}{
		acc.UserID,
		acc.AccountID,
		acc.AccountName,
		acc.AccountUsername,
		acc.AccessToken,
		acc.RefreshToken,
		acc.TokenExpiresAt,
		acc.StartTime,
		acc.EndTime,
		acc.DailyCap,
		acc.Queue,
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, platform string, id int64) (*models.Account, error) {
	table, err := accountTable(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", accountColumns, table)
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *accountRepository) ListByUserID(ctx context.Context, platform string, userID int64) ([]*models.Account, error) {
	table, err := accountTable(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1", accountColumns, table)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// ListActive returns every account with queued media. Accounts whose entries
// are all missed still qualify: the reconciler is what flips them back.
func (r *accountRepository) ListActive(ctx context.Context, platform string) ([]*models.Account, error) {
	table, err := accountTable(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE total_media > 0 ORDER BY id", accountColumns, table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// GetNextDue is the worker-side query: the eligible account holding the
// earliest commitment for this platform.
func (r *accountRepository) GetNextDue(ctx context.Context, platform string) (*models.Account, error) {
	table, err := accountTable(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE selected = TRUE AND done = FALSE AND pending_count > 0 AND next_post_time IS NOT NULL
		ORDER BY next_post_time ASC
		LIMIT 1
	`, accountColumns, table)

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *accountRepository) EarliestPostTime(ctx context.Context, platform string) (*time.Time, error) {
	table, err := accountTable(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT MIN(next_post_time) FROM %s
		WHERE selected = TRUE AND done = FALSE AND pending_count > 0 AND next_post_time IS NOT NULL
	`, table)

	var earliest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&earliest); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if !earliest.Valid {
		return nil, nil
	}
	return &earliest.Time, nil
}

// UpdateSchedule persists everything the scheduler owns on an account row.
func (r *accountRepository) UpdateSchedule(ctx context.Context, platform string, acc *models.Account) error {
	table, err := accountTable(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET queue_data = $1,
			total_media = $2,
			pending_count = $3,
			daily_cap_remaining = $4,
			last_reset_date = $5,
			next_post_time = $6,
			schedule_fingerprint = $7,
			selected = $8,
			done = $9,
			updated_at = $10
		WHERE id = $11
	`, table)

	var next interface{}
	if acc.NextPostTime != nil {
		next = *acc.NextPostTime
	}

	_, err = r.db.ExecContext(ctx, query,
		acc.Queue,
		acc.TotalMedia,
		acc.PendingCount,
		acc.DailyCapRemaining,
		acc.LastResetDate,
		next,
		acc.ScheduleFingerprint,
		acc.Selected,
		acc.Done,
		time.Now(),
		acc.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateScheduleConfig changes the posting window and daily cap, clearing the
// stored decision so the next cycle replans from scratch.
func (r *accountRepository) UpdateScheduleConfig(ctx context.Context, platform string, id int64, start, end models.NullTimeOfDay, dailyCap sql.NullInt64) error {
	table, err := accountTable(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET start_time = $1,
			end_time = $2,
			daily_cap = $3,
			selected = FALSE,
			next_post_time = NULL,
			updated_at = $4
		WHERE id = $5
	`, table)

	_, err = r.db.ExecContext(ctx, query, start, end, dailyCap, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// AppendQueueEntry adds one media entry under a row lock and bumps the
// counters so the next cycle sees the new work immediately.
func (r *accountRepository) AppendQueueEntry(ctx context.Context, platform string, id int64, entry models.QueueEntry) error {
	table, err := accountTable(platform)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	var queue models.MediaQueue
	selectQuery := fmt.Sprintf("SELECT queue_data FROM %s WHERE id = $1 FOR UPDATE", table)
	if err := tx.QueryRowContext(ctx, selectQuery, id).Scan(&queue); err != nil {
		slog.Info(err.Error())
		return err
	}

	queue = append(queue, entry)
	pending, _ := queue.CountPending()

	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET queue_data = $1,
			total_media = $2,
			pending_count = $3,
			done = FALSE,
			updated_at = $4
		WHERE id = $5
	`, table)
	if _, err := tx.ExecContext(ctx, updateQuery, queue, len(queue), pending, time.Now(), id); err != nil {
		slog.Info(err.Error())
		return err
	}

	return tx.Commit()
}

// CompletePost is the worker's success callback: mark the posted entry
// completed, recompute counters, consume daily cap for range entries, derive
// done and clear next_post_time so the next cycle replans.
func (r *accountRepository) CompletePost(ctx context.Context, platform string, id int64, mediaID string) error {
	table, err := accountTable(platform)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	var queue models.MediaQueue
	var capRemaining int
	selectQuery := fmt.Sprintf("SELECT queue_data, daily_cap_remaining FROM %s WHERE id = $1 FOR UPDATE", table)
	if err := tx.QueryRowContext(ctx, selectQuery, id).Scan(&queue, &capRemaining); err != nil {
		slog.Info(err.Error())
		return err
	}

	completed := false
	wasRange := false
	for i := range queue {
		if queue[i].MediaID == mediaID && queue[i].Status == models.StatusPending {
			queue[i].Status = models.StatusCompleted
			wasRange = queue[i].Mode == models.ModeRange
			completed = true
			break
		}
	}
	if !completed {
		return fmt.Errorf("no pending queue entry for media %s", mediaID)
	}

	if wasRange && capRemaining > 0 {
		capRemaining--
	}
	pending, _ := queue.CountPending()

	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET queue_data = $1,
			pending_count = $2,
			daily_cap_remaining = $3,
			done = $4,
			next_post_time = NULL,
			updated_at = $5
		WHERE id = $6
	`, table)
	if _, err := tx.ExecContext(ctx, updateQuery, queue, pending, capRemaining, pending == 0, time.Now(), id); err != nil {
		slog.Info(err.Error())
		return err
	}

	return tx.Commit()
}

// ResetSchedule clears scheduling state for every account with queued media,
// forcing a clean replan next cycle.
func (r *accountRepository) ResetSchedule(ctx context.Context, platform string) (int64, error) {
	table, err := accountTable(platform)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET selected = FALSE,
			done = FALSE,
			next_post_time = NULL,
			schedule_fingerprint = ''
		WHERE total_media > 0
	`, table)

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

func (r *accountRepository) CheckByUserID(ctx context.Context, platform string, accountID, userID int64) (bool, error) {
	table, err := accountTable(platform)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1 AND user_id = $2", table)

	var result int
	err = r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *accountRepository) SetToken(ctx context.Context, platform string, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	table, err := accountTable(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET access_token = COALESCE(NULLIF($1, ''), access_token),
			refresh_token = COALESCE(NULLIF($2, ''), refresh_token),
			token_expires_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`, table)

	_, err = r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) Remove(ctx context.Context, platform string, id int64) error {
	table, err := accountTable(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
