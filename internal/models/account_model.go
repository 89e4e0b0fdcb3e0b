package models

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

const (
	PlatformInstagram = "instagram"
	PlatformTelegram  = "telegram"
	PlatformYoutube   = "youtube"
)

// Platforms lists every platform table the scheduler drives, in the order
// they are processed each cycle.
var Platforms = []string{PlatformInstagram, PlatformTelegram, PlatformYoutube}

// TimeOfDay maps a Postgres TIME column. The zero value is midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &t.Hour, &t.Minute, &t.Second); err != nil {
		// TIME values may come back without seconds
		if _, err2 := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err2 != nil {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day out of range %q", s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// SecondsOfDay positions the value within a day for ordering comparisons.
func (t TimeOfDay) SecondsOfDay() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// On anchors the time of day to day's calendar date in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, t.Second, 0, day.Location())
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case time.Time:
		*t = TimeOfDay{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}
		return nil
	default:
		return fmt.Errorf("unsupported type for TimeOfDay: %T", src)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NullTimeOfDay handles nullable TIME columns (accounts created before their
// posting window is configured).
type NullTimeOfDay struct {
	TimeOfDay TimeOfDay
	Valid     bool
}

func (n NullTimeOfDay) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.TimeOfDay.Value()
}

func (n *NullTimeOfDay) Scan(src interface{}) error {
	if src == nil {
		n.Valid = false
		return nil
	}
	if err := n.TimeOfDay.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Account is one connected social identity, one row per platform table.
// Scheduling state (counters, next_post_time, fingerprint, selected, done) is
// owned by the scheduler; the posting worker only marks entries completed.
type Account struct {
	ID              int64  `db:"id" json:"id"`
	UserID          int64  `db:"user_id" json:"user_id"`
	AccountID       string `db:"account_id" json:"account_id"`
	AccountName     string `db:"account_name" json:"account_name"`
	AccountUsername string `db:"account_username" json:"account_username"`

	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`

	StartTime         NullTimeOfDay `db:"start_time" json:"start_time"`
	EndTime           NullTimeOfDay `db:"end_time" json:"end_time"`
	DailyCap          sql.NullInt64 `db:"daily_cap" json:"daily_cap"`
	DailyCapRemaining int           `db:"daily_cap_remaining" json:"daily_cap_remaining"`
	LastResetDate     sql.NullTime  `db:"last_reset_date" json:"last_reset_date"`

	TotalMedia   int `db:"total_media" json:"total_media"`
	PendingCount int `db:"pending_count" json:"pending_count"`

	NextPostTime        *time.Time `db:"next_post_time" json:"next_post_time"`
	ScheduleFingerprint string     `db:"schedule_fingerprint" json:"-"`
	Selected            bool       `db:"selected" json:"selected"`
	Done                bool       `db:"done" json:"done"`

	Queue MediaQueue `db:"queue_data" json:"queue"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
