package transfer

import "time"

type ScheduleConfigRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	DailyCap  *int64 `json:"daily_cap"`
}

type QueueEntryRequest struct {
	Mode      string `json:"mode"`
	FixedTime string `json:"fixed_time"`
	Caption   string `json:"caption"`
}

type ScheduleStatus struct {
	AccountID    string     `json:"account_id"`
	Platform     string     `json:"platform"`
	Username     string     `json:"username"`
	StartTime    string     `json:"start_time,omitempty"`
	EndTime      string     `json:"end_time,omitempty"`
	DailyCap     *int64     `json:"daily_cap,omitempty"`
	CapRemaining int        `json:"cap_remaining"`
	TotalMedia   int        `json:"total_media"`
	PendingCount int        `json:"pending_count"`
	NextPostTime *time.Time `json:"next_post_time,omitempty"`
	Selected     bool       `json:"selected"`
	Done         bool       `json:"done"`
}
