package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type ScheduleMode string

const (
	ModeRange     ScheduleMode = "range"
	ModeFixedTime ScheduleMode = "fixed_time"
)

type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
	StatusMissed    EntryStatus = "missed"
)

// FixedTimeLayout is the wall-clock format stored in queue entries. Values
// are interpreted in the scheduler's canonical timezone.
const FixedTimeLayout = "2006-01-02 15:04:05"

// QueueEntry is one media item awaiting posting for an account. FixedTime is
// kept as the raw string so that an unparseable value survives reconciliation
// untouched instead of being dropped.
type QueueEntry struct {
	MediaID   string       `json:"media_id"`
	MediaName string       `json:"media_name"`
	Mode      ScheduleMode `json:"schedule_mode"`
	FixedTime string       `json:"fixed_time,omitempty"`
	Status    EntryStatus  `json:"status"`
	Caption   string       `json:"caption,omitempty"`
}

// FixedAt parses the entry's fixed timestamp in loc.
func (e *QueueEntry) FixedAt(loc *time.Location) (time.Time, error) {
	if e.Mode != ModeFixedTime {
		return time.Time{}, errors.New("entry is not fixed_time mode")
	}
	if e.FixedTime == "" {
		return time.Time{}, errors.New("fixed_time is empty")
	}
	return time.ParseInLocation(FixedTimeLayout, e.FixedTime, loc)
}

// MediaQueue is the persisted per-account posting queue, stored as a JSONB
// column on the platform account row.
type MediaQueue []QueueEntry

func (q MediaQueue) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

func (q *MediaQueue) Scan(src interface{}) error {
	if src == nil {
		*q = MediaQueue{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for MediaQueue: %T", src)
	}
	if len(data) == 0 {
		*q = MediaQueue{}
		return nil
	}
	return json.Unmarshal(data, q)
}

// Raw returns the serialized queue as used for fingerprinting.
func (q MediaQueue) Raw() string {
	data, err := json.Marshal(q)
	if err != nil {
		return ""
	}
	return string(data)
}

// CountPending returns the number of pending entries and, of those, the
// number in range mode.
func (q MediaQueue) CountPending() (pending, pendingRange int) {
	for i := range q {
		if q[i].Status != StatusPending {
			continue
		}
		pending++
		if q[i].Mode == ModeRange {
			pendingRange++
		}
	}
	return pending, pendingRange
}
