package state

import (
	"context"
	"time"
)

// CheckRecord is one entry of the check history.
type CheckRecord struct {
	CheckID   string    `json:"check_id"`
	Trigger   string    `json:"trigger"`
	CheckedAt time.Time `json:"checked_at"`
	Outcome   string    `json:"outcome"`
	Total     int       `json:"total"`
	New       int       `json:"new"`
	Real      int       `json:"real"`
	Skipped   int       `json:"skipped"`
	Error     string    `json:"error,omitempty"`
}

// HistoryStore is implemented by backends that keep a check history.
type HistoryStore interface {
	AppendCheck(ctx context.Context, rec CheckRecord) error
	RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error)
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
