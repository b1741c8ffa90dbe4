package model

import "time"

type SyncTaskType string

const (
	SyncPrayerTimes  SyncTaskType = "prayer_times"
	SyncTrackingData SyncTaskType = "tracking_data"
	SyncSettings     SyncTaskType = "settings"
)

type SyncPriority string

const (
	PriorityHigh   SyncPriority = "high"
	PriorityMedium SyncPriority = "medium"
	PriorityLow    SyncPriority = "low"
)

// rank orders priorities for the sync pass; lower sorts first.
func (p SyncPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// MaxRetriesFor returns the per-type retry ceiling.
func MaxRetriesFor(t SyncTaskType) int {
	if t == SyncTrackingData {
		return 5
	}
	return 3
}

// SyncTask is a durable unit of deferred work, created whenever a local
// mutation happens while offline.
type SyncTask struct {
	ID         string         `json:"id"`
	Type       SyncTaskType   `json:"type"`
	Priority   SyncPriority   `json:"priority"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
	Data       map[string]any `json:"data"`
}

type SyncResult string

const (
	SyncResultSuccess SyncResult = "success"
	SyncResultPartial SyncResult = "partial"
	SyncResultFailed  SyncResult = "failed"
)

// SyncStatus is the persisted snapshot written after every sync pass.
type SyncStatus struct {
	IsOnline       bool       `json:"is_online"`
	LastSyncAt     time.Time  `json:"last_sync_at"`
	PendingTasks   int        `json:"pending_tasks"`
	FailedTasks    int        `json:"failed_tasks"`
	LastSyncResult SyncResult `json:"last_sync_result"`
}
