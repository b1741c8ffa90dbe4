// Package syncqueue owns the persisted queue of deferred sync tasks: bounded
// retries per task, 7-day expiry, priority-then-FIFO processing and the
// sync-status snapshot.
package syncqueue

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/store"
)

const taskExpiry = 7 * 24 * time.Hour

// Notifier publishes the sync-status snapshot after a pass. Optional.
type Notifier interface {
	PublishSyncStatus(model.SyncStatus) error
}

// Service is the durable sync queue. Construct once and share.
type Service struct {
	store    store.Store
	monitor  *network.Monitor
	handlers map[model.SyncTaskType]Handler
	notifier Notifier

	mu             sync.Mutex
	syncInProgress bool
	tasks          map[string]model.SyncTask

	now func() time.Time
}

// New loads the persisted task map and purges expired tasks. A corrupt task
// blob is replaced by an empty queue rather than failing initialization.
func New(st store.Store, monitor *network.Monitor, calc Calculator) (*Service, error) {
	s := &Service{
		store:   st,
		monitor: monitor,
		tasks:   make(map[string]model.SyncTask),
		now:     time.Now,
	}
	s.handlers = map[model.SyncTaskType]Handler{
		model.SyncPrayerTimes:  prayerTimesHandler(calc),
		model.SyncTrackingData: trackingDataHandler,
		model.SyncSettings:     settingsHandler,
	}

	if err := s.loadTasks(); err != nil {
		return nil, err
	}
	if err := s.CleanupExpiredTasks(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetNotifier attaches a best-effort sync-status publisher.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// SetClock overrides the time source. Tests use this for expiry scenarios.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Service) loadTasks() error {
	raw, err := s.store.GetBlob(store.KeySyncTasks)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	var list []model.SyncTask
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Warn().Err(err).Msg("corrupt sync task blob, starting with an empty queue")
		return nil
	}
	for _, t := range list {
		s.tasks[t.ID] = t
	}
	return nil
}

// persistTasks writes the full task list. Callers hold s.mu.
func (s *Service) persistTasksLocked() error {
	list := make([]model.SyncTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.store.SetBlob(store.KeySyncTasks, raw)
}

// AddSyncTask appends a task and persists it before returning, so a crash
// right after enqueue cannot lose it.
func (s *Service) AddSyncTask(taskType model.SyncTaskType, data map[string]any, priority model.SyncPriority) (model.SyncTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task := model.SyncTask{
		ID:         fmt.Sprintf("%s_%d_%s", taskType, now.UnixMilli(), uuid.NewString()[:8]),
		Type:       taskType,
		Priority:   priority,
		CreatedAt:  now,
		RetryCount: 0,
		MaxRetries: model.MaxRetriesFor(taskType),
		Data:       data,
	}
	s.tasks[task.ID] = task
	if err := s.persistTasksLocked(); err != nil {
		delete(s.tasks, task.ID)
		return model.SyncTask{}, err
	}
	log.Info().
		Str("task_id", task.ID).
		Str("type", string(taskType)).
		Str("priority", string(priority)).
		Msg("sync task enqueued")
	return task, nil
}

// PendingTasks reports how many tasks are waiting.
func (s *Service) PendingTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// CleanupExpiredTasks purges tasks older than seven days regardless of retry
// state.
func (s *Service) CleanupExpiredTasks() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-taskExpiry)
	removed := 0
	for id, t := range s.tasks {
		if t.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	log.Info().Int("removed", removed).Msg("expired sync tasks purged")
	return s.persistTasksLocked()
}

// TriggerSync processes every queued task once, priority then FIFO. It is a
// no-op while another pass runs or while offline. No intra-pass retry: a
// failed task waits for the next invocation.
func (s *Service) TriggerSync() (model.SyncStatus, error) {
	s.mu.Lock()
	if s.syncInProgress || s.monitor.IsOffline() {
		s.mu.Unlock()
		return s.GetSyncStatus()
	}
	s.syncInProgress = true

	ordered := make([]model.SyncTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority.Rank() != ordered[j].Priority.Rank() {
			return ordered[i].Priority.Rank() < ordered[j].Priority.Rank()
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncInProgress = false
		s.mu.Unlock()
	}()

	var succeeded, failed, dropped int
	for _, task := range ordered {
		handler, ok := s.handlers[task.Type]
		if !ok {
			handler = func(model.SyncTask) error {
				return fmt.Errorf("no handler for task type %q", task.Type)
			}
		}
		err := handler(task)

		s.mu.Lock()
		if err == nil {
			succeeded++
			delete(s.tasks, task.ID)
			s.mu.Unlock()
			continue
		}
		failed++
		current, ok := s.tasks[task.ID]
		if !ok {
			s.mu.Unlock()
			continue
		}
		current.RetryCount++
		if current.RetryCount >= current.MaxRetries {
			delete(s.tasks, task.ID)
			dropped++
			log.Error().Err(err).
				Str("task_id", task.ID).
				Int("retries", current.RetryCount).
				Msg("sync task dropped after exhausting retries")
		} else {
			s.tasks[task.ID] = current
			log.Warn().Err(err).
				Str("task_id", task.ID).
				Int("retry_count", current.RetryCount).
				Msg("sync task failed, will retry on next pass")
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistTasksLocked(); err != nil {
		return model.SyncStatus{}, err
	}

	previous := s.loadStatusLocked()
	status := model.SyncStatus{
		IsOnline:       s.monitor.IsOnline(),
		LastSyncAt:     s.now(),
		PendingTasks:   len(s.tasks),
		FailedTasks:    previous.FailedTasks + dropped,
		LastSyncResult: resultOf(succeeded, failed),
	}
	if raw, err := json.Marshal(status); err == nil {
		if err := s.store.SetBlob(store.KeySyncStatus, raw); err != nil {
			log.Error().Err(err).Msg("failed to persist sync status")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.PublishSyncStatus(status); err != nil {
			log.Warn().Err(err).Msg("sync status publish failed")
		}
	}
	return status, nil
}

func resultOf(succeeded, failed int) model.SyncResult {
	switch {
	case failed == 0:
		return model.SyncResultSuccess
	case succeeded > 0:
		return model.SyncResultPartial
	default:
		return model.SyncResultFailed
	}
}

// loadStatusLocked reads the persisted snapshot; a missing or corrupt blob
// yields the zero snapshot. Callers hold s.mu.
func (s *Service) loadStatusLocked() model.SyncStatus {
	raw, err := s.store.GetBlob(store.KeySyncStatus)
	if err != nil {
		return model.SyncStatus{LastSyncResult: model.SyncResultSuccess}
	}
	var status model.SyncStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		log.Warn().Err(err).Msg("corrupt sync status blob, resetting")
		return model.SyncStatus{LastSyncResult: model.SyncResultSuccess}
	}
	return status
}

// GetSyncStatus returns the persisted snapshot overlaid with the live online
// flag and pending count, so a stale snapshot never misleads callers.
func (s *Service) GetSyncStatus() (model.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.loadStatusLocked()
	status.IsOnline = s.monitor.IsOnline()
	status.PendingTasks = len(s.tasks)
	return status, nil
}
