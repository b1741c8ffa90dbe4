// Package tracking owns the per-day prayer records: status updates, voluntary
// prayers, aggregate statistics and the backup surface.
package tracking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/window"
)

// QadaLedger is the slice of the qada service the dual write needs.
type QadaLedger interface {
	AddToQadaDebt(name model.PrayerName, date string, notes string) (model.QadaDebt, error)
}

// Enqueuer matches syncqueue.Service.AddSyncTask.
type Enqueuer interface {
	AddSyncTask(taskType model.SyncTaskType, data map[string]any, priority model.SyncPriority) (model.SyncTask, error)
}

// Service mutates the date -> DailyPrayerRecord map via whole-blob
// read-modify-write. Single in-process writer assumed; two overlapping writes
// are last-write-wins at blob granularity.
type Service struct {
	store   store.Store
	monitor *network.Monitor
	queue   Enqueuer
	ledger  QadaLedger
	now     func() time.Time
}

func New(st store.Store, monitor *network.Monitor, queue Enqueuer, ledger QadaLedger) *Service {
	return &Service{store: st, monitor: monitor, queue: queue, ledger: ledger, now: time.Now}
}

// SetClock overrides the time source for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func validDate(date string) error {
	if _, err := time.ParseInLocation(model.DateKey, date, time.Local); err != nil {
		return fmt.Errorf("bad date %q, want YYYY-MM-DD: %w", date, err)
	}
	return nil
}

// loadRecords reads the full record map. A corrupt blob becomes an empty map
// rather than a permanently failed initialization.
func (s *Service) loadRecords() (map[string]model.DailyPrayerRecord, error) {
	raw, err := s.store.GetBlob(store.KeyDailyRecords)
	if err == store.ErrNotFound {
		return map[string]model.DailyPrayerRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var records map[string]model.DailyPrayerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Warn().Err(err).Msg("corrupt daily records blob, starting fresh")
		return map[string]model.DailyPrayerRecord{}, nil
	}
	return records, nil
}

func (s *Service) persistRecords(records map[string]model.DailyPrayerRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.store.SetBlob(store.KeyDailyRecords, raw)
}

// GetDailyRecord returns the stored record for the date, or synthesizes one
// with all five prayers pending. The synthesized record is not persisted; a
// read never mutates storage.
func (s *Service) GetDailyRecord(date string) (model.DailyPrayerRecord, error) {
	if err := validDate(date); err != nil {
		return model.DailyPrayerRecord{}, err
	}
	records, err := s.loadRecords()
	if err != nil {
		return model.DailyPrayerRecord{}, err
	}
	if rec, ok := records[date]; ok {
		return rec, nil
	}
	return model.NewDailyPrayerRecord(date), nil
}

// UpdatePrayerStatus overwrites the named prayer's status for the date. A
// qada-pending request is a single domain operation that both mints a ledger
// entry and stores the prayer as missed. The overwrite is destructive: no
// history of prior statuses is kept.
func (s *Service) UpdatePrayerStatus(name model.PrayerName, status model.PrayerStatus, date string, notes string) (model.DailyPrayerRecord, error) {
	if !name.Valid() {
		return model.DailyPrayerRecord{}, fmt.Errorf("unknown prayer %q", name)
	}
	if err := validDate(date); err != nil {
		return model.DailyPrayerRecord{}, err
	}
	switch status {
	case model.StatusPending, model.StatusCompleted, model.StatusDelayed, model.StatusMissed, model.StatusQadaPending:
	default:
		return model.DailyPrayerRecord{}, fmt.Errorf("unknown status %q", status)
	}

	stored := status
	if status == model.StatusQadaPending {
		if s.ledger == nil {
			return model.DailyPrayerRecord{}, fmt.Errorf("qada ledger not configured")
		}
		if _, err := s.ledger.AddToQadaDebt(name, date, notes); err != nil {
			return model.DailyPrayerRecord{}, fmt.Errorf("record qada obligation: %w", err)
		}
		// The displayed status collapses to missed; the obligation lives in
		// the ledger.
		stored = model.StatusMissed
	}

	records, err := s.loadRecords()
	if err != nil {
		return model.DailyPrayerRecord{}, err
	}
	rec, ok := records[date]
	if !ok {
		rec = model.NewDailyPrayerRecord(date)
	}

	now := s.now()
	prayer := rec.Prayers[name]
	prayer.PrayerName = name
	prayer.Status = stored
	prayer.Notes = notes
	prayer.WasDelayed = stored == model.StatusDelayed
	if stored == model.StatusCompleted || stored == model.StatusDelayed {
		prayer.CompletedAt = &now
	} else {
		prayer.CompletedAt = nil
	}
	rec.Prayers[name] = prayer
	rec.UpdatedAt = now
	records[date] = rec

	if err := s.persistRecords(records); err != nil {
		return model.DailyPrayerRecord{}, err
	}

	s.enqueueSync(model.SyncTrackingData, map[string]any{
		"date":      date,
		"prayer":    string(name),
		"status":    string(stored),
		"notes":     notes,
		"timestamp": now.Format(time.RFC3339),
	}, model.PriorityHigh)
	return rec, nil
}

// UpdateCustomPrayer upserts a voluntary prayer into the day's list. A record
// whose id is unknown but whose type already exists that day reuses the
// existing id, so toggling the same unit never duplicates it.
func (s *Service) UpdateCustomPrayer(date string, custom model.CustomPrayerRecord) (model.DailyPrayerRecord, error) {
	if err := validDate(date); err != nil {
		return model.DailyPrayerRecord{}, err
	}
	records, err := s.loadRecords()
	if err != nil {
		return model.DailyPrayerRecord{}, err
	}
	rec, ok := records[date]
	if !ok {
		rec = model.NewDailyPrayerRecord(date)
	}

	idx := -1
	if custom.ID != "" {
		for i, existing := range rec.CustomPrayers {
			if existing.ID == custom.ID {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		for i, existing := range rec.CustomPrayers {
			if existing.Type == custom.Type {
				custom.ID = existing.ID
				idx = i
				break
			}
		}
	}
	if custom.ID == "" {
		custom.ID = uuid.NewString()
	}
	if idx >= 0 {
		rec.CustomPrayers[idx] = custom
	} else {
		rec.CustomPrayers = append(rec.CustomPrayers, custom)
	}

	now := s.now()
	rec.UpdatedAt = now
	records[date] = rec
	if err := s.persistRecords(records); err != nil {
		return model.DailyPrayerRecord{}, err
	}

	s.enqueueSync(model.SyncTrackingData, map[string]any{
		"date":      date,
		"prayer":    string(custom.Type),
		"status":    fmt.Sprintf("custom_completed=%t", custom.Completed),
		"timestamp": now.Format(time.RFC3339),
	}, model.PriorityMedium)
	return rec, nil
}

// DeleteCustomPrayer removes a voluntary prayer by id. An unknown id is a
// no-op returning the unchanged record.
func (s *Service) DeleteCustomPrayer(date string, id string) (model.DailyPrayerRecord, error) {
	if err := validDate(date); err != nil {
		return model.DailyPrayerRecord{}, err
	}
	records, err := s.loadRecords()
	if err != nil {
		return model.DailyPrayerRecord{}, err
	}
	rec, ok := records[date]
	if !ok {
		return model.NewDailyPrayerRecord(date), nil
	}

	for i, existing := range rec.CustomPrayers {
		if existing.ID == id {
			rec.CustomPrayers = append(rec.CustomPrayers[:i:i], rec.CustomPrayers[i+1:]...)
			rec.UpdatedAt = s.now()
			records[date] = rec
			if err := s.persistRecords(records); err != nil {
				return model.DailyPrayerRecord{}, err
			}
			break
		}
	}
	return rec, nil
}

// ExportRecords returns the entire date -> record mapping for backup.
func (s *Service) ExportRecords() (map[string]model.DailyPrayerRecord, error) {
	return s.loadRecords()
}

// ImportRecords wholesale-replaces the record store. Not a merge.
func (s *Service) ImportRecords(records map[string]model.DailyPrayerRecord) error {
	if records == nil {
		records = map[string]model.DailyPrayerRecord{}
	}
	return s.persistRecords(records)
}

// ClearAllData removes the daily records and preferences blobs.
func (s *Service) ClearAllData() error {
	if err := s.store.DeleteBlob(store.KeyDailyRecords); err != nil {
		return err
	}
	return s.store.DeleteBlob(store.KeyPreferences)
}

// GetPreferences returns the stored preferences, or the defaults before any
// have been saved.
func (s *Service) GetPreferences() (model.TrackingPreferences, error) {
	raw, err := s.store.GetBlob(store.KeyPreferences)
	if err == store.ErrNotFound {
		return model.DefaultTrackingPreferences(), nil
	}
	if err != nil {
		return model.TrackingPreferences{}, err
	}
	var prefs model.TrackingPreferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		log.Warn().Err(err).Msg("corrupt preferences blob, using defaults")
		return model.DefaultTrackingPreferences(), nil
	}
	return prefs, nil
}

// UpdatePreferences persists the preferences blob and defers a settings sync
// when offline.
func (s *Service) UpdatePreferences(prefs model.TrackingPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := s.store.SetBlob(store.KeyPreferences, raw); err != nil {
		return err
	}
	s.enqueueSync(model.SyncSettings, map[string]any{
		"settings": map[string]any{
			"auto_mark_missed_after_minutes": prefs.AutoMarkMissedAfterMinutes,
			"notifications_enabled":          prefs.NotificationsEnabled,
		},
	}, model.PriorityLow)
	return nil
}

// AutoMarkMissed marks the date's still-pending prayers missed once the
// preferences threshold past their instant has elapsed. Qada entries are never
// minted automatically. Returns how many prayers were marked.
func (s *Service) AutoMarkMissed(date string, times model.PrayerTimes) (int, error) {
	prefs, err := s.GetPreferences()
	if err != nil {
		return 0, err
	}
	rec, err := s.GetDailyRecord(date)
	if err != nil {
		return 0, err
	}

	threshold := time.Duration(prefs.AutoMarkMissedAfterMinutes) * time.Minute
	now := s.now()
	marked := 0
	for _, name := range model.PrayerNames {
		prayer := rec.Prayers[name]
		if prayer.Status != model.StatusPending {
			continue
		}
		if window.Classify(name, times, now) == window.Future {
			continue
		}
		if now.Sub(times.Instant(name)) < threshold {
			continue
		}
		if _, err := s.UpdatePrayerStatus(name, model.StatusMissed, date, prayer.Notes); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// enqueueSync defers a local mutation for upload when offline. Best effort:
// the enqueue itself persists synchronously, but its failure never fails the
// mutation that triggered it.
func (s *Service) enqueueSync(taskType model.SyncTaskType, data map[string]any, priority model.SyncPriority) {
	if s.queue == nil || s.monitor == nil || s.monitor.IsOnline() {
		return
	}
	if _, err := s.queue.AddSyncTask(taskType, data, priority); err != nil {
		log.Error().Err(err).Str("type", string(taskType)).Msg("failed to enqueue sync task")
	}
}
