// Package qada owns the makeup-obligation ledger. A qada record's lifecycle is
// independent of the daily record that spawned it.
package qada

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/store"
)

// Enqueuer matches syncqueue.Service.AddSyncTask.
type Enqueuer interface {
	AddSyncTask(taskType model.SyncTaskType, data map[string]any, priority model.SyncPriority) (model.SyncTask, error)
}

// Service mutates the single QadaDebt root via whole-blob read-modify-write.
// Single in-process writer assumed.
type Service struct {
	store   store.Store
	monitor *network.Monitor
	queue   Enqueuer
	now     func() time.Time
}

func New(st store.Store, monitor *network.Monitor, queue Enqueuer) *Service {
	return &Service{store: st, monitor: monitor, queue: queue, now: time.Now}
}

// SetClock overrides the time source for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// GetQadaDebt returns the ledger, lazily initializing an empty one on first
// access. A corrupt blob is replaced by a fresh ledger.
func (s *Service) GetQadaDebt() (model.QadaDebt, error) {
	raw, err := s.store.GetBlob(store.KeyQadaDebt)
	if err == store.ErrNotFound {
		return model.NewQadaDebt(), nil
	}
	if err != nil {
		return model.QadaDebt{}, err
	}
	var debt model.QadaDebt
	if err := json.Unmarshal(raw, &debt); err != nil {
		log.Warn().Err(err).Msg("corrupt qada ledger blob, starting fresh")
		return model.NewQadaDebt(), nil
	}
	if debt.Prayers == nil {
		debt.Prayers = model.NewQadaDebt().Prayers
	}
	return debt, nil
}

func (s *Service) persist(debt model.QadaDebt) error {
	raw, err := json.Marshal(debt)
	if err != nil {
		return err
	}
	return s.store.SetBlob(store.KeyQadaDebt, raw)
}

// AddToQadaDebt appends a new obligation for the prayer missed on date.
func (s *Service) AddToQadaDebt(name model.PrayerName, date string, notes string) (model.QadaDebt, error) {
	if !name.Valid() {
		return model.QadaDebt{}, fmt.Errorf("unknown prayer %q", name)
	}
	debt, err := s.GetQadaDebt()
	if err != nil {
		return model.QadaDebt{}, err
	}

	now := s.now()
	record := model.QadaPrayerRecord{
		// Creation timestamp in the id keeps same-day duplicate misses distinct.
		ID:           fmt.Sprintf("%s_%s_%d", name, date, now.UnixNano()),
		PrayerName:   name,
		OriginalDate: date,
		MissedAt:     now,
		Notes:        notes,
	}
	debt.Prayers[name] = append(debt.Prayers[name], record)
	debt.TotalPending++
	debt.LastUpdated = now

	if err := s.persist(debt); err != nil {
		return model.QadaDebt{}, err
	}
	s.enqueueSync(map[string]any{
		"action":  "qada_added",
		"date":    date,
		"prayer":  string(name),
		"status":  "missed",
		"qada_id": record.ID,
	})
	return debt, nil
}

// CompleteQada marks the matching record completed. An unknown id is a no-op
// returning the unchanged ledger; calling it twice for the same id never
// decrements TotalPending below its true value.
func (s *Service) CompleteQada(qadaID string) (model.QadaDebt, error) {
	debt, err := s.GetQadaDebt()
	if err != nil {
		return model.QadaDebt{}, err
	}

	for name, records := range debt.Prayers {
		for i, rec := range records {
			if rec.ID != qadaID {
				continue
			}
			if rec.IsCompleted {
				return debt, nil
			}
			now := s.now()
			rec.IsCompleted = true
			rec.CompletedAt = &now
			debt.Prayers[name][i] = rec
			debt.TotalPending--
			debt.LastUpdated = now
			if err := s.persist(debt); err != nil {
				return model.QadaDebt{}, err
			}
			return debt, nil
		}
	}
	return debt, nil
}

// RemoveQada deletes the matching record. TotalPending only moves when the
// removed record was still pending; removing a completed record must not
// under-count.
func (s *Service) RemoveQada(qadaID string) (model.QadaDebt, error) {
	debt, err := s.GetQadaDebt()
	if err != nil {
		return model.QadaDebt{}, err
	}

	for name, records := range debt.Prayers {
		for i, rec := range records {
			if rec.ID != qadaID {
				continue
			}
			debt.Prayers[name] = append(records[:i:i], records[i+1:]...)
			if !rec.IsCompleted {
				debt.TotalPending--
			}
			debt.LastUpdated = s.now()
			if err := s.persist(debt); err != nil {
				return model.QadaDebt{}, err
			}
			return debt, nil
		}
	}
	return debt, nil
}

// GetPendingQadas returns all outstanding obligations, oldest first.
func (s *Service) GetPendingQadas() ([]model.QadaPrayerRecord, error) {
	debt, err := s.GetQadaDebt()
	if err != nil {
		return nil, err
	}
	var out []model.QadaPrayerRecord
	for _, records := range debt.Prayers {
		for _, rec := range records {
			if !rec.IsCompleted {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MissedAt.Before(out[j].MissedAt) })
	return out, nil
}

// GetPendingQadasForPrayer returns the outstanding obligations for one prayer
// in creation order.
func (s *Service) GetPendingQadasForPrayer(name model.PrayerName) ([]model.QadaPrayerRecord, error) {
	debt, err := s.GetQadaDebt()
	if err != nil {
		return nil, err
	}
	var out []model.QadaPrayerRecord
	for _, rec := range debt.Prayers[name] {
		if !rec.IsCompleted {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ClearCompletedQadas drops every completed record. TotalPending is untouched
// by definition.
func (s *Service) ClearCompletedQadas() (model.QadaDebt, error) {
	debt, err := s.GetQadaDebt()
	if err != nil {
		return model.QadaDebt{}, err
	}

	for name, records := range debt.Prayers {
		kept := records[:0:0]
		for _, rec := range records {
			if !rec.IsCompleted {
				kept = append(kept, rec)
			}
		}
		if kept == nil {
			kept = []model.QadaPrayerRecord{}
		}
		debt.Prayers[name] = kept
	}
	debt.LastUpdated = s.now()

	if err := s.persist(debt); err != nil {
		return model.QadaDebt{}, err
	}
	return debt, nil
}

// enqueueSync defers a ledger mutation for upload when offline. Best effort:
// enqueue failures are logged, never surfaced to the mutating caller.
func (s *Service) enqueueSync(data map[string]any) {
	if s.queue == nil || s.monitor == nil || s.monitor.IsOnline() {
		return
	}
	if _, err := s.queue.AddSyncTask(model.SyncTrackingData, data, model.PriorityMedium); err != nil {
		log.Error().Err(err).Msg("failed to enqueue qada sync task")
	}
}
