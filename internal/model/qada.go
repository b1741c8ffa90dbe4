package model

import "time"

// QadaPrayerRecord is one outstanding or resolved makeup obligation. Its
// lifecycle is independent of the daily record that spawned it.
type QadaPrayerRecord struct {
	ID           string     `json:"id"`
	PrayerName   PrayerName `json:"prayer_name"`
	OriginalDate string     `json:"original_date"`
	MissedAt     time.Time  `json:"missed_at"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// QadaDebt is the ledger root. TotalPending must always equal the count of
// records across all five lists with IsCompleted == false; every mutator keeps
// it in step rather than recomputing lazily.
type QadaDebt struct {
	Prayers      map[PrayerName][]QadaPrayerRecord `json:"prayers"`
	TotalPending int                               `json:"total_pending"`
	LastUpdated  time.Time                         `json:"last_updated"`
}

// NewQadaDebt returns an empty ledger with all five lists present.
func NewQadaDebt() QadaDebt {
	prayers := make(map[PrayerName][]QadaPrayerRecord, len(PrayerNames))
	for _, name := range PrayerNames {
		prayers[name] = []QadaPrayerRecord{}
	}
	return QadaDebt{Prayers: prayers}
}
