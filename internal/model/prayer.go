package model

import (
	"sort"
	"time"
)

// DateKey is the canonical calendar-day key format, device-local timezone.
const DateKey = "2006-01-02"

type PrayerName string

const (
	Fajr    PrayerName = "fajr"
	Dhuhr   PrayerName = "dhuhr"
	Asr     PrayerName = "asr"
	Maghrib PrayerName = "maghrib"
	Isha    PrayerName = "isha"
)

// PrayerNames lists the five canonical prayers in daily order. The set is fixed.
var PrayerNames = []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}

func (p PrayerName) Valid() bool {
	for _, n := range PrayerNames {
		if p == n {
			return true
		}
	}
	return false
}

type PrayerStatus string

const (
	StatusPending   PrayerStatus = "pending"
	StatusCompleted PrayerStatus = "completed"
	StatusDelayed   PrayerStatus = "delayed"
	StatusMissed    PrayerStatus = "missed"

	// StatusQadaPending is a write-only request value: it is never stored on a
	// PrayerRecord. Writing it marks the record missed and mints a qada ledger entry.
	StatusQadaPending PrayerStatus = "qada-pending"
)

// PrayerRecord tracks one of the five canonical prayers for one calendar day.
type PrayerRecord struct {
	PrayerName  PrayerName   `json:"prayer_name"`
	Status      PrayerStatus `json:"status"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	WasDelayed  bool         `json:"was_delayed"`
}

// CustomPrayerType enumerates the known voluntary prayer kinds.
type CustomPrayerType string

const (
	CustomSunnahFajr    CustomPrayerType = "sunnah_fajr"
	CustomSunnahDhuhr   CustomPrayerType = "sunnah_dhuhr"
	CustomSunnahMaghrib CustomPrayerType = "sunnah_maghrib"
	CustomSunnahIsha    CustomPrayerType = "sunnah_isha"
	CustomWitr          CustomPrayerType = "witr"
	CustomTahajjud      CustomPrayerType = "tahajjud"
	CustomDuha          CustomPrayerType = "duha"
)

// CustomPrayerRecord is a voluntary prayer unit tracked alongside the five
// obligatory prayers. Identified by ID; re-toggling the same type within a day
// reuses the existing ID.
type CustomPrayerRecord struct {
	ID          string           `json:"id"`
	Type        CustomPrayerType `json:"type"`
	Name        string           `json:"name"`
	Rakaat      int              `json:"rakaat"`
	Completed   bool             `json:"completed"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// DailyPrayerRecord is the day-level aggregate: exactly one PrayerRecord per
// prayer name, always fully populated.
type DailyPrayerRecord struct {
	Date          string                      `json:"date"`
	Prayers       map[PrayerName]PrayerRecord `json:"prayers"`
	CustomPrayers []CustomPrayerRecord        `json:"custom_prayers"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// NewDailyPrayerRecord synthesizes a record for the date with all five prayers
// pending and an empty custom list.
func NewDailyPrayerRecord(date string) DailyPrayerRecord {
	prayers := make(map[PrayerName]PrayerRecord, len(PrayerNames))
	for _, name := range PrayerNames {
		prayers[name] = PrayerRecord{PrayerName: name, Status: StatusPending}
	}
	return DailyPrayerRecord{
		Date:          date,
		Prayers:       prayers,
		CustomPrayers: []CustomPrayerRecord{},
	}
}

// PrayerTimes holds one day's prayer instants as produced by the external
// calculation collaborator. Sunrise and sunset are optional extras.
type PrayerTimes struct {
	Fajr    time.Time  `json:"fajr"`
	Dhuhr   time.Time  `json:"dhuhr"`
	Asr     time.Time  `json:"asr"`
	Maghrib time.Time  `json:"maghrib"`
	Isha    time.Time  `json:"isha"`
	Sunrise *time.Time `json:"sunrise,omitempty"`
	Sunset  *time.Time `json:"sunset,omitempty"`
}

// Instant returns the instant for the named prayer.
func (t PrayerTimes) Instant(name PrayerName) time.Time {
	switch name {
	case Fajr:
		return t.Fajr
	case Dhuhr:
		return t.Dhuhr
	case Asr:
		return t.Asr
	case Maghrib:
		return t.Maghrib
	case Isha:
		return t.Isha
	}
	return time.Time{}
}

// TimedPrayer pairs a prayer with its instant.
type TimedPrayer struct {
	Name    PrayerName
	Instant time.Time
}

// Sorted returns the five (name, instant) pairs sorted ascending by instant.
func (t PrayerTimes) Sorted() []TimedPrayer {
	out := make([]TimedPrayer, 0, len(PrayerNames))
	for _, name := range PrayerNames {
		out = append(out, TimedPrayer{Name: name, Instant: t.Instant(name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instant.Before(out[j].Instant) })
	return out
}

// TrackingPreferences is the persisted preferences blob.
type TrackingPreferences struct {
	AutoMarkMissedAfterMinutes int                `json:"auto_mark_missed_after_minutes"`
	DefaultCustomPrayers       []CustomPrayerType `json:"default_custom_prayers"`
	NotificationsEnabled       bool               `json:"notifications_enabled"`
}

// DefaultTrackingPreferences returns the preferences used before the user has
// saved any.
func DefaultTrackingPreferences() TrackingPreferences {
	return TrackingPreferences{
		AutoMarkMissedAfterMinutes: 12 * 60,
		DefaultCustomPrayers:       []CustomPrayerType{CustomSunnahFajr, CustomWitr},
		NotificationsEnabled:       true,
	}
}

// PrayerCounts aggregates per-prayer totals over a date range.
type PrayerCounts struct {
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
	Delayed   int `json:"delayed"`
}

// TrackingStats is the aggregate returned by the stats query.
type TrackingStats struct {
	StartDate      string                      `json:"start_date"`
	EndDate        string                      `json:"end_date"`
	ByPrayer       map[PrayerName]PrayerCounts `json:"by_prayer"`
	TotalCompleted int                         `json:"total_completed"`
	TotalMissed    int                         `json:"total_missed"`
	TotalDelayed   int                         `json:"total_delayed"`
	CompletionRate float64                     `json:"completion_rate"`
	CurrentStreak  int                         `json:"current_streak"`
	LongestStreak  int                         `json:"longest_streak"`
}
