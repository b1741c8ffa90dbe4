// Package window classifies each of the day's five prayers as past, current or
// future relative to a clock instant, and derives the status transitions that
// are legal right now. Pure functions, no state.
package window

import (
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
)

type Position string

const (
	Past    Position = "past"
	Current Position = "current"
	Future  Position = "future"
)

// currentIndex finds the index (into the ascending-sorted instants) of the
// prayer whose window is open at now. After the last instant of the day the
// last prayer stays current, so the user can still mark it without waiting for
// the next day's fajr. Before the first instant nothing is current yet and -1
// is returned.
func currentIndex(sorted []model.TimedPrayer, now time.Time) int {
	nextIdx := -1
	for i, p := range sorted {
		if p.Instant.After(now) {
			nextIdx = i
			break
		}
	}
	if nextIdx == -1 {
		return len(sorted) - 1
	}
	return nextIdx - 1
}

// Classify reports the window position of the named prayer at now.
func Classify(name model.PrayerName, times model.PrayerTimes, now time.Time) Position {
	if times.Instant(name).After(now) {
		return Future
	}
	sorted := times.Sorted()
	cur := currentIndex(sorted, now)
	if cur >= 0 && sorted[cur].Name == name {
		return Current
	}
	return Past
}

// Actions describes what a client may do with a prayer right now.
type Actions struct {
	Position          Position             `json:"position"`
	AvailableStatuses []model.PrayerStatus `json:"available_statuses"`
}

// ActionsFor returns the legal status transitions for the named prayer given
// its stored status. Future prayers accept nothing; "delayed" only becomes
// selectable once the prayer has been acted on before, since delayed means
// completed late rather than a substitute for missed.
func ActionsFor(name model.PrayerName, times model.PrayerTimes, current model.PrayerStatus, now time.Time) Actions {
	pos := Classify(name, times, now)
	var available []model.PrayerStatus
	switch pos {
	case Past:
		if current == model.StatusPending {
			available = []model.PrayerStatus{model.StatusCompleted, model.StatusMissed}
		} else {
			available = []model.PrayerStatus{model.StatusCompleted, model.StatusMissed, model.StatusDelayed}
		}
	case Current:
		if current == model.StatusPending {
			available = []model.PrayerStatus{model.StatusCompleted}
		} else {
			available = []model.PrayerStatus{model.StatusCompleted, model.StatusDelayed}
		}
	case Future:
		available = []model.PrayerStatus{}
	}
	return Actions{Position: pos, AvailableStatuses: available}
}
