package window

import (
	"testing"
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
)

func testTimes(t *testing.T) model.PrayerTimes {
	t.Helper()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	at := func(hour, min int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.Local)
	}
	return model.PrayerTimes{
		Fajr:    at(5, 0),
		Dhuhr:   at(12, 30),
		Asr:     at(16, 0),
		Maghrib: at(19, 0),
		Isha:    at(20, 30),
	}
}

func clock(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.Local)
}

func TestClassifyMidMorning(t *testing.T) {
	times := testTimes(t)
	now := clock(t, 10, 0)

	if got := Classify(model.Fajr, times, now); got != Current {
		t.Errorf("fajr at 10:00 = %s, want current", got)
	}
	for _, name := range []model.PrayerName{model.Dhuhr, model.Asr, model.Maghrib, model.Isha} {
		if got := Classify(name, times, now); got != Future {
			t.Errorf("%s at 10:00 = %s, want future", name, got)
		}
	}
}

func TestClassifyAfternoon(t *testing.T) {
	times := testTimes(t)
	now := clock(t, 17, 15)

	if got := Classify(model.Fajr, times, now); got != Past {
		t.Errorf("fajr at 17:15 = %s, want past", got)
	}
	if got := Classify(model.Dhuhr, times, now); got != Past {
		t.Errorf("dhuhr at 17:15 = %s, want past", got)
	}
	if got := Classify(model.Asr, times, now); got != Current {
		t.Errorf("asr at 17:15 = %s, want current", got)
	}
	if got := Classify(model.Maghrib, times, now); got != Future {
		t.Errorf("maghrib at 17:15 = %s, want future", got)
	}
}

func TestClassifyAfterIshaKeepsLastPrayerCurrent(t *testing.T) {
	times := testTimes(t)
	now := clock(t, 23, 45)

	if got := Classify(model.Isha, times, now); got != Current {
		t.Errorf("isha at 23:45 = %s, want current", got)
	}
	for _, name := range []model.PrayerName{model.Fajr, model.Dhuhr, model.Asr, model.Maghrib} {
		if got := Classify(name, times, now); got != Past {
			t.Errorf("%s at 23:45 = %s, want past", name, got)
		}
	}
}

func TestClassifyBeforeFajrEverythingFuture(t *testing.T) {
	times := testTimes(t)
	now := clock(t, 4, 0)

	for _, name := range model.PrayerNames {
		if got := Classify(name, times, now); got != Future {
			t.Errorf("%s at 04:00 = %s, want future", name, got)
		}
	}
}

func TestActionsForFuturePrayerIsEmpty(t *testing.T) {
	times := testTimes(t)
	actions := ActionsFor(model.Isha, times, model.StatusPending, clock(t, 10, 0))
	if len(actions.AvailableStatuses) != 0 {
		t.Fatalf("future prayer offers %v, want none", actions.AvailableStatuses)
	}
}

func TestActionsForCurrentPending(t *testing.T) {
	times := testTimes(t)
	actions := ActionsFor(model.Fajr, times, model.StatusPending, clock(t, 10, 0))
	if len(actions.AvailableStatuses) != 1 || actions.AvailableStatuses[0] != model.StatusCompleted {
		t.Fatalf("current pending prayer offers %v, want [completed]", actions.AvailableStatuses)
	}
}

func TestActionsForCurrentActedOn(t *testing.T) {
	times := testTimes(t)
	actions := ActionsFor(model.Fajr, times, model.StatusCompleted, clock(t, 10, 0))
	want := []model.PrayerStatus{model.StatusCompleted, model.StatusDelayed}
	assertStatuses(t, actions.AvailableStatuses, want)
}

func TestActionsForPastPending(t *testing.T) {
	times := testTimes(t)
	actions := ActionsFor(model.Fajr, times, model.StatusPending, clock(t, 14, 0))
	want := []model.PrayerStatus{model.StatusCompleted, model.StatusMissed}
	assertStatuses(t, actions.AvailableStatuses, want)
}

func TestActionsForPastActedOnIncludesDelayed(t *testing.T) {
	times := testTimes(t)
	actions := ActionsFor(model.Fajr, times, model.StatusMissed, clock(t, 14, 0))
	want := []model.PrayerStatus{model.StatusCompleted, model.StatusMissed, model.StatusDelayed}
	assertStatuses(t, actions.AvailableStatuses, want)
}

func assertStatuses(t *testing.T, got, want []model.PrayerStatus) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("statuses %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statuses %v, want %v", got, want)
		}
	}
}
