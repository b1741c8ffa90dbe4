package tracking

import (
	"fmt"
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
)

// GetStats aggregates per-prayer counts, the overall completion rate and the
// current/longest streaks over the inclusive date range.
func (s *Service) GetStats(startDate, endDate string) (model.TrackingStats, error) {
	start, err := time.ParseInLocation(model.DateKey, startDate, time.Local)
	if err != nil {
		return model.TrackingStats{}, fmt.Errorf("bad start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(model.DateKey, endDate, time.Local)
	if err != nil {
		return model.TrackingStats{}, fmt.Errorf("bad end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return model.TrackingStats{}, fmt.Errorf("end date %s before start date %s", endDate, startDate)
	}

	records, err := s.loadRecords()
	if err != nil {
		return model.TrackingStats{}, err
	}

	stats := model.TrackingStats{
		StartDate: startDate,
		EndDate:   endDate,
		ByPrayer:  make(map[model.PrayerName]model.PrayerCounts, len(model.PrayerNames)),
	}
	for _, name := range model.PrayerNames {
		stats.ByPrayer[name] = model.PrayerCounts{}
	}

	total := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		rec, ok := records[day.Format(model.DateKey)]
		if !ok {
			continue
		}
		for _, name := range model.PrayerNames {
			counts := stats.ByPrayer[name]
			total++
			switch rec.Prayers[name].Status {
			case model.StatusCompleted:
				counts.Completed++
				stats.TotalCompleted++
			case model.StatusMissed:
				counts.Missed++
				stats.TotalMissed++
			case model.StatusDelayed:
				counts.Delayed++
				stats.TotalDelayed++
			}
			stats.ByPrayer[name] = counts
		}
	}
	if total > 0 {
		stats.CompletionRate = float64(stats.TotalCompleted) / float64(total) * 100
	}

	stats.CurrentStreak, stats.LongestStreak = streaks(records, start, end)
	return stats, nil
}

// dayQualifies reports whether every one of the five prayers was completed or
// delayed. Voluntary prayers never affect streaks.
func dayQualifies(rec model.DailyPrayerRecord) bool {
	for _, name := range model.PrayerNames {
		status := rec.Prayers[name].Status
		if status != model.StatusCompleted && status != model.StatusDelayed {
			return false
		}
	}
	return true
}

// streaks walks the range most-recent-first. A recorded day with any prayer
// not completed/delayed closes the current streak and resets the run; a day
// with no record only matters before a run has opened. Once a run is going
// the scan continues past gaps.
func streaks(records map[string]model.DailyPrayerRecord, start, end time.Time) (current, longest int) {
	run := 0
	currentSet := false

	for day := end; !day.Before(start); day = day.AddDate(0, 0, -1) {
		rec, ok := records[day.Format(model.DateKey)]
		switch {
		case ok && dayQualifies(rec):
			run++
			if run > longest {
				longest = run
			}
		case ok:
			if !currentSet {
				current = run
				currentSet = true
			}
			run = 0
		default:
			if run == 0 && !currentSet {
				current = 0
				currentSet = true
			}
		}
	}
	if !currentSet {
		current = run
	}
	return current, longest
}
