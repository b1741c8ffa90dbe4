package syncqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/prayertimes"
)

// Calculator re-exports the external prayer-time collaborator consumed by the
// prayer_times handler.
type Calculator = prayertimes.Calculator

// Handler processes one task. A nil return removes the task from the queue.
type Handler func(task model.SyncTask) error

// A hung handler would stall the whole pass, so every dispatch is bounded.
const handlerTimeout = 30 * time.Second

// prayerTimesHandler re-invokes the calculation collaborator for the stored
// coordinates, date and method. Success criterion is "did not return an
// error".
func prayerTimesHandler(calc Calculator) Handler {
	return func(task model.SyncTask) error {
		lat, ok := floatField(task.Data, "latitude")
		if !ok {
			return fmt.Errorf("prayer_times task %s missing latitude", task.ID)
		}
		lng, ok := floatField(task.Data, "longitude")
		if !ok {
			return fmt.Errorf("prayer_times task %s missing longitude", task.ID)
		}
		dateStr, ok := stringField(task.Data, "date")
		if !ok {
			return fmt.Errorf("prayer_times task %s missing date", task.ID)
		}
		date, err := time.ParseInLocation(model.DateKey, dateStr, time.Local)
		if err != nil {
			return fmt.Errorf("prayer_times task %s has bad date %q: %w", task.ID, dateStr, err)
		}
		method, _ := stringField(task.Data, "method")
		madhab, _ := stringField(task.Data, "madhab")

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		_, err = calc.Calculate(ctx, prayertimes.Coordinates{Latitude: lat, Longitude: lng}, date, method, madhab)
		return err
	}
}

// trackingDataHandler validates the payload shape. The remote upload behind it
// is not wired up yet; the pass/fail contract is what downstream relies on.
func trackingDataHandler(task model.SyncTask) error {
	for _, field := range []string{"date", "prayer", "status"} {
		if _, ok := stringField(task.Data, field); !ok {
			return fmt.Errorf("tracking_data task %s missing field %q", task.ID, field)
		}
	}
	return nil
}

// settingsHandler validates the payload shape, same placeholder contract as
// trackingDataHandler.
func settingsHandler(task model.SyncTask) error {
	raw, ok := task.Data["settings"]
	if !ok {
		return fmt.Errorf("settings task %s missing field %q", task.ID, "settings")
	}
	if _, ok := raw.(map[string]any); !ok {
		return fmt.Errorf("settings task %s has non-object settings payload", task.ID)
	}
	return nil
}

func stringField(data map[string]any, key string) (string, bool) {
	raw, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func floatField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
