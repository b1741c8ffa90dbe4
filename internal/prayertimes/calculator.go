// Package prayertimes wraps the external astronomical prayer-time calculation.
// The tracking core only consumes it; it never computes times itself.
package prayertimes

import (
	"context"
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
)

// Coordinates locates the device for the calculation.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Calculator produces one day's prayer instants for a location, calculation
// method and madhab. Implementations are opaque to the rest of the core.
type Calculator interface {
	Calculate(ctx context.Context, coords Coordinates, date time.Time, method, madhab string) (model.PrayerTimes, error)
}

// Func adapts a plain function to a Calculator.
type Func func(ctx context.Context, coords Coordinates, date time.Time, method, madhab string) (model.PrayerTimes, error)

func (f Func) Calculate(ctx context.Context, coords Coordinates, date time.Time, method, madhab string) (model.PrayerTimes, error) {
	return f(ctx, coords, date, method, madhab)
}
