package prayertimes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
)

const cacheTTL = 7 * 24 * time.Hour

// Cache memoizes a Calculator in redis keyed by (date, coords, method,
// madhab). Cache failures fall through to the wrapped calculator.
type Cache struct {
	inner Calculator
	rdb   *redis.Client
}

var _ Calculator = (*Cache)(nil)

func NewCache(inner Calculator, rdb *redis.Client) *Cache {
	return &Cache{inner: inner, rdb: rdb}
}

func cacheKey(coords Coordinates, date time.Time, method, madhab string) string {
	return fmt.Sprintf("mihrab:prayer_times:%s:%.4f:%.4f:%s:%s",
		date.Format(model.DateKey), coords.Latitude, coords.Longitude, method, madhab)
}

func (c *Cache) Calculate(ctx context.Context, coords Coordinates, date time.Time, method, madhab string) (model.PrayerTimes, error) {
	key := cacheKey(coords, date, method, madhab)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var times model.PrayerTimes
		if err := json.Unmarshal(raw, &times); err == nil {
			return times, nil
		}
		log.Warn().Str("key", key).Msg("discarding corrupt cached prayer times")
	} else if err != redis.Nil {
		log.Error().Err(err).Str("key", key).Msg("prayer times cache read failed")
	}

	times, err := c.inner.Calculate(ctx, coords, date, method, madhab)
	if err != nil {
		return model.PrayerTimes{}, err
	}

	if payload, err := json.Marshal(times); err == nil {
		if err := c.rdb.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("prayer times cache write failed")
		}
	}
	return times, nil
}
