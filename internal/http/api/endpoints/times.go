package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/http/api"
	"github.com/mihrab-app/mihrab/internal/http/api/packets"
	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/prayertimes"
)

// TimesModule exposes the external prayer-time calculation, cached upstream.
func TimesModule(calc prayertimes.Calculator) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/prayer-times", func(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
			var query packets.PrayerTimesQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
			}
			times, apiErr := resolveTimes(ctx, calc, query)
			if apiErr != nil {
				return nil, apiErr
			}
			return times, nil
		})
	})
}

// resolveTimes invokes the calculation collaborator for a parsed query.
func resolveTimes(ctx *gin.Context, calc prayertimes.Calculator, query packets.PrayerTimesQuery) (model.PrayerTimes, *api.APIError) {
	date, err := time.ParseInLocation(model.DateKey, query.Date, time.Local)
	if err != nil {
		return model.PrayerTimes{}, &api.APIError{Code: http.StatusBadRequest, Message: "bad date, want YYYY-MM-DD"}
	}

	coords := prayertimes.Coordinates{Latitude: query.Latitude, Longitude: query.Longitude}
	times, err := calc.Calculate(ctx.Request.Context(), coords, date, query.Method, query.Madhab)
	if err != nil {
		log.Error().Err(err).Str("date", query.Date).Msg("prayer time calculation failed")
		return model.PrayerTimes{}, &api.APIError{Code: http.StatusBadGateway, Message: "prayer time calculation failed"}
	}
	return times, nil
}
