package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mihrab-app/mihrab/internal/http/api"
	"github.com/mihrab-app/mihrab/internal/http/api/packets"
	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/prayertimes"
	"github.com/mihrab-app/mihrab/internal/tracking"
	"github.com/mihrab-app/mihrab/internal/window"
)

type TrackingController struct {
	svc  *tracking.Service
	calc prayertimes.Calculator
}

func NewTrackingController(svc *tracking.Service, calc prayertimes.Calculator) *TrackingController {
	return &TrackingController{svc: svc, calc: calc}
}

func TrackingModule(svc *tracking.Service, calc prayertimes.Calculator) api.Module {
	ctl := NewTrackingController(svc, calc)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/tracking/records/:date", ctl.getDailyRecord)
		c.PUT("/tracking/records/:date/prayers/:prayer", ctl.updatePrayerStatus)
		c.GET("/tracking/records/:date/prayers/:prayer/actions", ctl.getPrayerActions)
		c.POST("/tracking/records/:date/auto-mark", ctl.autoMarkMissed)
		c.PUT("/tracking/records/:date/custom", ctl.updateCustomPrayer)
		c.DELETE("/tracking/records/:date/custom/:id", ctl.deleteCustomPrayer)
		c.GET("/tracking/stats", ctl.getStats)
		c.GET("/tracking/export", ctl.exportRecords)
		c.POST("/tracking/import", ctl.importRecords)
		c.DELETE("/tracking/records", ctl.clearAllData)
		c.GET("/tracking/preferences", ctl.getPreferences)
		c.PUT("/tracking/preferences", ctl.updatePreferences)
	})
}

func (t *TrackingController) getDailyRecord(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	record, err := t.svc.GetDailyRecord(ctx.Param("date"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return record, nil
}

func (t *TrackingController) updatePrayerStatus(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdatePrayerStatusRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	record, err := t.svc.UpdatePrayerStatus(
		model.PrayerName(ctx.Param("prayer")), request.Status, ctx.Param("date"), request.Notes)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return record, nil
}

// getPrayerActions resolves the day's prayer times and reports which status
// transitions are legal for the prayer right now.
func (t *TrackingController) getPrayerActions(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var query packets.PrayerTimesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	date := ctx.Param("date")
	if query.Date == "" {
		query.Date = date
	}

	name := model.PrayerName(ctx.Param("prayer"))
	record, err := t.svc.GetDailyRecord(date)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if !name.Valid() {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "unknown prayer"}
	}

	times, apiErr := resolveTimes(ctx, t.calc, query)
	if apiErr != nil {
		return nil, apiErr
	}
	return window.ActionsFor(name, times, record.Prayers[name].Status, time.Now()), nil
}

// autoMarkMissed runs the miss sweep for the date on demand, in addition to
// the nightly scheduled run.
func (t *TrackingController) autoMarkMissed(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var query packets.PrayerTimesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if query.Date == "" {
		query.Date = ctx.Param("date")
	}

	times, apiErr := resolveTimes(ctx, t.calc, query)
	if apiErr != nil {
		return nil, apiErr
	}
	marked, err := t.svc.AutoMarkMissed(ctx.Param("date"), times)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return packets.MarkedResponse{Marked: marked}, nil
}

func (t *TrackingController) updateCustomPrayer(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CustomPrayerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	custom := model.CustomPrayerRecord{
		ID:        request.ID,
		Type:      request.Type,
		Name:      request.Name,
		Rakaat:    request.Rakaat,
		Completed: request.Completed,
	}
	if request.Completed {
		now := time.Now()
		custom.CompletedAt = &now
	}

	record, err := t.svc.UpdateCustomPrayer(ctx.Param("date"), custom)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return record, nil
}

func (t *TrackingController) deleteCustomPrayer(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	record, err := t.svc.DeleteCustomPrayer(ctx.Param("date"), ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return record, nil
}

func (t *TrackingController) getStats(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var query packets.StatsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	stats, err := t.svc.GetStats(query.Start, query.End)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return stats, nil
}

func (t *TrackingController) exportRecords(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	records, err := t.svc.ExportRecords()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not export records"}
	}
	return records, nil
}

func (t *TrackingController) importRecords(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var records map[string]model.DailyPrayerRecord
	if err := ctx.ShouldBindJSON(&records); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := t.svc.ImportRecords(records); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not import records"}
	}
	return gin.H{"imported": len(records)}, nil
}

func (t *TrackingController) clearAllData(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := t.svc.ClearAllData(); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not clear data"}
	}
	return gin.H{"message": "cleared"}, nil
}

func (t *TrackingController) getPreferences(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	prefs, err := t.svc.GetPreferences()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load preferences"}
	}
	return prefs, nil
}

func (t *TrackingController) updatePreferences(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var prefs model.TrackingPreferences
	if err := ctx.ShouldBindJSON(&prefs); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := t.svc.UpdatePreferences(prefs); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save preferences"}
	}
	return prefs, nil
}
