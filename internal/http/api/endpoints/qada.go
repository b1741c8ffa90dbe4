package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mihrab-app/mihrab/internal/http/api"
	"github.com/mihrab-app/mihrab/internal/http/api/packets"
	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/qada"
)

type QadaController struct {
	svc *qada.Service
}

func NewQadaController(svc *qada.Service) *QadaController {
	return &QadaController{svc: svc}
}

func QadaModule(svc *qada.Service) api.Module {
	ctl := NewQadaController(svc)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/qada", ctl.getQadaDebt)
		c.POST("/qada/records", ctl.addToQadaDebt)
		c.PUT("/qada/records/:id/complete", ctl.completeQada)
		c.DELETE("/qada/records/:id", ctl.removeQada)
		c.GET("/qada/pending", ctl.getPendingQadas)
		c.DELETE("/qada/completed", ctl.clearCompletedQadas)
	})
}

func (q *QadaController) getQadaDebt(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	debt, err := q.svc.GetQadaDebt()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load qada ledger"}
	}
	return debt, nil
}

func (q *QadaController) addToQadaDebt(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.AddQadaRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	debt, err := q.svc.AddToQadaDebt(request.Prayer, request.Date, request.Notes)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return debt, nil
}

// completeQada is idempotent: an unknown or already-completed id returns the
// unchanged ledger.
func (q *QadaController) completeQada(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	debt, err := q.svc.CompleteQada(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not complete qada"}
	}
	return debt, nil
}

func (q *QadaController) removeQada(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	debt, err := q.svc.RemoveQada(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not remove qada"}
	}
	return debt, nil
}

func (q *QadaController) getPendingQadas(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if prayer := ctx.Query("prayer"); prayer != "" {
		name := model.PrayerName(prayer)
		if !name.Valid() {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "unknown prayer"}
		}
		pending, err := q.svc.GetPendingQadasForPrayer(name)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load pending qadas"}
		}
		return pending, nil
	}

	pending, err := q.svc.GetPendingQadas()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load pending qadas"}
	}
	return pending, nil
}

func (q *QadaController) clearCompletedQadas(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	debt, err := q.svc.ClearCompletedQadas()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not clear completed qadas"}
	}
	return debt, nil
}
