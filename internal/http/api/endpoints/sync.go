package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mihrab-app/mihrab/internal/http/api"
	"github.com/mihrab-app/mihrab/internal/http/api/packets"
	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/syncqueue"
)

type SyncController struct {
	queue   *syncqueue.Service
	monitor *network.Monitor
}

func NewSyncController(queue *syncqueue.Service, monitor *network.Monitor) *SyncController {
	return &SyncController{queue: queue, monitor: monitor}
}

func SyncModule(queue *syncqueue.Service, monitor *network.Monitor) api.Module {
	ctl := NewSyncController(queue, monitor)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sync/status", ctl.getSyncStatus)
		c.POST("/sync/trigger", ctl.triggerSync)
		c.GET("/network/status", ctl.getNetworkStatus)
		c.POST("/network/events", ctl.postNetworkEvent)
	})
}

func (s *SyncController) getSyncStatus(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	status, err := s.queue.GetSyncStatus()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load sync status"}
	}
	return status, nil
}

func (s *SyncController) triggerSync(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	status, err := s.queue.TriggerSync()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "sync pass failed"}
	}
	return status, nil
}

func (s *SyncController) getNetworkStatus(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	return s.monitor.Current(), nil
}

// postNetworkEvent lets a companion client act as the connectivity source, for
// deployments without an MQTT broker.
func (s *SyncController) postNetworkEvent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.NetworkEventRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	s.monitor.HandleEvent(model.NetworkEvent{
		Connected:         request.Connected,
		InternetReachable: request.InternetReachable,
		Type:              request.Type,
		Details:           request.Details,
	})
	return s.monitor.Current(), nil
}
