package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mihrab-app/mihrab/internal/config"
	"github.com/mihrab-app/mihrab/internal/http/api"
	"github.com/mihrab-app/mihrab/internal/http/api/endpoints"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/prayertimes"
	"github.com/mihrab-app/mihrab/internal/qada"
	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/syncqueue"
	"github.com/mihrab-app/mihrab/internal/tracking"
)

// RegisterRoutes sets up all application routes.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	st store.Store,
	trackingSvc *tracking.Service,
	qadaSvc *qada.Service,
	queue *syncqueue.Service,
	monitor *network.Monitor,
	calc prayertimes.Calculator,
) {
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Auth:   false,
	},
		endpoints.AuthPublicModule(cfg.JWTSecret, st),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Store:     st,
	},
		endpoints.AuthSessionModule(cfg.JWTSecret, st),
		endpoints.TrackingModule(trackingSvc, calc),
		endpoints.QadaModule(qadaSvc),
		endpoints.SyncModule(queue, monitor),
		endpoints.TimesModule(calc),
	)
}
