package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/config"
	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	adminapi "github.com/Voltair-Energy/voltair/internal/http/api/admin/endpoints"
	"github.com/Voltair-Energy/voltair/internal/mqttpub"
	"github.com/Voltair-Energy/voltair/internal/rules"
	"github.com/Voltair-Energy/voltair/internal/scheduler"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, store db.Store, service *scheduler.Service, engine *rules.Engine, publisher *mqttpub.Publisher) {
	// CORS
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
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
	},
		adminapi.SchedulerModule(store, service),
		adminapi.OverrideModule(store),
		adminapi.ScriptModule(store, service),
		adminapi.LibraryModule(store),
		adminapi.RuleModule(store, engine),
		adminapi.CommandModule(store, publisher),
	)
}
