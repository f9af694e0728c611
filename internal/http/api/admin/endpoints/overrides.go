package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/http/api/admin/packets"
	"github.com/Voltair-Energy/voltair/internal/model"
)

type OverrideController struct {
	store db.Store
}

func NewOverrideController(store db.Store) *OverrideController {
	return &OverrideController{store: store}
}

func OverrideModule(store db.Store) api.Module {
	ctl := NewOverrideController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sites/:id/overrides", ctl.listOverrides)
		c.POST("/sites/:id/overrides", ctl.createOverride)
		c.PUT("/overrides/:id", ctl.updateOverride)
		c.DELETE("/overrides/:id", ctl.deleteOverride)

		// maintenance entry point for the external ticker
		c.POST("/overrides/expire", ctl.expireOverrides)
	})
}

func (o *OverrideController) listOverrides(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	switch ctx.Query("filter") {
	case "active":
		list, err := o.store.ListActiveOverridesForSite(siteID)
		if err != nil {
			return nil, storeError(err)
		}
		return list, nil
	case "upcoming":
		list, err := o.store.ListUpcomingOverridesForSite(siteID, time.Now().UTC(), 50)
		if err != nil {
			return nil, storeError(err)
		}
		return list, nil
	default:
		list, err := o.store.ListOverridesForSite(siteID)
		if err != nil {
			return nil, storeError(err)
		}
		return list, nil
	}
}

func (o *OverrideController) createOverride(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateOverrideRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	state, err := model.ParseSiteState(request.State)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	start, err := time.Parse(time.RFC3339, request.StartTime)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid start_time (expected RFC 3339)"}
	}
	end, err := time.Parse(time.RFC3339, request.EndTime)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid end_time (expected RFC 3339)"}
	}

	createdBy := 0
	if actingUserID != nil {
		createdBy = *actingUserID
	}

	override, err := o.store.CreateOverride(siteID, state, start, end, createdBy, request.Reason)
	if err != nil {
		return nil, storeError(err)
	}
	return override, nil
}

func (o *OverrideController) updateOverride(ctx *gin.Context, _ *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateOverrideRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	var state *model.SiteState
	if request.State != nil {
		parsed, err := model.ParseSiteState(*request.State)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		state = &parsed
	}

	var start, end *time.Time
	if request.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *request.StartTime)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid start_time (expected RFC 3339)"}
		}
		start = &t
	}
	if request.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *request.EndTime)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid end_time (expected RFC 3339)"}
		}
		end = &t
	}

	override, err := o.store.UpdateOverride(id, state, start, end, request.Reason, request.IsActive)
	if err != nil {
		return nil, storeError(err)
	}
	return override, nil
}

func (o *OverrideController) deleteOverride(ctx *gin.Context, _ *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := o.store.DeleteOverride(id); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (o *OverrideController) expireOverrides(ctx *gin.Context, _ *int) (any, *api.APIError) {
	expired, err := o.store.ExpireEndedOverrides(time.Now().UTC())
	if err != nil {
		return nil, storeError(err)
	}
	return gin.H{"expired": expired}, nil
}
